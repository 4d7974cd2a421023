package model

// User is a directory entry as served by the user API.
// The directory key is ID; the display order is by Name.
type User struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Color *Color `json:"color,omitempty"`
	Bio   string `json:"bio,omitempty"`
}

// Color is an HSB colour tag, each component in [0, 1].
type Color struct {
	Hue        float64 `json:"h" validate:"gte=0,lte=1"`
	Saturation float64 `json:"s" validate:"gte=0,lte=1"`
	Brightness float64 `json:"b" validate:"gte=0,lte=1"`
}

// UserKey is the identity used when matching users across directory fetches.
func UserKey(u User) string { return u.ID }

// UserLess orders users by name. Equal names fall back to the ID so the
// order stays total.
func UserLess(a, b User) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
