// Package snapshot turns the user directory and the followed set into the
// ordered items shown on screen, and computes the edits needed to move the
// screen from one snapshot to the next.
package snapshot

import (
	"sort"

	"github.com/idilsaglam/habits/internal/model"
)

// SectionID names a section of the list. Only MainSection is used today.
type SectionID int

const MainSection SectionID = 0

// FollowedSet answers membership for followed user IDs.
type FollowedSet interface {
	Contains(id string) bool
}

// Item is one row: a user plus whether the viewer follows them.
// Its identity is the user alone; Followed is an attribute.
type Item struct {
	User     model.User
	Followed bool
}

// Key is the identity used for diffing.
func (i Item) Key() string { return model.UserKey(i.User) }

// Same reports whether two items with the same key render identically.
func (i Item) Same(o Item) bool {
	if i.Followed != o.Followed || i.User.Name != o.User.Name || i.User.Bio != o.User.Bio {
		return false
	}
	a, b := i.User.Color, o.User.Color
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type Section struct {
	ID    SectionID
	Items []Item
}

// Snapshot is the full list content in display order.
type Snapshot struct {
	Sections []Section
}

// Items returns the items of section id, or nil when absent.
func (s Snapshot) Items(id SectionID) []Item {
	for _, sec := range s.Sections {
		if sec.ID == id {
			return sec.Items
		}
	}
	return nil
}

// Build sorts the directory by name and marks followed users. A nil
// followed set marks nobody.
func Build(users map[string]model.User, followed FollowedSet) Snapshot {
	sorted := make([]model.User, 0, len(users))
	for _, u := range users {
		sorted = append(sorted, u)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return model.UserLess(sorted[i], sorted[j]) })

	items := make([]Item, 0, len(sorted))
	for _, u := range sorted {
		items = append(items, Item{
			User:     u,
			Followed: followed != nil && followed.Contains(model.UserKey(u)),
		})
	}
	return Snapshot{Sections: []Section{{ID: MainSection, Items: items}}}
}

// FollowedCount counts followed items across all sections.
func (s Snapshot) FollowedCount() int {
	n := 0
	for _, sec := range s.Sections {
		for _, it := range sec.Items {
			if it.Followed {
				n++
			}
		}
	}
	return n
}
