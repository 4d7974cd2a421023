package model

// Category groups habits. Name is its only identity: two categories with
// the same name are the same category whatever their colours.
type Category struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// Habit is a trackable habit. Like Category, it is identified by Name alone.
type Habit struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Info     string   `json:"info"`
}

func CategoryKey(c Category) string { return c.Name }

func HabitKey(h Habit) string { return h.Name }

func CategoryEqual(a, b Category) bool { return CategoryKey(a) == CategoryKey(b) }

func HabitEqual(a, b Habit) bool { return HabitKey(a) == HabitKey(b) }

// HabitLess orders habits by name.
func HabitLess(a, b Habit) bool { return HabitKey(a) < HabitKey(b) }
