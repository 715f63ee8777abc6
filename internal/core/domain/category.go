package domain

import "time"

// Category is per-user category weight metadata, kept in a separate
// persistent store from the vector index.
type Category struct {
	// UserID is the owning user.
	UserID string

	// Name is the category name, unique per user.
	Name string

	// Weight biases downstream consumers toward the category.
	Weight float64

	// UsageCount tracks how many ingestions used this category.
	UsageCount int

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}
