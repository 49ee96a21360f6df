package models

// Academy is a minimal local mirror of an academy. Authoring/CRUD lives in
// another service; the engine only needs the name (for keyword binding) and
// the id (for scoping attempts, points and quiz finishes).
type Academy struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Name string `gorm:"not null" json:"name"`

	Timestamps
}
