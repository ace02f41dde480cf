package models

// Room is a catalog entry for one of the bookable rooms.
type Room struct {
	ID          int    `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
}
