package models

import "time"

// Category classifies a source.
type Category string

const (
	CategoryResearch   Category = "research"
	CategoryIndustry   Category = "industry"
	CategoryTools      Category = "tools"
	CategoryRegulation Category = "regulation"
	CategoryEducation  Category = "education"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryResearch,
	CategoryIndustry,
	CategoryTools,
	CategoryRegulation,
	CategoryEducation,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Source represents a row in the 'sources' table
type Source struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,max=200"`
	RSSURL    string    `db:"rss_url" json:"rss_url" validate:"required,url"`
	Category  Category  `db:"category" json:"category" validate:"required,oneof=research industry tools regulation education"`
	Weight    int       `db:"weight" json:"weight" validate:"min=1,max=10"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewSource creates a new active Source with default weight
func NewSource() *Source {
	now := time.Now().UTC()
	return &Source{
		Weight:    5,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
