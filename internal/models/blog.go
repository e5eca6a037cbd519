package models

import "time"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// BlogPost is a record in the blogs collection.
type BlogPost struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	SubHeading    string    `json:"subHeading,omitempty"`
	Content       string    `json:"content"`
	FeaturedImage string    `json:"featuredImage"`
	Author        string    `json:"author"`
	Status        string    `json:"status"`
	PublishedAt   time.Time `json:"publishedAt,omitzero"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsPublished reports whether the post is publicly visible.
func (p *BlogPost) IsPublished() bool {
	return p.Status == StatusPublished
}

// SortTime is the publish time, or the creation time for posts without one.
func (p *BlogPost) SortTime() time.Time {
	if p.PublishedAt.IsZero() {
		return p.CreatedAt
	}
	return p.PublishedAt
}
