package models

import "time"

// Group is a titled community that posts can optionally be filed under.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Slug        string    `gorm:"size:50;not null;uniqueIndex:idx_groups_slug" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Group) TableName() string {
	return "groups"
}

func (g Group) String() string {
	return g.Title
}
