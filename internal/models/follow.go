package models

import "time"

// Follow is a directed edge from a follower (UserID) to an author (AuthorID).
// A pair exists at most once; user and author always differ.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:unique_following" json:"user_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:unique_following;index;check:chk_follows_not_self,user_id <> author_id" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Author User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
