package models

import "time"

// PreviewLength is how many characters String() keeps for posts and comments.
const PreviewLength = 15

// Post is a single publication by an author, optionally filed under a group.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	PubDate   time.Time `gorm:"column:pub_date;autoCreateTime;index:idx_posts_pub_date" json:"pub_date"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image     string    `gorm:"size:255" json:"image,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}

// HasImage reports whether an image is attached.
func (p Post) HasImage() bool {
	return p.Image != ""
}

func (p Post) String() string {
	return preview(p.Text)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= PreviewLength {
		return s
	}
	return string(r[:PreviewLength])
}
