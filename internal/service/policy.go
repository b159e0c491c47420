package service

import "yatube/internal/models"

// Decision is the result of an authorization check.
type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// CanEditPost allows only the post's author to edit it. Anonymous users
// (userID 0) are always denied.
func CanEditPost(post *models.Post, userID uint) Decision {
	if post == nil || userID == 0 {
		return Denied
	}
	if post.AuthorID == userID {
		return Allowed
	}
	return Denied
}
