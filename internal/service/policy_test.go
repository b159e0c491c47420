package service

import (
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanEditPost(t *testing.T) {
	t.Parallel()
	post := &models.Post{ID: 1, AuthorID: 7}

	tests := []struct {
		name   string
		post   *models.Post
		userID uint
		want   Decision
	}{
		{"author", post, 7, Allowed},
		{"other user", post, 8, Denied},
		{"anonymous", post, 0, Denied},
		{"no post", nil, 7, Denied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEditPost(tt.post, tt.userID))
		})
	}
	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "denied", Denied.String())
}
