//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
)

func TestFollowRepository_Postgres(t *testing.T) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("yatube"),
		tcpostgres.WithUsername("yatube"),
		tcpostgres.WithPassword("yatube"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := &config.Config{Env: "test", DBSchemaMode: "sql"}
	db, err := database.Open(postgres.Open(dsn), cfg)
	require.NoError(t, err)
	require.NoError(t, database.ApplySchema(ctx, db, cfg))

	alice := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	bob := &models.User{Username: "bob", Email: "bob@example.com", Password: "x"}
	users := NewUserRepository(db)
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	follows := NewFollowRepository(db)
	created, err := follows.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = follows.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = follows.Create(ctx, alice.ID, alice.ID)
	assert.Error(t, err, "the check constraint rejects self-follows")

	posts := NewPostRepository(db)
	require.NoError(t, posts.Create(ctx, &models.Post{Text: "hello", AuthorID: bob.ID}))
	feed, err := posts.List(ctx, PostFilter{FollowerID: alice.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "bob", feed[0].Author.Username)
}
