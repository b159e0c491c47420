// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with foreign keys
// enforced and the full schema migrated. It is closed when t finishes.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Password is the plaintext password of every fixture user.
const Password = "password123"

// CreateUser inserts a user with the given username and Password.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateGroup inserts a group.
func CreateGroup(t testing.TB, db *gorm.DB, title, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: title, Slug: slug, Description: "Test group " + title}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return g
}

// CreatePost inserts a post by author, optionally in group.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

// CreateFollow makes follower follow author.
func CreateFollow(t testing.TB, db *gorm.DB, follower, author *models.User) {
	t.Helper()
	if err := db.Create(&models.Follow{UserID: follower.ID, AuthorID: author.ID}).Error; err != nil {
		t.Fatalf("create follow: %v", err)
	}
}
