// Package seed provides helpers to create demo data for the application
// database: the built-in groups plus generated users, posts, comments and
// follows. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the plaintext password of every generated user.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	fake *gofakeit.Faker
	rnd  *rand.Rand

	passwordHash string
}

// NewFactory creates a Factory bound to db. A zero opts.Seed picks a
// time-based seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:   db,
		opts: opts,
		fake: gofakeit.New(seed),
		// #nosec G404: acceptable for seeding
		rnd: rand.New(rand.NewSource(seed)),
	}
}

func (f *Factory) hashedPassword() (string, error) {
	if f.passwordHash != "" {
		return f.passwordHash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", err
	}
	f.passwordHash = string(hash)
	return f.passwordHash, nil
}

// BuildUser returns an unsaved user with a unique-looking username.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.hashedPassword()
	if err != nil {
		return nil, err
	}
	first, last := f.fake.FirstName(), f.fake.LastName()
	username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, f.fake.Number(100, 9999)))
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  hash,
		FirstName: first,
		LastName:  last,
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by author. Publication dates are spread
// over the last opts.MaxDays days.
func (f *Factory) BuildPost(author *models.User, group *models.Group, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Text:     f.fake.Paragraph(1, f.rnd.Intn(4)+1, 12, "\n"),
		AuthorID: author.ID,
		PubDate:  f.pastTime(),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// CreatePost constructs and persists a sample post.
func (f *Factory) CreatePost(author *models.User, group *models.Group, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, group, overrides...)
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists posts in chunks of opts.BatchSize.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	size := f.opts.BatchSize
	if size <= 0 {
		size = 100
	}
	return f.db.CreateInBatches(posts, size).Error
}

// CreateComment persists a sample comment by author on post.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Text:     f.fake.Sentence(f.rnd.Intn(12) + 3),
		AuthorID: author.ID,
		PostID:   post.ID,
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow makes user follow author. Existing pairs are left alone and
// self-follows are skipped; the returned bool reports whether a row was added.
func (f *Factory) CreateFollow(user, author *models.User) (bool, error) {
	if user.ID == author.ID {
		return false, nil
	}
	res := f.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{UserID: user.ID, AuthorID: author.ID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
