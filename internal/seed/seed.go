package seed

import (
	"fmt"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
	FollowsPerUser  int
	// MaxDays bounds how far back generated publication dates go.
	MaxDays   int
	BatchSize int
	// SkipBcrypt hashes passwords at the minimum cost.
	SkipBcrypt bool
	// Seed makes generated content reproducible when non-zero.
	Seed int64
}

// DefaultOptions returns the sizes used by cmd/seed without flags.
func DefaultOptions() Options {
	return Options{
		NumUsers:        20,
		NumPosts:        150,
		CommentsPerPost: 2,
		FollowsPerUser:  4,
		MaxDays:         90,
		BatchSize:       100,
	}
}

// Summary counts what a run created.
type Summary struct {
	Groups   int
	Users    int
	Posts    int
	Comments int
	Follows  int
}

// Seeder populates the database with demo content.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Run seeds the built-in groups followed by users, posts, comments and follows.
func (s *Seeder) Run() (Summary, error) {
	var sum Summary
	log := middleware.Logger

	groups, err := Groups(s.db)
	if err != nil {
		return sum, err
	}
	sum.Groups = len(groups)
	log.Info("built-in groups ready", slog.Int("count", sum.Groups))

	users, err := s.seedUsers(s.opts.NumUsers)
	if err != nil {
		return sum, fmt.Errorf("seed users: %w", err)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	posts, err := s.seedPosts(users, groups, s.opts.NumPosts)
	if err != nil {
		return sum, fmt.Errorf("seed posts: %w", err)
	}
	sum.Posts = len(posts)

	if sum.Comments, err = s.seedComments(users, posts); err != nil {
		return sum, fmt.Errorf("seed comments: %w", err)
	}
	if sum.Follows, err = s.seedFollows(users); err != nil {
		return sum, fmt.Errorf("seed follows: %w", err)
	}

	log.Info("seeding complete",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("follows", sum.Follows),
	)
	return sum, nil
}

func (s *Seeder) seedUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for len(users) < n {
		u, err := s.factory.CreateUser()
		if err != nil {
			// Generated usernames can collide; try another one.
			if repository.IsUniqueConstraintError(err) {
				continue
			}
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) seedPosts(users []*models.User, groups []models.Group, n int) ([]*models.Post, error) {
	rnd := s.factory.rnd
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[rnd.Intn(len(users))]
		var group *models.Group
		// Roughly a third of posts stay outside any group.
		if len(groups) > 0 && rnd.Intn(3) > 0 {
			group = &groups[rnd.Intn(len(groups))]
		}
		posts = append(posts, s.factory.BuildPost(author, group))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Seeder) seedComments(users []*models.User, posts []*models.Post) (int, error) {
	if s.opts.CommentsPerPost <= 0 {
		return 0, nil
	}
	rnd := s.factory.rnd
	created := 0
	for _, post := range posts {
		for i := rnd.Intn(s.opts.CommentsPerPost + 1); i > 0; i-- {
			author := users[rnd.Intn(len(users))]
			if _, err := s.factory.CreateComment(author, post); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func (s *Seeder) seedFollows(users []*models.User) (int, error) {
	if len(users) < 2 || s.opts.FollowsPerUser <= 0 {
		return 0, nil
	}
	rnd := s.factory.rnd
	created := 0
	for _, u := range users {
		for i := 0; i < s.opts.FollowsPerUser; i++ {
			ok, err := s.factory.CreateFollow(u, users[rnd.Intn(len(users))])
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
	}
	return created, nil
}

// ClearAll removes every user, post, comment and follow. Groups are kept so
// that Groups can refresh them in place.
func (s *Seeder) ClearAll() error {
	middleware.Logger.Info("clearing existing data")
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(`TRUNCATE TABLE comments, follows, posts, users RESTART IDENTITY CASCADE`).Error
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
