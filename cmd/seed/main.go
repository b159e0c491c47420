// Command main fills the database with the built-in groups and generated
// demo content.
package main

import (
	"flag"
	"log"

	"yatube/internal/bootstrap"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Maximum comments per post")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Follow attempts per user")
	maxDays := flag.Int("days", defaults.MaxDays, "Spread publication dates over this many days")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	groupsOnly := flag.Bool("groups-only", false, "Only upsert the built-in groups")
	shouldClean := flag.Bool("clean", false, "Remove users, posts, comments and follows first")
	fast := flag.Bool("fast", true, "Hash demo passwords at the minimum bcrypt cost")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedBuiltIns: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	if *groupsOnly {
		log.Println("Built-in groups are up to date.")
		return
	}

	opts := defaults
	opts.NumUsers = *numUsers
	opts.NumPosts = *numPosts
	opts.CommentsPerPost = *comments
	opts.FollowsPerUser = *follows
	opts.MaxDays = *maxDays
	opts.Seed = *randSeed
	opts.SkipBcrypt = *fast

	s := seed.NewSeeder(db, opts)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run()
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d groups, %d users, %d posts, %d comments, %d follows.",
		sum.Groups, sum.Users, sum.Posts, sum.Comments, sum.Follows)
	log.Printf("All demo users have the password: %s", seed.DefaultPassword)
}
