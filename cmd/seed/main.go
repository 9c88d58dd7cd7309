// Command seed populates the Inkpress database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"inkpress/internal/config"
	"inkpress/internal/database"
	"inkpress/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of reader and author accounts to create")
	numArticles := flag.Int("articles", 200, "Number of articles to create")
	maxComments := flag.Int("comments", 5, "Maximum comments per article")
	likeRatio := flag.Float64("like-ratio", 0.15, "Chance that a user likes a given article")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 picks one)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Printf("Target: %d users, %d articles, clean=%v\n", *numUsers, *numArticles, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	sum, err := seed.Seed(db, seed.Options{
		NumUsers:              *numUsers,
		NumArticles:           *numArticles,
		MaxCommentsPerArticle: *maxComments,
		LikeRatio:             *likeRatio,
		ShouldClean:           *shouldClean,
		RandomSeed:            *randomSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Created %d users, %d categories, %d articles, %d comments, %d likes",
		sum.Users, sum.Categories, sum.Articles, sum.Comments, sum.Likes)
	log.Printf("📧 All seeded accounts use the password: %s", seed.DefaultPassword)
}
