package seed

import (
	"errors"
	"fmt"
	"log/slog"

	"inkpress/internal/middleware"
	"inkpress/internal/models"

	"gorm.io/gorm"
)

// DefaultCategories are created on every seed run.
var DefaultCategories = []string{"Engineering", "Design", "Product", "Culture", "Tutorials", "News"}

// Options control how much data Seed creates.
type Options struct {
	NumUsers    int
	NumArticles int
	// MaxCommentsPerArticle caps the random comment count per article.
	MaxCommentsPerArticle int
	// LikeRatio is the chance, in [0,1], that a given reader likes a given article.
	LikeRatio   float64
	ShouldClean bool
	// RandomSeed makes runs reproducible when non-zero.
	RandomSeed int64
	MaxDays    int
}

// Summary reports what a seed run created.
type Summary struct {
	Users      int
	Categories int
	Articles   int
	Comments   int
	Likes      int
}

// Seed populates the database with demo data. It always creates a fixed
// admin, moderator and author account named after their roles.
func Seed(db *gorm.DB, opts Options) (Summary, error) {
	var sum Summary
	if db == nil {
		return sum, errors.New("seed: database is required")
	}
	if opts.NumArticles > 0 && opts.NumUsers < 1 {
		return sum, errors.New("seed: articles need at least one user")
	}
	middleware.Logger.Info("starting database seed",
		slog.Int("users", opts.NumUsers),
		slog.Int("articles", opts.NumArticles),
	)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return sum, fmt.Errorf("clear existing data: %w", err)
		}
	}

	f, err := NewFactory(db, opts.RandomSeed, opts.MaxDays)
	if err != nil {
		return sum, err
	}

	staff := make([]*models.User, 0, 3)
	for _, role := range []models.Role{models.RoleAdmin, models.RoleModerator, models.RoleAuthor} {
		name := string(role)
		u, err := f.CreateUser(role, func(u *models.User) {
			u.Username = name
			u.Email = name + "@example.com"
		})
		if err != nil {
			return sum, fmt.Errorf("create %s account: %w", name, err)
		}
		staff = append(staff, u)
	}
	authors := []*models.User{staff[2]}
	readers := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		role := models.RoleUser
		// Roughly one in four generated accounts can write.
		if i%4 == 0 {
			role = models.RoleAuthor
		}
		u, err := f.CreateUser(role)
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		if role == models.RoleAuthor {
			authors = append(authors, u)
		}
		readers = append(readers, u)
	}
	sum.Users = len(staff) + len(readers)

	categories := make([]models.Category, 0, len(DefaultCategories))
	for _, name := range DefaultCategories {
		c, err := f.CreateCategory(name)
		if err != nil {
			return sum, fmt.Errorf("create category %q: %w", name, err)
		}
		categories = append(categories, *c)
	}
	sum.Categories = len(categories)

	maxComments := opts.MaxCommentsPerArticle
	if maxComments <= 0 {
		maxComments = 5
	}
	for i := 0; i < opts.NumArticles; i++ {
		author := authors[f.rng.Intn(len(authors))]
		article, err := f.CreateArticle(author, f.pickCategories(categories))
		if err != nil {
			return sum, fmt.Errorf("create article: %w", err)
		}
		sum.Articles++

		for n := f.rng.Intn(maxComments + 1); n > 0 && len(readers) > 0; n-- {
			if _, err := f.CreateComment(readers[f.rng.Intn(len(readers))], article); err != nil {
				return sum, fmt.Errorf("create comment: %w", err)
			}
			sum.Comments++
		}

		for _, reader := range readers {
			if f.rng.Float64() >= opts.LikeRatio {
				continue
			}
			if err := f.CreateLike(reader, article); err != nil {
				return sum, fmt.Errorf("create like: %w", err)
			}
			sum.Likes++
		}
	}

	middleware.Logger.Info("database seed completed",
		slog.Int("users", sum.Users),
		slog.Int("categories", sum.Categories),
		slog.Int("articles", sum.Articles),
		slog.Int("comments", sum.Comments),
		slog.Int("likes", sum.Likes),
	)
	return sum, nil
}

// pickCategories returns between one and three distinct categories.
func (f *Factory) pickCategories(all []models.Category) []models.Category {
	if len(all) == 0 {
		return nil
	}
	n := f.rng.Intn(3) + 1
	if n > len(all) {
		n = len(all)
	}
	picked := make([]models.Category, 0, n)
	for _, idx := range f.rng.Perm(len(all))[:n] {
		picked = append(picked, all[idx])
	}
	return picked
}

// seededTables lists every table Seed writes, children first.
var seededTables = []string{"likes", "comments", "files", "article_categories", "articles", "categories", "users"}

func clearData(db *gorm.DB) error {
	middleware.Logger.Info("clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.Exec("TRUNCATE TABLE likes, comments, files, article_categories, articles, categories, users RESTART IDENTITY CASCADE").Error
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range seededTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
