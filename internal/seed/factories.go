// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"inkpress/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db      *gorm.DB
	faker   *gofakeit.Faker
	rng     *rand.Rand
	maxDays int
	hash    string
}

// NewFactory creates a Factory bound to db. A non-zero seed makes the
// generated content reproducible.
func NewFactory(db *gorm.DB, seed int64, maxDays int) (*Factory, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if maxDays <= 0 {
		maxDays = 90
	}
	// One hash for every account keeps large seeds fast.
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{
		db:      db,
		faker:   gofakeit.New(seed),
		rng:     rand.New(rand.NewSource(seed)),
		maxDays: maxDays,
		hash:    string(hash),
	}, nil
}

// CreateUser persists a user with the given role. Overrides run before saving.
func (f *Factory) CreateUser(role models.Role, overrides ...func(*models.User)) (*models.User, error) {
	base := strings.ToLower(f.faker.Username())
	if len(base) > 24 {
		base = base[:24]
	}
	username := fmt.Sprintf("%s%d", base, f.faker.Number(100, 99999))
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: f.hash,
		Role:     role,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCategory persists a category with the given name.
func (f *Factory) CreateCategory(name string) (*models.Category, error) {
	category := &models.Category{Name: name}
	if err := f.db.Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// CreateArticle persists an article written by author and links it to categories.
func (f *Factory) CreateArticle(author *models.User, categories []models.Category, overrides ...func(*models.Article)) (*models.Article, error) {
	created := f.pastTime()
	article := &models.Article{
		UserID:    author.ID,
		Title:     strings.TrimSuffix(f.faker.Sentence(6), "."),
		Content:   f.faker.Paragraph(3, 4, 12, "\n\n"),
		Views:     int64(f.rng.Intn(500)),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(article)
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(article).Error; err != nil {
			return err
		}
		for _, c := range categories {
			link := models.ArticleCategory{ArticleID: article.ID, CategoryID: c.ID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
			article.CategoryIDs = append(article.CategoryIDs, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// CreateComment persists a comment by user on article.
func (f *Factory) CreateComment(user *models.User, article *models.Article) (*models.Comment, error) {
	comment := &models.Comment{
		UserID:    user.ID,
		ArticleID: article.ID,
		Content:   f.faker.Sentence(f.rng.Intn(15) + 4),
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike records that user likes article and bumps the article's counter.
func (f *Factory) CreateLike(user *models.User, article *models.Article) error {
	return f.db.Transaction(func(tx *gorm.DB) error {
		like := models.Like{ArticleID: article.ID, UserID: user.ID}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		article.LikesCount++
		return tx.Model(&models.Article{}).Where("id = ?", article.ID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
	})
}

// pastTime spreads creation timestamps over the last maxDays days.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Intn(f.maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back).UTC()
}
