package models

import (
	"time"

	"gorm.io/gorm"
)

// Article is a blog post written by an author.
type Article struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"-"`
	Title      string    `gorm:"size:300;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Views      int64     `gorm:"not null;default:0" json:"views"`
	LikesCount int64     `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`

	CategoryLinks []ArticleCategory `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
	Likes         []Like            `gorm:"foreignKey:ArticleID" json:"-"`
	Files         []File            `gorm:"foreignKey:ArticleID" json:"files,omitempty"`

	// CategoryIDs is resolved from CategoryLinks after loading.
	CategoryIDs []uint `gorm:"-" json:"categories"`

	// Author is the public view of User; the account row never leaves the server.
	Author *UserSummary `gorm:"-" json:"user,omitempty"`
}

// AfterFind projects the preloaded author.
func (a *Article) AfterFind(*gorm.DB) error {
	a.Author = summarize(a.User)
	return nil
}

// ResolveCategoryIDs fills CategoryIDs from the loaded join rows.
func (a *Article) ResolveCategoryIDs() {
	ids := make([]uint, 0, len(a.CategoryLinks))
	for _, link := range a.CategoryLinks {
		ids = append(ids, link.CategoryID)
	}
	a.CategoryIDs = ids
}

// IsAuthor reports whether userID wrote the article.
func (a *Article) IsAuthor(userID uint) bool {
	return a.UserID == userID
}
