package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reader's reply on an article.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Article   *Article  `gorm:"foreignKey:ArticleID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author *UserSummary `gorm:"-" json:"user,omitempty"`
}

// AfterFind projects the preloaded commenter.
func (c *Comment) AfterFind(*gorm.DB) error {
	c.Author = summarize(c.User)
	return nil
}
