package models

import (
	"time"
)

// Like records that a user likes an article.
// The (ArticleID, UserID) pair is the primary key, so a user likes an article at most once.
type Like struct {
	ArticleID uint      `gorm:"primaryKey;autoIncrement:false" json:"article_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	Article *Article `gorm:"foreignKey:ArticleID" json:"-"`
	User    *User    `gorm:"foreignKey:UserID" json:"-"`
}
