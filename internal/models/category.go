package models

// Category groups articles by topic.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:64;not null" json:"name"`
}

// ArticleCategory links an article to a category. The pair is the primary key.
type ArticleCategory struct {
	ArticleID  uint `gorm:"primaryKey;autoIncrement:false" json:"article_id"`
	CategoryID uint `gorm:"primaryKey;autoIncrement:false;index" json:"category_id"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}

// TableName returns the join table name.
func (ArticleCategory) TableName() string {
	return "article_categories"
}
