package db

import "gorm.io/gorm"

// Category 定义了分类模型，分类由管理员预先维护。
type Category struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex;size:80;not null"`
	Description string
	Color       string `gorm:"size:16"`
}

// PostCategory 是文章与分类的关联记录，可携带 AI 推荐的置信度。
type PostCategory struct {
	gorm.Model
	PostID        uint `gorm:"index;not null"`
	CategoryID    uint `gorm:"index;not null"`
	Category      Category
	Confidence    *float64
	IsAISuggested bool `gorm:"default:false"`
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (PostCategory) TableName() string {
	return "post_categories"
}
