package db

import (
	"time"

	"gorm.io/gorm"
)

// 文章状态常量
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// Post 定义了文章模型
type Post struct {
	gorm.Model
	Title         string `gorm:"not null"`
	Slug          string `gorm:"uniqueIndex;size:80;not null"`
	Content       string `gorm:"type:text"`
	Excerpt       string
	Status        string `gorm:"size:16;default:draft;index"`
	ViewCount     uint64 `gorm:"default:0"`
	PublishedAt   *time.Time
	FeaturedImage string
	AuthorID      uint `gorm:"index"`
	Author        User
	Tags          []Tag          `gorm:"many2many:post_tags;"`
	Categories    []PostCategory `gorm:"foreignKey:PostID"`
}

// IsPublished 表示文章是否已发布。
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// ValidPostStatus reports whether status is one of the known post states.
func ValidPostStatus(status string) bool {
	switch status {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}
