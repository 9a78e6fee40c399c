package db

import (
	"time"

	"gorm.io/gorm"
)

// SeoData 保存文章的 SEO 与 AI 元数据，每篇文章至多一行。
type SeoData struct {
	gorm.Model
	PostID          uint `gorm:"uniqueIndex;not null"`
	MetaTitle       string
	MetaDescription string
	Keywords        string
	WordCount       int
	ReadingTime     int
	Processed       bool `gorm:"default:false"`
	ProcessedAt     *time.Time
	AIModel         string
}

// TableName 指定自定义表名。
func (SeoData) TableName() string {
	return "seo_data"
}
