package db

import "gorm.io/gorm"

// Tag 定义了标签模型。标签名不区分大小写，由数据库唯一约束兜底。
type Tag struct {
	gorm.Model
	Name  string `gorm:"type:TEXT COLLATE NOCASE;uniqueIndex;not null"`
	Slug  string `gorm:"uniqueIndex;size:80;not null"`
	Posts []Post `gorm:"many2many:post_tags;"`
}
