package db

import "gorm.io/gorm"

// Comment 定义了评论模型。ParentID 为空表示顶层评论。
// 评论可以由登录用户发表（AuthorID），也可以匿名发表（AuthorName/AuthorEmail）。
type Comment struct {
	gorm.Model
	PostID      uint  `gorm:"index;not null"`
	ParentID    *uint `gorm:"index"`
	AuthorID    *uint
	Author      *User
	AuthorName  string
	AuthorEmail string
	Content     string `gorm:"type:text;not null"`
	Approved    bool   `gorm:"default:false;index"`
}

// DisplayName 返回评论展示用的作者名。
func (c *Comment) DisplayName() string {
	if c.Author != nil && c.Author.DisplayName != "" {
		return c.Author.DisplayName
	}
	if c.Author != nil {
		return c.Author.Username
	}
	if c.AuthorName != "" {
		return c.AuthorName
	}
	return "anonymous"
}
