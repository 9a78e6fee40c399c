package main

import (
	"fmt"
	"log"
	"time"

	"github.com/tmdry4530/dom-vlog/internal/config"
	"github.com/tmdry4530/dom-vlog/internal/db"
	"github.com/tmdry4530/dom-vlog/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// 测试数据生成器
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	createTestUsers()
	createTestCategories()
	createTestPosts()
	createTestComments()
	createTestVisits()

	fmt.Println("测试数据生成完成！")
	fmt.Println("用户: admin (密码: admin123)")
	fmt.Println("文章: 5篇测试文章，含标签与分类")
}

// 创建测试用户
func createTestUsers() {
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，跳过创建")
		return
	}

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := db.User{
		Username:    "admin",
		Password:    string(hashedPassword),
		DisplayName: "站长",
	}
	db.DB.Create(&admin)

	fmt.Println("✅ 测试用户创建完成")
}

// 创建测试分类
func createTestCategories() {
	var count int64
	db.DB.Model(&db.Category{}).Count(&count)
	if count > 0 {
		fmt.Println("分类已存在，跳过创建")
		return
	}

	categories := []struct {
		name        string
		description string
		color       string
	}{
		{"技术", "工程实践与技术分享", "#3b82f6"},
		{"生活", "日常与随笔", "#10b981"},
		{"教程", "动手指南", "#f59e0b"},
	}

	svc := service.NewCategoryService(db.DB)
	for _, c := range categories {
		if _, err := svc.Create(c.name, c.description, c.color); err != nil {
			log.Printf("创建分类 %s 失败: %v", c.name, err)
		}
	}

	fmt.Println("✅ 测试分类创建完成")
}

// 创建测试文章
func createTestPosts() {
	var count int64
	db.DB.Model(&db.Post{}).Count(&count)
	if count > 0 {
		fmt.Println("文章已存在，跳过创建")
		return
	}

	var admin db.User
	if err := db.DB.Where("username = ?", "admin").First(&admin).Error; err != nil {
		log.Printf("未找到管理员用户: %v", err)
		return
	}

	posts := []struct {
		title   string
		content string
		excerpt string
		status  string
		tags    []string
	}{
		{
			title:   "使用Go语言构建个人博客",
			content: "# 使用Go语言构建个人博客\n\nGo语言因其出色的并发性能和简洁的语法，非常适合构建个人博客后端。本文介绍基于 Gin 和 GORM 的整体架构，以及标签、分类与评论树的建模方式。",
			excerpt: "基于 Gin 和 GORM 构建个人博客后端的整体架构与建模思路。",
			status:  db.PostStatusPublished,
			tags:    []string{"Go", "Web开发", "技术"},
		},
		{
			title:   "SQLite在小型站点中的实践",
			content: "# SQLite在小型站点中的实践\n\nSQLite 作为嵌入式数据库，在个人站点场景下免运维且性能充足。本文分享索引设计、并发计数与 busy_timeout 的实践经验。",
			excerpt: "个人站点场景下 SQLite 的索引设计与并发计数实践。",
			status:  db.PostStatusPublished,
			tags:    []string{"数据库", "SQLite"},
		},
		{
			title:   "评论树的重建算法",
			content: "# 评论树的重建算法\n\n扁平的 parent_id 自引用列表如何安全地重建为嵌套树？关键在于只允许子节点挂到先于自己出现的父节点上，悬空引用一律提升为顶层。",
			excerpt: "从扁平列表安全重建嵌套评论树的算法要点。",
			status:  db.PostStatusPublished,
			tags:    []string{"算法", "技术"},
		},
		{
			title:   "Markdown渲染与XSS防护",
			content: "# Markdown渲染与XSS防护\n\n服务端渲染 Markdown 时必须对输出做白名单净化，goldmark 配合 bluemonday 是 Go 生态的常见组合。",
			excerpt: "goldmark 与 bluemonday 组合的服务端渲染方案。",
			status:  db.PostStatusPublished,
			tags:    []string{"Go", "安全"},
		},
		{
			title:   "写作计划（草稿）",
			content: "# 写作计划\n\n下半年打算写的主题清单，尚未完成。",
			excerpt: "",
			status:  db.PostStatusDraft,
			tags:    []string{"生活"},
		},
	}

	svc := service.NewPostService(db.DB)
	for _, p := range posts {
		if _, err := svc.Create(service.PostInput{
			Title:    p.title,
			Content:  p.content,
			Excerpt:  p.excerpt,
			Status:   p.status,
			TagNames: p.tags,
			AuthorID: admin.ID,
		}); err != nil {
			log.Printf("创建文章 %s 失败: %v", p.title, err)
		}
	}

	fmt.Println("✅ 测试文章创建完成")
}

// 创建测试评论
func createTestComments() {
	var count int64
	db.DB.Model(&db.Comment{}).Count(&count)
	if count > 0 {
		fmt.Println("评论已存在，跳过创建")
		return
	}

	var post db.Post
	if err := db.DB.Where("status = ?", db.PostStatusPublished).First(&post).Error; err != nil {
		log.Printf("未找到已发布文章: %v", err)
		return
	}

	svc := service.NewCommentService(db.DB)
	root, err := svc.Create(service.CommentInput{
		PostID:     post.ID,
		AuthorName: "热心读者",
		Content:    "写得很清楚，期待后续更新！",
	})
	if err != nil {
		log.Printf("创建评论失败: %v", err)
		return
	}
	if err := svc.Approve(root.ID); err != nil {
		log.Printf("批准评论失败: %v", err)
	}

	var admin db.User
	if err := db.DB.Where("username = ?", "admin").First(&admin).Error; err == nil {
		if _, err := svc.Create(service.CommentInput{
			PostID:   post.ID,
			ParentID: &root.ID,
			AuthorID: &admin.ID,
			Content:  "谢谢支持，下一篇在路上了。",
		}); err != nil {
			log.Printf("创建回复失败: %v", err)
		}
	}

	fmt.Println("✅ 测试评论创建完成")
}

// 创建最近一周的访问数据
func createTestVisits() {
	var count int64
	db.DB.Model(&db.DailyVisit{}).Count(&count)
	if count > 0 {
		fmt.Println("访问数据已存在，跳过创建")
		return
	}

	svc := service.NewCounterService(db.DB)
	now := time.Now()
	for day := 6; day >= 0; day-- {
		hits := 3 + day%4
		for i := 0; i < hits; i++ {
			if err := svc.IncrementVisit(now.AddDate(0, 0, -day)); err != nil {
				log.Printf("写入访问数据失败: %v", err)
				return
			}
		}
	}

	fmt.Println("✅ 测试访问数据创建完成")
}
