package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/tmdry4530/dom-vlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCategoryServiceTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:category-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Post{}, &db.Category{}, &db.PostCategory{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}

func TestCategoryCreateAndLookup(t *testing.T) {
	gdb, cleanup := setupCategoryServiceTestDB(t)
	defer cleanup()

	svc := NewCategoryService(gdb)
	category, err := svc.Create("Web Development", "all things web", "#336699")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if category.Slug != "web-development" {
		t.Fatalf("expected derived slug, got %q", category.Slug)
	}

	found, err := svc.GetBySlug("web-development")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if found.ID != category.ID {
		t.Fatalf("expected same category, got %d and %d", found.ID, category.ID)
	}

	byName, err := svc.FindByName("web development")
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if byName.ID != category.ID {
		t.Fatalf("expected case-insensitive name lookup to match")
	}
}

func TestCategoryCreateDuplicateName(t *testing.T) {
	gdb, cleanup := setupCategoryServiceTestDB(t)
	defer cleanup()

	svc := NewCategoryService(gdb)
	if _, err := svc.Create("Life", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create("life", "", ""); err != ErrCategoryExists {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}
}

func TestCategoryListCounts(t *testing.T) {
	gdb, cleanup := setupCategoryServiceTestDB(t)
	defer cleanup()

	svc := NewCategoryService(gdb)
	engineering, err := svc.Create("Engineering", "", "")
	if err != nil {
		t.Fatalf("create engineering: %v", err)
	}
	if _, err := svc.Create("Art", "", ""); err != nil {
		t.Fatalf("create art: %v", err)
	}

	post := db.Post{Title: "p", Slug: "p", Content: "c", AuthorID: 1}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	link := db.PostCategory{PostID: post.ID, CategoryID: engineering.ID}
	if err := gdb.Create(&link).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	stats, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(stats))
	}
	// 按名称排序：Art 在前
	if stats[0].Name != "Art" || stats[0].PostCount != 0 {
		t.Fatalf("unexpected first row %+v", stats[0])
	}
	if stats[1].Name != "Engineering" || stats[1].PostCount != 1 {
		t.Fatalf("unexpected second row %+v", stats[1])
	}
}

func TestCategoryDeleteRemovesLinks(t *testing.T) {
	gdb, cleanup := setupCategoryServiceTestDB(t)
	defer cleanup()

	svc := NewCategoryService(gdb)
	category, err := svc.Create("Doomed", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	post := db.Post{Title: "p", Slug: "p", Content: "c", AuthorID: 1}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	link := db.PostCategory{PostID: post.ID, CategoryID: category.ID}
	if err := gdb.Create(&link).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	if err := svc.Delete(category.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.GetBySlug("doomed"); err != ErrCategoryNotFound {
		t.Fatalf("expected category gone, got %v", err)
	}
	var linkCount int64
	if err := gdb.Model(&db.PostCategory{}).Where("category_id = ?", category.ID).Count(&linkCount).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}
	if linkCount != 0 {
		t.Fatalf("expected links removed, got %d", linkCount)
	}

	if err := svc.Delete(9999); err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}
