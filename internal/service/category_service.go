package service

import (
	"errors"
	"strings"

	"github.com/tmdry4530/dom-vlog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
)

// CategoryService wraps category related operations.
type CategoryService struct {
	db *gorm.DB
}

// CategoryStat 描述分类及其关联的文章数。
type CategoryStat struct {
	ID          uint
	Name        string
	Slug        string
	Description string
	Color       string
	PostCount   int64
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List returns categories with their post counts, ordered by name.
func (s *CategoryService) List() ([]CategoryStat, error) {
	var rows []CategoryStat
	if err := s.db.Table("categories").
		Select("categories.id, categories.name, categories.slug, categories.description, categories.color, COUNT(DISTINCT post_categories.post_id) AS post_count").
		Joins("LEFT JOIN post_categories ON post_categories.category_id = categories.id AND post_categories.deleted_at IS NULL").
		Where("categories.deleted_at IS NULL").
		Group("categories.id, categories.name, categories.slug, categories.description, categories.color").
		Order("categories.name asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Names returns all category names, used as candidates for AI suggestions.
func (s *CategoryService) Names() ([]string, error) {
	var names []string
	if err := s.db.Model(&db.Category{}).
		Order("name asc").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// GetBySlug fetches a category by slug.
func (s *CategoryService) GetBySlug(slug string) (*db.Category, error) {
	var category db.Category
	if err := s.db.Where("slug = ?", strings.TrimSpace(slug)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// FindByName 按名称（不区分大小写）查找分类，未找到时返回 ErrCategoryNotFound。
func (s *CategoryService) FindByName(name string) (*db.Category, error) {
	var category db.Category
	if err := s.db.Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create inserts a new category with a slug derived from its name.
func (s *CategoryService) Create(name, description, color string) (*db.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("category name is required")
	}

	var existing db.Category
	if err := s.db.Where("LOWER(name) = LOWER(?)", name).First(&existing).Error; err == nil {
		return nil, ErrCategoryExists
	}

	slug := Slugify(name)
	if slug == "" {
		slug = slugWithSuffix("category")
	}

	category := db.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(description),
		Color:       strings.TrimSpace(color),
	}
	if err := s.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			category.Slug = slugWithSuffix(slug)
			if retryErr := s.db.Create(&category).Error; retryErr != nil {
				return nil, retryErr
			}
			return &category, nil
		}
		return nil, err
	}

	return &category, nil
}

// Delete removes a category and its post links.
func (s *CategoryService) Delete(id uint) error {
	var category db.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("category_id = ?", id).Delete(&db.PostCategory{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&category).Error
	})
}
