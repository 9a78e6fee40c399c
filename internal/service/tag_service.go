package service

import (
	"errors"
	"strings"

	"github.com/tmdry4530/dom-vlog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrTagExists   = errors.New("tag already exists")
	ErrTagInUse    = errors.New("tag is associated with posts")
	ErrTagNotFound = errors.New("tag not found")
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// TagUsage 描述标签的使用次数
type TagUsage struct {
	ID    uint
	Name  string
	Slug  string
	Count int64
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// ResolveNames 将一组自由文本标签名解析为稳定的标签记录，缺失的标签会被创建。
// 名称做去空白与大小写不敏感去重；并发创建同名标签时由唯一约束裁决，
// 冲突方重查并复用胜出的一行，因此同名标签永远不会出现重复记录。
func (s *TagService) ResolveNames(names []string) ([]db.Tag, error) {
	resolved := make([]db.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		tag, err := s.resolveName(name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, *tag)
	}

	return resolved, nil
}

func (s *TagService) resolveName(name string) (*db.Tag, error) {
	var tag db.Tag
	err := s.db.Where("LOWER(name) = LOWER(?)", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	base := Slugify(name)
	if base == "" {
		base = "tag"
	}

	tag = db.Tag{Name: name, Slug: s.uniqueTagSlug(base)}
	for attempt := 0; attempt < slugCreateAttempts; attempt++ {
		createErr := s.db.Create(&tag).Error
		if createErr == nil {
			return &tag, nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, createErr
		}

		// 同名标签可能已被另一请求抢先创建，重查并复用胜出的一行
		var winner db.Tag
		requeryErr := s.db.Where("LOWER(name) = LOWER(?)", name).First(&winner).Error
		if requeryErr == nil {
			return &winner, nil
		}
		if !errors.Is(requeryErr, gorm.ErrRecordNotFound) {
			return nil, requeryErr
		}

		// 同名不存在，说明撞的是 slug：不同名称派生出了同一个 slug，换后缀重试
		tag.Slug = slugWithSuffix(base)
	}
	return nil, errSlugConflictBusy
}

// uniqueTagSlug 检查 base 是否已被占用，占用时追加随机后缀。
// 计数和插入之间仍有竞争窗口，最终由唯一约束兜底。
func (s *TagService) uniqueTagSlug(base string) string {
	var count int64
	if err := s.db.Model(&db.Tag{}).Where("slug = ?", base).Count(&count).Error; err != nil || count > 0 {
		return slugWithSuffix(base)
	}
	return base
}

// List returns tags with their usage counts, ordered by name.
func (s *TagService) List() ([]TagUsage, error) {
	var rows []TagUsage
	if err := s.db.Table("tags").
		Select("tags.id, tags.name, tags.slug, COUNT(DISTINCT post_tags.post_id) AS count").
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("tags.deleted_at IS NULL").
		Group("tags.id, tags.name, tags.slug").
		Order("tags.name asc").
		Order("tags.id asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetBySlug fetches a tag by slug.
func (s *TagService) GetBySlug(slug string) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.Where("slug = ?", strings.TrimSpace(slug)).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// Update changes the tag name while keeping uniqueness. The slug is not
// regenerated so existing tag archive links stay stable.
func (s *TagService) Update(id uint, name string) (*db.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("tag name is required")
	}

	var tag db.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}

	var existing db.Tag
	if err := s.db.Where("LOWER(name) = LOWER(?) AND id <> ?", name, id).First(&existing).Error; err == nil {
		return nil, ErrTagExists
	}

	tag.Name = name
	if err := s.db.Save(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTagExists
		}
		return nil, err
	}

	return &tag, nil
}

// Delete removes a tag if it is not associated with posts.
func (s *TagService) Delete(id uint) error {
	var tag db.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	count, err := s.postUsageCount(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrTagInUse
	}

	return s.db.Unscoped().Delete(&tag).Error
}

func (s *TagService) postUsageCount(id uint) (int64, error) {
	var count int64
	if err := s.db.Model(&db.Post{}).
		Joins("JOIN post_tags ON posts.id = post_tags.post_id").
		Where("post_tags.tag_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
