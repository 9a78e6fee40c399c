package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/tmdry4530/dom-vlog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrTitleRequired    = errors.New("post title is required")
	ErrContentRequired  = errors.New("post content is required")
	ErrInvalidStatus    = errors.New("invalid post status")
	ErrNotPostAuthor    = errors.New("caller is not the post author")
	ErrAuthorRequired   = errors.New("post author is required")
	errSlugConflictBusy = errors.New("could not allocate a unique slug")
)

const slugCreateAttempts = 3

// PostService wraps post related database operations and composes the
// full read model (author, tags, categories, SEO data) for a post.
type PostService struct {
	db         *gorm.DB
	tags       *TagService
	categories *CategoryService
	suggester  Suggester
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{
		db:         gdb,
		tags:       NewTagService(gdb),
		categories: NewCategoryService(gdb),
	}
}

// WithSuggester 注入内容建议引擎；为 nil 时创建文章不做 AI 补全。
func (s *PostService) WithSuggester(suggester Suggester) *PostService {
	s.suggester = suggester
	return s
}

// PostInput represents fields accepted when creating or updating a post.
// TagNames 为 nil 表示本次不改动标签，空切片表示清空全部标签关联。
type PostInput struct {
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	Status        string
	FeaturedImage string
	TagNames      []string
	AuthorID      uint
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Search       string
	Status       string
	TagSlug      string
	CategorySlug string
	AuthorID     uint
	Page         int
	PerPage      int
}

// PostListResult aggregates paginated list data.
type PostListResult struct {
	Posts      []db.Post
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// PostWithDetails 是单篇文章的完整读取模型。
type PostWithDetails struct {
	db.Post
	Seo *db.SeoData
}

// CategoryAssignment 描述文章与分类的一条关联。
type CategoryAssignment struct {
	CategoryID    uint
	Confidence    *float64
	IsAISuggested bool
}

// Get fetches a post by id with all relations populated.
func (s *PostService) Get(id uint) (*PostWithDetails, error) {
	return s.load(s.db.Where("posts.id = ?", id))
}

// GetBySlug fetches a post by slug with all relations populated.
func (s *PostService) GetBySlug(slug string) (*PostWithDetails, error) {
	return s.load(s.db.Where("posts.slug = ?", strings.TrimSpace(slug)))
}

// load 组装完整读取模型：文章本体与作者/标签/分类经由 Preload 取回，
// SEO 数据单独查询。文章不存在时返回 ErrPostNotFound，缺失 SEO 行不是错误。
func (s *PostService) load(query *gorm.DB) (*PostWithDetails, error) {
	var post db.Post
	if err := query.
		Preload("Author").
		Preload("Tags").
		Preload("Categories.Category").
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	details := &PostWithDetails{Post: post}

	var seo db.SeoData
	if err := s.db.Where("post_id = ?", post.ID).First(&seo).Error; err == nil {
		details.Seo = &seo
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return details, nil
}

// Create persists a post, resolves and links its tags, then best-effort
// enriches it with AI suggestions. Slug 未提供时由标题派生；与现有文章
// 冲突时追加随机后缀重试，而不是失败。
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrContentRequired
	}
	if input.AuthorID == 0 {
		return nil, ErrAuthorRequired
	}

	status, err := normalizeStatus(input.Status)
	if err != nil {
		return nil, err
	}

	base := Slugify(input.Slug)
	if base == "" {
		base = Slugify(title)
	}
	if base == "" {
		base = slugWithSuffix("post")
	}

	post := db.Post{
		Title:         title,
		Slug:          base,
		Content:       input.Content,
		Excerpt:       strings.TrimSpace(input.Excerpt),
		Status:        status,
		FeaturedImage: strings.TrimSpace(input.FeaturedImage),
		AuthorID:      input.AuthorID,
	}
	if status == db.PostStatusPublished {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}

	if err := s.createWithUniqueSlug(&post, base); err != nil {
		return nil, err
	}

	if input.TagNames != nil {
		if err := s.relinkTags(&post, input.TagNames); err != nil {
			return nil, err
		}
	}

	// AI 建议失败不影响文章创建
	if s.suggester != nil {
		if err := s.enrichWithSuggestions(&post); err != nil {
			log.Printf("post %d: AI enrichment skipped: %v", post.ID, err)
		}
	}

	if err := s.db.Preload("Author").Preload("Tags").Preload("Categories.Category").First(&post, post.ID).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) createWithUniqueSlug(post *db.Post, base string) error {
	for attempt := 0; attempt < slugCreateAttempts; attempt++ {
		err := s.db.Create(post).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		post.Slug = slugWithSuffix(base)
	}
	return errSlugConflictBusy
}

// Update applies updates to an existing post. Only the author may edit.
// 标题修改不会重新生成 slug，已发布文章的链接保持稳定。
func (s *PostService) Update(id uint, input PostInput, callerID uint) (*db.Post, error) {
	var existing db.Post
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if existing.AuthorID != callerID {
		return nil, ErrNotPostAuthor
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		existing.Title = title
	}
	if strings.TrimSpace(input.Content) != "" {
		existing.Content = input.Content
	}
	if excerpt := strings.TrimSpace(input.Excerpt); excerpt != "" {
		existing.Excerpt = excerpt
	}
	if image := strings.TrimSpace(input.FeaturedImage); image != "" {
		existing.FeaturedImage = image
	}

	if strings.TrimSpace(input.Status) != "" {
		status, err := normalizeStatus(input.Status)
		if err != nil {
			return nil, err
		}
		existing.Status = status
		// published_at 只在首次发布时写入一次
		if status == db.PostStatusPublished && existing.PublishedAt == nil {
			now := time.Now().UTC()
			existing.PublishedAt = &now
		}
	}

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, err
	}

	if input.TagNames != nil {
		if err := s.relinkTags(&existing, input.TagNames); err != nil {
			return nil, err
		}
	}

	if err := s.db.Preload("Author").Preload("Tags").Preload("Categories.Category").First(&existing, existing.ID).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// Delete removes a post and its dependent rows. Only the author may delete.
// sqlite 不保证级联删除，关联记录在同一事务里显式清理。
func (s *PostService) Delete(id uint, callerID uint) error {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if post.AuthorID != callerID {
		return ErrNotPostAuthor
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Unscoped().Where("post_id = ?", post.ID).Delete(&db.PostCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("post_id = ?", post.ID).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("post_id = ?", post.ID).Delete(&db.SeoData{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&post).Error
	})
}

// relinkTags 解析标签名并整体替换文章的标签关联。
// 空集合意味着移除所有标签；替换期间短暂的无标签窗口是可接受的。
func (s *PostService) relinkTags(post *db.Post, tagNames []string) error {
	tags, err := s.tags.ResolveNames(tagNames)
	if err != nil {
		return err
	}
	return s.db.Model(post).Association("Tags").Replace(tags)
}

// ReplaceCategories 整体替换文章的分类关联：先删后插，不做差量。
func (s *PostService) ReplaceCategories(postID uint, assignments []CategoryAssignment) error {
	if err := s.db.Unscoped().Where("post_id = ?", postID).Delete(&db.PostCategory{}).Error; err != nil {
		return err
	}

	for _, a := range assignments {
		link := db.PostCategory{
			PostID:        postID,
			CategoryID:    a.CategoryID,
			Confidence:    a.Confidence,
			IsAISuggested: a.IsAISuggested,
		}
		if err := s.db.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

// List provides paginated posts based on filters.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}
	if result.Page < 1 {
		result.Page = 1
	}

	countQuery := s.applyFilters(s.db.Model(&db.Post{}), filter)
	if err := countQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset, limit := PageRange(result.Page, result.PerPage)

	orderBy := "posts.created_at desc, posts.id desc"
	if filter.Status == db.PostStatusPublished {
		orderBy = "posts.published_at desc, posts.id desc"
	}

	var posts []db.Post
	dataQuery := s.applyFilters(
		s.db.Model(&db.Post{}).Preload("Author").Preload("Tags").Preload("Categories.Category"),
		filter,
	)
	if err := dataQuery.Order(orderBy).Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, err
	}

	result.Posts = posts
	result.TotalPages = TotalPages(result.Total, result.PerPage)
	return result, nil
}

// Related returns published posts sharing the most tags with the given post.
func (s *PostService) Related(postID uint, limit int) ([]db.Post, error) {
	if limit <= 0 {
		limit = 4
	}

	var posts []db.Post
	if err := s.db.Model(&db.Post{}).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id IN (?)",
			s.db.Table("post_tags").Select("tag_id").Where("post_id = ?", postID)).
		Where("posts.id <> ? AND posts.status = ?", postID, db.PostStatusPublished).
		Group("posts.id").
		Order("COUNT(post_tags.tag_id) desc, posts.published_at desc").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("(posts.title LIKE ? OR posts.content LIKE ? OR posts.excerpt LIKE ?)", search, search, search)
	}

	if filter.Status != "" {
		query = query.Where("posts.status = ?", filter.Status)
	}

	if filter.AuthorID != 0 {
		query = query.Where("posts.author_id = ?", filter.AuthorID)
	}

	if filter.TagSlug != "" {
		subQuery := s.db.Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.slug = ?", filter.TagSlug)
		query = query.Where("posts.id IN (?)", subQuery)
	}

	if filter.CategorySlug != "" {
		subQuery := s.db.Table("post_categories").
			Select("post_categories.post_id").
			Joins("JOIN categories ON categories.id = post_categories.category_id").
			Where("categories.slug = ? AND post_categories.deleted_at IS NULL", filter.CategorySlug)
		query = query.Where("posts.id IN (?)", subQuery)
	}

	return query
}

// enrichWithSuggestions 调用建议引擎补全标签、分类与 SEO 元数据。
// 任何失败只向上返回给调用方记录日志，不会影响文章主体。
func (s *PostService) enrichWithSuggestions(post *db.Post) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	candidates, err := s.categories.Names()
	if err != nil {
		return err
	}

	result, err := s.suggester.Suggest(ctx, SuggestInput{
		Title:      post.Title,
		Content:    post.Content,
		Categories: candidates,
	})
	if err != nil {
		return err
	}

	if post.Excerpt == "" && result.Summary != "" {
		if err := s.db.Model(post).Update("excerpt", result.Summary).Error; err != nil {
			return err
		}
		post.Excerpt = result.Summary
	}

	if len(result.Tags) > 0 {
		if err := s.appendTags(post, result.Tags); err != nil {
			return err
		}
	}

	if result.Category != "" {
		if err := s.linkSuggestedCategory(post.ID, result.Category, result.Confidence); err != nil {
			return err
		}
	}

	return s.upsertSeoData(post, result)
}

// appendTags 把建议标签并入现有关联，保留手工选择的标签。
func (s *PostService) appendTags(post *db.Post, names []string) error {
	suggested, err := s.tags.ResolveNames(names)
	if err != nil {
		return err
	}

	var current []db.Tag
	if err := s.db.Model(post).Association("Tags").Find(&current); err != nil {
		return err
	}

	known := make(map[uint]struct{}, len(current))
	for _, tag := range current {
		known[tag.ID] = struct{}{}
	}

	merged := current
	for _, tag := range suggested {
		if _, ok := known[tag.ID]; !ok {
			merged = append(merged, tag)
		}
	}

	return s.db.Model(post).Association("Tags").Replace(merged)
}

func (s *PostService) linkSuggestedCategory(postID uint, name string, confidence float64) error {
	category, err := s.categories.FindByName(name)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			// 模型给出的分类不在既有集合中，直接忽略
			return nil
		}
		return err
	}

	var existing db.PostCategory
	err = s.db.Where("post_id = ? AND category_id = ?", postID, category.ID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	link := db.PostCategory{
		PostID:        postID,
		CategoryID:    category.ID,
		IsAISuggested: true,
	}
	if confidence > 0 {
		link.Confidence = &confidence
	}
	return s.db.Create(&link).Error
}

func (s *PostService) upsertSeoData(post *db.Post, result SuggestResult) error {
	now := time.Now().UTC()
	seo := db.SeoData{
		PostID:          post.ID,
		MetaTitle:       post.Title,
		MetaDescription: result.Summary,
		Keywords:        strings.Join(result.Tags, ", "),
		WordCount:       len(strings.Fields(post.Content)),
		ReadingTime:     calculateReadingTime(post.Content),
		Processed:       true,
		ProcessedAt:     &now,
		AIModel:         defaultSuggestModel,
	}

	var existing db.SeoData
	err := s.db.Where("post_id = ?", post.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&seo).Error
	}
	if err != nil {
		return err
	}

	seo.ID = existing.ID
	seo.CreatedAt = existing.CreatedAt
	return s.db.Save(&seo).Error
}

func normalizeStatus(status string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == "" {
		return db.PostStatusDraft, nil
	}
	if !db.ValidPostStatus(normalized) {
		return "", ErrInvalidStatus
	}
	return normalized, nil
}

func calculateReadingTime(content string) int {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0
	}

	runes := []rune(trimmed)
	minutes := len(runes) / 400
	if len(runes)%400 != 0 {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
