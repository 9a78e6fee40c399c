package handler

import (
	"github.com/tmdry4530/dom-vlog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	posts      *service.PostService
	tags       *service.TagService
	categories *service.CategoryService
	comments   *service.CommentService
	counters   *service.CounterService
	suggester  *service.AISuggestService
	uploadDir  string
	uploadURL  string
}

// Options 配置 API 构造时的可选依赖。
type Options struct {
	AISettings service.AISettings
	UploadDir  string
	UploadURL  string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	suggester := service.NewAISuggestService(opts.AISettings)

	return &API{
		db:         gdb,
		posts:      service.NewPostService(gdb).WithSuggester(suggester),
		tags:       service.NewTagService(gdb),
		categories: service.NewCategoryService(gdb),
		comments:   service.NewCommentService(gdb),
		counters:   service.NewCounterService(gdb),
		suggester:  suggester,
		uploadDir:  opts.UploadDir,
		uploadURL:  opts.UploadURL,
	}
}

// DB exposes the underlying gorm instance for tests.
func (a *API) DB() *gorm.DB {
	return a.db
}
