package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/tmdry4530/dom-vlog/internal/config"
	"github.com/tmdry4530/dom-vlog/internal/handler"
	"github.com/tmdry4530/dom-vlog/internal/service"
	"gorm.io/gorm"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("domvlog_session", store))

	// 静态文件服务
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	a := handler.NewAPI(gdb, handler.Options{
		AISettings: service.AISettings{
			APIKey:  cfg.AIAPIKey,
			BaseURL: cfg.AIBaseURL,
			Model:   cfg.AIModel,
		},
		UploadDir: cfg.UploadDir,
		UploadURL: cfg.UploadURLPath,
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	{
		api.POST("/login", a.Login)
		api.POST("/logout", a.Logout)

		api.GET("/posts", a.ListPosts)
		api.GET("/posts/:slug", a.GetPost)
		api.GET("/posts/:slug/comments", a.ListComments)
		api.POST("/posts/:slug/comments", a.CreateComment)

		api.GET("/tags", a.GetTags)
		api.GET("/tags/:slug", a.GetTagPosts)

		api.GET("/categories", a.GetCategories)
		api.GET("/categories/:slug", a.GetCategoryPosts)

		// 需要认证的路由
		auth := api.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.POST("/posts", a.CreatePost)
			auth.PUT("/posts/:id", a.UpdatePost)
			auth.DELETE("/posts/:id", a.DeletePost)

			auth.PUT("/tags/:id", a.UpdateTag)
			auth.DELETE("/tags/:id", a.DeleteTag)

			auth.POST("/categories", a.CreateCategory)
			auth.DELETE("/categories/:id", a.DeleteCategory)

			auth.PUT("/comments/:id/approve", a.ApproveComment)

			auth.POST("/ai/suggestions", a.GetSuggestions)
			auth.POST("/ai/slug", a.GenerateSlug)

			auth.POST("/uploads", a.UploadImage)
			auth.GET("/stats", a.Stats)
		}
	}

	return r
}
