package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/tmdry4530/dom-vlog/internal/config"
	"github.com/tmdry4530/dom-vlog/internal/db"
	"github.com/tmdry4530/dom-vlog/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 确保初始管理员账号存在
	if err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatalf("failed to ensure root user: %v", err)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(db.DB, cfg)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
