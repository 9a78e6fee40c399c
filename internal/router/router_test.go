package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tmdry4530/dom-vlog/internal/config"
	"github.com/tmdry4530/dom-vlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Post{}, &db.Tag{}, &db.Category{},
		&db.PostCategory{}, &db.Comment{}, &db.DailyVisit{}, &db.SeoData{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	uploadDir := t.TempDir()
	cfg := config.AppConfig{
		SessionSecret: "test-secret",
		UploadDir:     uploadDir,
		UploadURLPath: "/static/uploads",
	}

	return SetupRouter(gdb, cfg), func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}

func TestRouterPing(t *testing.T) {
	r, cleanup := setupRouterTest(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestRouterServesStaticUploads(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-static-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	uploadDir := t.TempDir()
	content := []byte("hello uploads")
	if err := os.WriteFile(filepath.Join(uploadDir, "example.txt"), content, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	r := SetupRouter(gdb, config.AppConfig{
		SessionSecret: "test-secret",
		UploadDir:     uploadDir,
		UploadURLPath: "/static/uploads",
	})

	req := httptest.NewRequest(http.MethodGet, "/static/uploads/example.txt", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != string(content) {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestRouterProtectsAdminRoutes(t *testing.T) {
	r, cleanup := setupRouterTest(t)
	defer cleanup()

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/posts"},
		{http.MethodPut, "/api/posts/1"},
		{http.MethodDelete, "/api/posts/1"},
		{http.MethodPut, "/api/tags/1"},
		{http.MethodDelete, "/api/tags/1"},
		{http.MethodPost, "/api/categories"},
		{http.MethodDelete, "/api/categories/1"},
		{http.MethodPut, "/api/comments/1/approve"},
		{http.MethodPost, "/api/ai/suggestions"},
		{http.MethodPost, "/api/ai/slug"},
		{http.MethodPost, "/api/uploads"},
		{http.MethodGet, "/api/stats"},
	}

	for _, route := range protected {
		req := httptest.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status 401, got %d", route.method, route.path, w.Code)
		}
	}
}

func TestRouterPublicRoutesReachable(t *testing.T) {
	r, cleanup := setupRouterTest(t)
	defer cleanup()

	public := []string{"/api/posts", "/api/tags", "/api/categories"}
	for _, path := range public {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: expected status 200, got %d", path, w.Code)
		}
	}
}
