package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func setupTaxonomyTestRouter(t *testing.T, api *API) *gin.Engine {
	t.Helper()

	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("domvlog_session", store))
	r.POST("/api/login", api.Login)
	r.GET("/api/tags", api.GetTags)
	r.GET("/api/tags/:slug", api.GetTagPosts)
	r.GET("/api/categories", api.GetCategories)
	r.GET("/api/categories/:slug", api.GetCategoryPosts)

	auth := r.Group("/api")
	auth.Use(AuthRequired())
	auth.POST("/posts", api.CreatePost)
	auth.PUT("/tags/:id", api.UpdateTag)
	auth.DELETE("/tags/:id", api.DeleteTag)
	auth.POST("/categories", api.CreateCategory)
	auth.DELETE("/categories/:id", api.DeleteCategory)
	return r
}

func TestTagListAndPosts(t *testing.T) {
	api, cleanup := newTestAPI(t, "")
	defer cleanup()

	r := setupTaxonomyTestRouter(t, api)
	cookies := loginCookies(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/posts", map[string]interface{}{
		"title":   "Tagged Post",
		"content": "body",
		"status":  "published",
		"tags":    []string{"golang", "web"},
	}, cookies)
	if w.Code != http.StatusCreated {
		t.Fatalf("create post failed: %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/tags", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	tags := decodeJSON(t, w)["tags"].([]interface{})
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	first := tags[0].(map[string]interface{})
	if first["count"].(float64) != 1 {
		t.Fatalf("expected usage count 1, got %v", first["count"])
	}

	w = doJSON(t, r, http.MethodGet, "/api/tags/golang", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	payload := decodeJSON(t, w)
	if total, _ := payload["total"].(float64); total != 1 {
		t.Fatalf("expected 1 post under tag, got %v", payload["total"])
	}

	w = doJSON(t, r, http.MethodGet, "/api/tags/missing", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestTagDeleteInUse(t *testing.T) {
	api, cleanup := newTestAPI(t, "")
	defer cleanup()

	r := setupTaxonomyTestRouter(t, api)
	cookies := loginCookies(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/posts", map[string]interface{}{
		"title":   "Holder",
		"content": "body",
		"tags":    []string{"sticky"},
	}, cookies)
	if w.Code != http.StatusCreated {
		t.Fatalf("create post failed: %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/tags", nil, nil)
	tags := decodeJSON(t, w)["tags"].([]interface{})
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(tags))
	}
	tagID := int(tags[0].(map[string]interface{})["id"].(float64))

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/tags/%d", tagID), nil, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for tag in use, got %d", w.Code)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	api, cleanup := newTestAPI(t, "")
	defer cleanup()

	r := setupTaxonomyTestRouter(t, api)
	cookies := loginCookies(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/categories", map[string]string{
		"name":        "Engineering",
		"description": "tech posts",
	}, cookies)
	if w.Code != http.StatusCreated {
		t.Fatalf("create category failed: %d: %s", w.Code, w.Body.String())
	}
	created := decodeJSON(t, w)["category"].(map[string]interface{})
	if created["slug"] != "engineering" {
		t.Fatalf("unexpected slug %v", created["slug"])
	}

	// 重名分类被拒绝
	w = doJSON(t, r, http.MethodPost, "/api/categories", map[string]string{"name": "engineering"}, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for duplicate, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/categories", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	categories := decodeJSON(t, w)["categories"].([]interface{})
	if len(categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(categories))
	}

	w = doJSON(t, r, http.MethodGet, "/api/categories/engineering", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/categories/missing", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
