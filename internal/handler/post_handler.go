package handler

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tmdry4530/dom-vlog/internal/db"
	"github.com/tmdry4530/dom-vlog/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

type postRequest struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	Status        string   `json:"status"`
	FeaturedImage string   `json:"featuredImage"`
	Tags          []string `json:"tags"`
}

// ListPosts 返回分页的已发布文章列表，支持搜索与标签/分类过滤
func (a *API) ListPosts(c *gin.Context) {
	filter := service.PostFilter{
		Search:       strings.TrimSpace(c.Query("search")),
		Status:       db.PostStatusPublished,
		TagSlug:      strings.TrimSpace(c.Query("tag")),
		CategorySlug: strings.TrimSpace(c.Query("category")),
		Page:         parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage:      parsePositiveInt(c.DefaultQuery("perPage", "10"), 10),
	}

	result, err := a.posts.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取文章列表失败")
		return
	}

	posts := make([]gin.H, 0, len(result.Posts))
	for i := range result.Posts {
		posts = append(posts, postSummaryJSON(&result.Posts[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      posts,
		"total":      result.Total,
		"totalPages": result.TotalPages,
		"page":       result.Page,
		"perPage":    result.PerPage,
	})
}

// GetPost 按 slug 返回单篇文章的完整读取模型，并异步记录一次浏览
func (a *API) GetPost(c *gin.Context) {
	slug := c.Param("slug")

	post, err := a.posts.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "文章不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取文章失败")
		return
	}

	if !post.IsPublished() && post.AuthorID != currentUserID(c) {
		respondError(c, http.StatusNotFound, "文章不存在")
		return
	}

	// 计数失败不影响阅读
	if post.IsPublished() {
		postID := post.ID
		go func() {
			if err := a.counters.IncrementView(postID); err != nil {
				log.Printf("increment view for post %d: %v", postID, err)
			}
			if err := a.counters.IncrementVisit(time.Now()); err != nil {
				log.Printf("increment daily visit: %v", err)
			}
		}()
	}

	rendered, err := renderMarkdown(post.Content)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "渲染内容失败")
		return
	}

	related, err := a.posts.Related(post.ID, 4)
	if err != nil {
		related = nil
	}

	relatedJSON := make([]gin.H, 0, len(related))
	for i := range related {
		relatedJSON = append(relatedJSON, postSummaryJSON(&related[i]))
	}

	payload := postDetailJSON(post, rendered)
	payload["related"] = relatedJSON
	c.JSON(http.StatusOK, payload)
}

// CreatePost 创建新文章
func (a *API) CreatePost(c *gin.Context) {
	var req postRequest
	if !bindJSON(c, &req, "请求体格式错误") {
		return
	}

	input := service.PostInput{
		Title:         req.Title,
		Slug:          req.Slug,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Status:        req.Status,
		FeaturedImage: req.FeaturedImage,
		TagNames:      req.Tags,
		AuthorID:      currentUserID(c),
	}

	post, err := a.posts.Create(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTitleRequired):
			respondError(c, http.StatusBadRequest, "标题不能为空")
		case errors.Is(err, service.ErrContentRequired):
			respondError(c, http.StatusBadRequest, "内容不能为空")
		case errors.Is(err, service.ErrInvalidStatus):
			respondError(c, http.StatusBadRequest, "无效的文章状态")
		case errors.Is(err, service.ErrAuthorRequired):
			respondError(c, http.StatusUnauthorized, "需要登录")
		default:
			respondError(c, http.StatusInternalServerError, "创建文章失败")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": postSummaryJSON(post)})
}

// UpdatePost 更新文章，仅作者本人可操作
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	var req postRequest
	if !bindJSON(c, &req, "请求体格式错误") {
		return
	}

	input := service.PostInput{
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Status:        req.Status,
		FeaturedImage: req.FeaturedImage,
		TagNames:      req.Tags,
	}

	post, err := a.posts.Update(id, input, currentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "文章不存在")
		case errors.Is(err, service.ErrNotPostAuthor):
			respondError(c, http.StatusForbidden, "只有作者可以编辑文章")
		case errors.Is(err, service.ErrInvalidStatus):
			respondError(c, http.StatusBadRequest, "无效的文章状态")
		default:
			respondError(c, http.StatusInternalServerError, "更新文章失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": postSummaryJSON(post)})
}

// DeletePost 删除文章，仅作者本人可操作
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	if err := a.posts.Delete(id, currentUserID(c)); err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "文章不存在")
		case errors.Is(err, service.ErrNotPostAuthor):
			respondError(c, http.StatusForbidden, "只有作者可以删除文章")
		default:
			respondError(c, http.StatusInternalServerError, "删除文章失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "文章已删除"})
}

// Stats 返回计数器总览
func (a *API) Stats(c *gin.Context) {
	overview, err := a.counters.Overview()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取统计数据失败")
		return
	}

	days := parsePositiveInt(c.DefaultQuery("days", "30"), 30)
	visits, err := a.counters.VisitsSince(time.Now().AddDate(0, 0, -days))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取访问数据失败")
		return
	}

	visitsJSON := make([]gin.H, 0, len(visits))
	for _, v := range visits {
		visitsJSON = append(visitsJSON, gin.H{
			"date":  v.Date.Format("2006-01-02"),
			"count": v.Count,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"totalViews":  overview.TotalViews,
		"totalVisits": overview.TotalVisits,
		"postCount":   overview.PostCount,
		"visits":      visitsJSON,
	})
}

func renderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return string(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

func postSummaryJSON(post *db.Post) gin.H {
	tags := make([]gin.H, 0, len(post.Tags))
	for _, tag := range post.Tags {
		tags = append(tags, gin.H{"id": tag.ID, "name": tag.Name, "slug": tag.Slug})
	}

	categories := make([]gin.H, 0, len(post.Categories))
	for _, link := range post.Categories {
		categories = append(categories, gin.H{
			"id":            link.Category.ID,
			"name":          link.Category.Name,
			"slug":          link.Category.Slug,
			"isAiSuggested": link.IsAISuggested,
			"confidence":    link.Confidence,
		})
	}

	payload := gin.H{
		"id":            post.ID,
		"title":         post.Title,
		"slug":          post.Slug,
		"excerpt":       post.Excerpt,
		"status":        post.Status,
		"viewCount":     post.ViewCount,
		"featuredImage": post.FeaturedImage,
		"createdAt":     post.CreatedAt,
		"publishedAt":   post.PublishedAt,
		"tags":          tags,
		"categories":    categories,
	}
	if post.Author.ID != 0 {
		payload["author"] = gin.H{
			"id":          post.Author.ID,
			"username":    post.Author.Username,
			"displayName": post.Author.DisplayName,
			"avatar":      post.Author.Avatar,
		}
	}
	return payload
}

func postDetailJSON(post *service.PostWithDetails, rendered string) gin.H {
	payload := postSummaryJSON(&post.Post)
	payload["content"] = post.Content
	payload["contentHtml"] = rendered
	if post.Seo != nil {
		payload["seo"] = gin.H{
			"metaTitle":       post.Seo.MetaTitle,
			"metaDescription": post.Seo.MetaDescription,
			"keywords":        post.Seo.Keywords,
			"wordCount":       post.Seo.WordCount,
			"readingTime":     post.Seo.ReadingTime,
		}
	}
	return payload
}
