package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tmdry4530/dom-vlog/internal/service"
)

type suggestRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type slugRequest struct {
	Title string `json:"title" binding:"required"`
}

// GetSuggestions 调用 AI 为草稿生成标签、分类与摘要建议
func (a *API) GetSuggestions(c *gin.Context) {
	var req suggestRequest
	if !bindJSON(c, &req, "标题和内容不能为空") {
		return
	}

	candidates, err := a.categories.Names()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取分类失败")
		return
	}

	result, err := a.suggester.Suggest(c.Request.Context(), service.SuggestInput{
		Title:      req.Title,
		Content:    req.Content,
		Categories: candidates,
	})
	if err != nil {
		if errors.Is(err, service.ErrAIAPIKeyMissing) {
			respondError(c, http.StatusServiceUnavailable, "未配置 AI 接口")
			return
		}
		respondError(c, http.StatusBadGateway, "获取 AI 建议失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":           result.Summary,
		"suggestedTags":     result.Tags,
		"suggestedCategory": result.Category,
		"confidence":        result.Confidence,
	})
}

// GenerateSlug 调用 AI 根据标题生成 slug 建议
func (a *API) GenerateSlug(c *gin.Context) {
	var req slugRequest
	if !bindJSON(c, &req, "标题不能为空") {
		return
	}

	slug, err := a.suggester.GenerateSlug(c.Request.Context(), req.Title)
	if err != nil {
		if errors.Is(err, service.ErrAIAPIKeyMissing) {
			respondError(c, http.StatusServiceUnavailable, "未配置 AI 接口")
			return
		}
		respondError(c, http.StatusBadGateway, "生成 slug 失败")
		return
	}
	if slug == "" {
		slug = service.Slugify(req.Title)
	}

	c.JSON(http.StatusOK, gin.H{"slug": slug})
}
