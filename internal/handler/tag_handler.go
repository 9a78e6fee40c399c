package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tmdry4530/dom-vlog/internal/db"
	"github.com/tmdry4530/dom-vlog/internal/service"
)

type tagRequest struct {
	Name string `json:"name" binding:"required"`
}

// GetTags 获取标签列表及使用次数
func (a *API) GetTags(c *gin.Context) {
	tags, err := a.tags.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取标签列表失败")
		return
	}

	response := make([]gin.H, 0, len(tags))
	for _, tag := range tags {
		response = append(response, gin.H{
			"id":    tag.ID,
			"name":  tag.Name,
			"slug":  tag.Slug,
			"count": tag.Count,
		})
	}

	c.JSON(http.StatusOK, gin.H{"tags": response})
}

// GetTagPosts 按标签 slug 返回该标签下的已发布文章
func (a *API) GetTagPosts(c *gin.Context) {
	tag, err := a.tags.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			respondError(c, http.StatusNotFound, "标签不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取标签失败")
		return
	}

	filter := service.PostFilter{
		Status:  db.PostStatusPublished,
		TagSlug: tag.Slug,
		Page:    parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage: parsePositiveInt(c.DefaultQuery("perPage", "10"), 10),
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
		"tag":        gin.H{"id": tag.ID, "name": tag.Name, "slug": tag.Slug},
		"posts":      posts,
		"total":      result.Total,
		"totalPages": result.TotalPages,
		"page":       result.Page,
	})
}

// UpdateTag 更新标签
func (a *API) UpdateTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的标签ID")
		return
	}

	var req tagRequest
	if !bindJSON(c, &req, "标签名称不能为空") {
		return
	}

	tag, err := a.tags.Update(id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagExists):
			respondError(c, http.StatusBadRequest, "标签名已存在")
		case errors.Is(err, service.ErrTagNotFound):
			respondError(c, http.StatusNotFound, "标签不存在")
		default:
			respondError(c, http.StatusInternalServerError, "更新标签失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"tag": gin.H{"id": tag.ID, "name": tag.Name, "slug": tag.Slug}})
}

// DeleteTag 删除未被使用的标签
func (a *API) DeleteTag(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的标签ID")
		return
	}

	if err := a.tags.Delete(id); err != nil {
		switch {
		case errors.Is(err, service.ErrTagNotFound):
			respondError(c, http.StatusNotFound, "标签不存在")
		case errors.Is(err, service.ErrTagInUse):
			respondError(c, http.StatusBadRequest, "标签仍被文章使用")
		default:
			respondError(c, http.StatusInternalServerError, "删除标签失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "标签已删除"})
}
