package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tmdry4530/dom-vlog/internal/db"
	"github.com/tmdry4530/dom-vlog/internal/service"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// GetCategories 获取分类列表及文章数
func (a *API) GetCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取分类列表失败")
		return
	}

	response := make([]gin.H, 0, len(categories))
	for _, category := range categories {
		response = append(response, gin.H{
			"id":          category.ID,
			"name":        category.Name,
			"slug":        category.Slug,
			"description": category.Description,
			"color":       category.Color,
			"postCount":   category.PostCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{"categories": response})
}

// GetCategoryPosts 按分类 slug 返回该分类下的已发布文章
func (a *API) GetCategoryPosts(c *gin.Context) {
	category, err := a.categories.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "分类不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取分类失败")
		return
	}

	filter := service.PostFilter{
		Status:       db.PostStatusPublished,
		CategorySlug: category.Slug,
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
		"category": gin.H{
			"id":          category.ID,
			"name":        category.Name,
			"slug":        category.Slug,
			"description": category.Description,
		},
		"posts":      posts,
		"total":      result.Total,
		"totalPages": result.TotalPages,
		"page":       result.Page,
	})
}

// CreateCategory 创建新分类
func (a *API) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req, "分类名称不能为空") {
		return
	}

	category, err := a.categories.Create(req.Name, req.Description, req.Color)
	if err != nil {
		if errors.Is(err, service.ErrCategoryExists) {
			respondError(c, http.StatusBadRequest, "分类已存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "创建分类失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"category": gin.H{"id": category.ID, "name": category.Name, "slug": category.Slug},
	})
}

// DeleteCategory 删除分类及其文章关联
func (a *API) DeleteCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的分类ID")
		return
	}

	if err := a.categories.Delete(id); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "分类不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "删除分类失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "分类已删除"})
}
