package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tmdry4530/dom-vlog/internal/service"
)

type commentRequest struct {
	ParentID    *uint  `json:"parentId"`
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
	Content     string `json:"content" binding:"required"`
}

// ListComments 返回文章的评论树
func (a *API) ListComments(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "文章不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取评论失败")
		return
	}

	tree, err := a.comments.ListTree(post.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取评论失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": commentNodesJSON(tree)})
}

// CreateComment 为文章创建一条评论，支持匿名与登录用户
func (a *API) CreateComment(c *gin.Context) {
	post, err := a.posts.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "文章不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "发表评论失败")
		return
	}

	var req commentRequest
	if !bindJSON(c, &req, "评论内容不能为空") {
		return
	}

	input := service.CommentInput{
		PostID:      post.ID,
		ParentID:    req.ParentID,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Content:     req.Content,
	}
	if userID := currentUserID(c); userID != 0 {
		input.AuthorID = &userID
	}

	comment, err := a.comments.Create(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCommentEmpty):
			respondError(c, http.StatusBadRequest, "评论内容不能为空")
		case errors.Is(err, service.ErrCommentAuthor):
			respondError(c, http.StatusBadRequest, "匿名评论需要填写昵称")
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "文章不存在")
		default:
			respondError(c, http.StatusInternalServerError, "发表评论失败")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"comment": gin.H{
			"id":        comment.ID,
			"parentId":  comment.ParentID,
			"content":   comment.Content,
			"author":    comment.DisplayName(),
			"approved":  comment.Approved,
			"createdAt": comment.CreatedAt,
		},
	})
}

// ApproveComment 将评论标记为已批准
func (a *API) ApproveComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的评论ID")
		return
	}

	if err := a.comments.Approve(id); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			respondError(c, http.StatusNotFound, "评论不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "审核评论失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "评论已批准"})
}

func commentNodesJSON(nodes []*service.CommentNode) []gin.H {
	result := make([]gin.H, 0, len(nodes))
	for _, node := range nodes {
		result = append(result, gin.H{
			"id":        node.ID,
			"parentId":  node.ParentID,
			"content":   node.Content,
			"author":    node.DisplayName(),
			"createdAt": node.CreatedAt,
			"replies":   commentNodesJSON(node.Children),
		})
	}
	return result
}
