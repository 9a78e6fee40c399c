package service

import (
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tmdry4530/dom-vlog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrCommentEmpty    = errors.New("comment content is required")
	ErrCommentAuthor   = errors.New("comment requires an author or a name")
)

var commentSanitizer = bluemonday.StrictPolicy()

// CommentService 负责评论的写入与评论树的重建。
type CommentService struct {
	db *gorm.DB
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// CommentNode 包装一条评论及其按时间排序的子回复。
type CommentNode struct {
	db.Comment
	Children []*CommentNode
}

// CommentInput represents fields accepted when creating a comment.
type CommentInput struct {
	PostID      uint
	ParentID    *uint
	AuthorID    *uint
	AuthorName  string
	AuthorEmail string
	Content     string
}

// Create 持久化一条评论。声明的父评论必须存在且属于同一篇文章，
// 否则该评论退化为顶层评论，而不是写入失败。
func (s *CommentService) Create(input CommentInput) (*db.Comment, error) {
	content := strings.TrimSpace(commentSanitizer.Sanitize(input.Content))
	if content == "" {
		return nil, ErrCommentEmpty
	}
	if input.AuthorID == nil && strings.TrimSpace(input.AuthorName) == "" {
		return nil, ErrCommentAuthor
	}

	var post db.Post
	if err := s.db.Select("id").First(&post, input.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	parentID := input.ParentID
	if parentID != nil {
		var parent db.Comment
		err := s.db.Select("id, post_id").First(&parent, *parentID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 悬空的父引用：按顶层评论处理
			parentID = nil
		case err != nil:
			return nil, err
		case parent.PostID != input.PostID:
			// 跨文章的父引用同样降级为顶层评论
			parentID = nil
		}
	}

	comment := db.Comment{
		PostID:      input.PostID,
		ParentID:    parentID,
		AuthorID:    input.AuthorID,
		AuthorName:  strings.TrimSpace(input.AuthorName),
		AuthorEmail: strings.TrimSpace(input.AuthorEmail),
		Content:     content,
		// 登录用户的评论直接过审，匿名评论等待人工批准
		Approved: input.AuthorID != nil,
	}

	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Approve 将评论标记为已批准。
func (s *CommentService) Approve(id uint) error {
	result := s.db.Model(&db.Comment{}).Where("id = ?", id).Update("approved", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// ListTree 返回文章的已批准评论，重建为嵌套的回复树。
func (s *CommentService) ListTree(postID uint) ([]*CommentNode, error) {
	var comments []db.Comment
	if err := s.db.Preload("Author").
		Where("post_id = ? AND approved = ?", postID, true).
		Order("created_at asc").
		Order("id asc").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return BuildCommentTree(comments), nil
}

// BuildCommentTree 将平铺的、以 parent_id 自引用的评论列表重建为评论树。
// 输入应当已按 created_at 升序排好，子回复保持这一顺序。
//
// 每条评论只会被放置一次，且只能挂到输入中先于自己出现的父评论上，
// 因此即便底层数据损坏（父引用悬空、跨文章甚至成环），结果也必然无环：
// 无法归位的评论一律提升为顶层评论，而不是被丢弃。
func BuildCommentTree(comments []db.Comment) []*CommentNode {
	nodes := make([]*CommentNode, len(comments))
	index := make(map[uint]int, len(comments))
	for i := range comments {
		nodes[i] = &CommentNode{Comment: comments[i]}
		index[comments[i].ID] = i
	}

	roots := make([]*CommentNode, 0, len(comments))
	for i, node := range nodes {
		if node.ParentID != nil {
			if j, ok := index[*node.ParentID]; ok && j < i {
				nodes[j].Children = append(nodes[j].Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots
}
