package social

import (
	"net/http"
	"strconv"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/service"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CommentHandler 处理评论的增删查
type CommentHandler struct {
	feedService   service.FeedServiceInterface
	socialService service.SocialServiceInterface
}

func NewCommentHandler(feedService service.FeedServiceInterface, socialService service.SocialServiceInterface) *CommentHandler {
	return &CommentHandler{
		feedService:   feedService,
		socialService: socialService,
	}
}

// CreateCommentRequest 创建评论请求
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=500"`
}

// ListComments 评论列表：GET /posts/:id/comments/
func (h *CommentHandler) ListComments(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的帖子ID"))
		return
	}

	page, pageSize, perr := util.ParsePagination(c)
	if perr != nil {
		errors.HandleError(c, perr)
		return
	}

	comments, total, hasMore, err := h.feedService.ListComments(postID, page, pageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if comments == nil {
		comments = []*model.Comment{}
	}

	c.JSON(http.StatusOK, util.PageEnvelope(c, total, page, pageSize, hasMore, comments))
}

// CreateComment 创建评论：POST /posts/:id/comments/
func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的帖子ID"))
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的请求参数"))
		return
	}

	userID, _ := c.Get("user_id")
	comment := &model.Comment{
		PostID:  postID,
		UserID:  userID.(int),
		Content: req.Content,
	}
	if err := h.socialService.CreateComment(comment); err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err), zap.Int("post_id", postID))
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code": 201,
		"data": comment,
	})
}

// DeleteComment 删除评论：DELETE /posts/:id/comments/:commentId/
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, err := strconv.Atoi(c.Param("commentId"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的评论ID"))
		return
	}

	userID, _ := c.Get("user_id")
	if err := h.socialService.DeleteComment(commentID, userID.(int)); err != nil {
		errors.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
