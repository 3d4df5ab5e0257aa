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

// FollowHandler 处理关注关系的切换和查询
type FollowHandler struct {
	socialService service.SocialServiceInterface
}

func NewFollowHandler(socialService service.SocialServiceInterface) *FollowHandler {
	return &FollowHandler{socialService: socialService}
}

// FollowToggle 关注切换：POST /users/:id/follow/
func (h *FollowHandler) FollowToggle(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的用户ID"))
		return
	}

	userID, _ := c.Get("user_id")
	following, followerCount, err := h.socialService.ToggleFollow(userID.(int), targetID)
	if err != nil {
		util.Logger.Warn("关注切换失败",
			zap.Int("follower_id", userID.(int)),
			zap.Int("target_id", targetID),
			zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"is_following":   following,
			"follower_count": followerCount,
		},
	})
}

// GetFollowers 粉丝列表：GET /users/:id/followers/
func (h *FollowHandler) GetFollowers(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的用户ID"))
		return
	}

	page, pageSize, perr := util.ParsePagination(c)
	if perr != nil {
		errors.HandleError(c, perr)
		return
	}

	users, total, hasMore, err := h.socialService.GetFollowers(userID, page, pageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, util.PageEnvelope(c, total, page, pageSize, hasMore, toBasics(users)))
}

// GetFollowing 关注列表：GET /users/:id/following/
func (h *FollowHandler) GetFollowing(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的用户ID"))
		return
	}

	page, pageSize, perr := util.ParsePagination(c)
	if perr != nil {
		errors.HandleError(c, perr)
		return
	}

	users, total, hasMore, err := h.socialService.GetFollowing(userID, page, pageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, util.PageEnvelope(c, total, page, pageSize, hasMore, toBasics(users)))
}

func toBasics(users []*model.User) []*model.UserBasic {
	basics := make([]*model.UserBasic, 0, len(users))
	for _, u := range users {
		basics = append(basics, u.Basic())
	}
	return basics
}
