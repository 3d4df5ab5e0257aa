package user

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/service"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/storage"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileHandler 处理用户主页和资料维护
type ProfileHandler struct {
	userService service.UserServiceInterface
	feedService service.FeedServiceInterface
	storage     storage.Uploader
}

func NewProfileHandler(userService service.UserServiceInterface, feedService service.FeedServiceInterface, storage storage.Uploader) *ProfileHandler {
	return &ProfileHandler{
		userService: userService,
		feedService: feedService,
		storage:     storage,
	}
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=30,username"`
	Bio      string `json:"bio" binding:"omitempty,max=150"`
}

// GetMyProfile 当前用户主页：GET /me/
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")

	profile, err := h.feedService.GetProfile(userID.(int))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": profile,
	})
}

// GetUserProfile 指定用户主页：GET /users/:id/
func (h *ProfileHandler) GetUserProfile(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的用户ID"))
		return
	}

	profile, err := h.feedService.GetProfile(userID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": profile,
	})
}

// UpdateProfile 更新用户名或简介：PUT /me/
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的请求参数"))
		return
	}

	userID, _ := c.Get("user_id")
	user, err := h.userService.GetUserByID(userID.(int))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if err := h.userService.UpdateUser(user); err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": user,
	})
}

// UploadAvatar 上传头像：POST /me/avatar/
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "缺少头像文件"))
		return
	}

	userID, _ := c.Get("user_id")
	filename := util.GenerateUniqueFilename(file.Filename)
	path := fmt.Sprintf("avatars/%d/%s", userID.(int), filename)

	avatarURL, err := h.storage.UploadFile(file, path)
	if err != nil {
		util.Logger.Error("头像上传失败", zap.Error(err), zap.Int("user_id", userID.(int)))
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "头像上传失败", err))
		return
	}

	user, err := h.userService.GetUserByID(userID.(int))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	user.AvatarURL = avatarURL
	if err := h.userService.UpdateUser(user); err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"avatar_url": avatarURL},
	})
}
