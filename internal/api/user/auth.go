package user

import (
	"net/http"
	"strings"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/service"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 处理注册、登录和登出
type AuthHandler struct {
	userService service.UserServiceInterface
}

func NewAuthHandler(userService service.UserServiceInterface) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30,username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 注册新用户：POST /register/
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的请求参数"))
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: req.Password, // 服务层负责散列
	}
	if err := h.userService.Register(user); err != nil {
		util.Logger.Warn("注册失败", zap.String("email", req.Email), zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	token, err := util.GenerateToken(user.ID)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "生成令牌失败", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code": 201,
		"data": gin.H{
			"token": token,
			"user":  user,
		},
	})
}

// Login 用户登录：POST /login/
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的请求参数"))
		return
	}

	user, err := h.userService.Login(req.Email, req.Password)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	token, err := util.GenerateToken(user.ID)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "生成令牌失败", err))
		return
	}

	util.Logger.Info("用户登录成功", zap.Int("user_id", user.ID))
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"token": token,
			"user":  user,
		},
	})
}

// Logout 登出，撤销当前令牌：POST /logout/
func (h *AuthHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" || token == authHeader {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "缺少有效的认证令牌"))
		return
	}

	if err := h.userService.Logout(token); err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, nil, "登出成功")
}
