package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/config"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/service"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	config.AppConfig.JWTSecret = "test-secret"
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("username", util.ValidateUsername)
	}
	os.Exit(m.Run())
}

// MockUserService 是 UserServiceInterface 的模拟实现
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserService) Login(email, password string) (*model.User, error) {
	args := m.Called(email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Logout(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockUserService) GetUserByID(id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserService) IsTokenBlacklisted(token string) bool {
	args := m.Called(token)
	return args.Bool(0)
}

// 确保 MockUserService 实现了 UserServiceInterface
var _ service.UserServiceInterface = (*MockUserService)(nil)

// TestRegister 测试注册处理器
func TestRegister(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	router.POST("/register", handler.Register)

	// 模拟成功注册
	mockService.On("Register", mock.AnythingOfType("*model.User")).Return(nil).Once()

	body := []byte(`{"username": "testuser", "email": "test@example.com", "password": "StrongP@ssw0rd"}`)
	req, _ := http.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)

	// 模拟注册失败（用户名已存在）
	mockService.On("Register", mock.AnythingOfType("*model.User")).
		Return(errors.New(errors.ErrUserExists, "username already exists")).Once()

	req, _ = http.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	// 密码太短返回400
	shortBody := []byte(`{"username": "testuser", "email": "test@example.com", "password": "short"}`)
	req, _ = http.NewRequest("POST", "/register", bytes.NewBuffer(shortBody))
	req.Header.Set("Content-Type", "application/json")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestLogin 测试登录处理器
func TestLogin(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	router.POST("/login", handler.Login)

	// 模拟成功登录
	mockUser := &model.User{ID: 1, Email: "test@example.com"}
	mockService.On("Login", "test@example.com", "password123").Return(mockUser, nil)

	body := []byte(`{"email": "test@example.com", "password": "password123"}`)
	req, _ := http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Data map[string]interface{} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(t, response.Data, "token")
	mockService.AssertExpectations(t)

	// 模拟登录失败
	mockService.On("Login", "test@example.com", "wrongpassword").
		Return(nil, errors.New(errors.ErrInvalidCredentials, "邮箱或密码错误"))

	body = []byte(`{"email": "test@example.com", "password": "wrongpassword"}`)
	req, _ = http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestLogout 测试登出处理器
func TestLogout(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	router.POST("/logout", handler.Logout)

	mockService.On("Logout", "some-token").Return(nil)

	req, _ := http.NewRequest("POST", "/logout", nil)
	req.Header.Set("Authorization", "Bearer some-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// 缺少令牌返回401
	req, _ = http.NewRequest("POST", "/logout", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
