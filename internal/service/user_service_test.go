package service

import (
	"os"
	"testing"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	os.Exit(m.Run())
}

// MockUserRepository 是 UserRepository 接口的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(username string) (*model.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

// TestRegister 测试用户注册功能
func TestRegister(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)

	user := &model.User{
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "password123",
	}

	// 测试成功注册
	mockRepo.On("FindByUsername", "testuser").Return(nil, nil)
	mockRepo.On("FindByEmail", "test@example.com").Return(nil, nil)
	mockRepo.On("Create", mock.AnythingOfType("*model.User")).Return(nil)

	err := service.Register(user)
	assert.NoError(t, err)
	assert.NotEqual(t, "password123", user.PasswordHash, "密码应当被散列")
	mockRepo.AssertExpectations(t)

	// 测试用户名已存在
	mockRepo.On("FindByUsername", "existinguser").Return(&model.User{}, nil)
	user.Username = "existinguser"
	err = service.Register(user)
	assert.Error(t, err)
}

// TestLogin 测试登录功能
func TestLogin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	mockUser := &model.User{ID: 1, Email: "test@example.com", PasswordHash: string(hashed)}

	// 测试成功登录
	mockRepo.On("FindByEmail", "test@example.com").Return(mockUser, nil)
	user, err := service.Login("test@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, 1, user.ID)

	// 测试密码错误
	_, err = service.Login("test@example.com", "wrongpassword")
	assert.Error(t, err)

	// 测试用户不存在
	mockRepo.On("FindByEmail", "nobody@example.com").Return(nil, nil)
	_, err = service.Login("nobody@example.com", "password123")
	assert.Error(t, err)
}

// TestLogout 测试登出后令牌被撤销
func TestLogout(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)

	assert.False(t, service.IsTokenBlacklisted("some-token"))

	err := service.Logout("some-token")
	assert.NoError(t, err)
	assert.True(t, service.IsTokenBlacklisted("some-token"))
	assert.False(t, service.IsTokenBlacklisted("other-token"))
}

// TestUpdateProfile 测试更新用户资料功能
func TestUpdateProfile(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)

	user := &model.User{
		ID:       1,
		Username: "updateduser",
		Bio:      "Updated bio",
	}

	// 测试成功更新
	mockRepo.On("FindByID", 1).Return(user, nil)
	mockRepo.On("Update", mock.AnythingOfType("*model.User")).Return(nil)

	err := service.UpdateUser(user)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// 测试用户不存在
	mockRepo.On("FindByID", 999).Return(nil, nil)
	user.ID = 999
	err = service.UpdateUser(user)
	assert.Error(t, err)
}
