package service

import (
	"sync"
	"time"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/repository/interfaces"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService 处理与用户相关的业务逻辑。
// 核心只读取用户数据；注册登录是外围的增删改查管道。
type UserService struct {
	userRepo       interfaces.UserRepository
	tokenBlacklist map[string]time.Time
	blacklistMutex sync.RWMutex
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository) *UserService {
	return &UserService{
		userRepo:       userRepo,
		tokenBlacklist: make(map[string]time.Time),
	}
}

// UserServiceInterface 供处理器依赖，便于测试替换
type UserServiceInterface interface {
	Register(user *model.User) error
	Login(email, password string) (*model.User, error)
	Logout(token string) error
	GetUserByID(id int) (*model.User, error)
	UpdateUser(user *model.User) error
	IsTokenBlacklisted(token string) bool
}

var _ UserServiceInterface = (*UserService)(nil)

// Register 注册新用户
func (s *UserService) Register(user *model.User) error {
	existing, err := s.userRepo.FindByUsername(user.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New(errors.ErrUserExists, "username already exists")
	}

	existing, err = s.userRepo.FindByEmail(user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New(errors.ErrUserExists, "email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedPassword)

	return s.userRepo.Create(user)
}

// Login 用户登录
func (s *UserService) Login(email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrInvalidCredentials, "邮箱或密码错误")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Logger.Info("登录密码校验失败", zap.String("email", email))
		return nil, errors.New(errors.ErrInvalidCredentials, "邮箱或密码错误")
	}

	return user, nil
}

// Logout 将令牌加入黑名单，有效期与令牌一致
func (s *UserService) Logout(token string) error {
	s.blacklistMutex.Lock()
	defer s.blacklistMutex.Unlock()

	s.tokenBlacklist[token] = time.Now().Add(24 * time.Hour)

	// 顺手清理已过期的条目
	now := time.Now()
	for t, expiry := range s.tokenBlacklist {
		if expiry.Before(now) {
			delete(s.tokenBlacklist, t)
		}
	}
	return nil
}

// IsTokenBlacklisted 检查令牌是否已被撤销
func (s *UserService) IsTokenBlacklisted(token string) bool {
	s.blacklistMutex.RLock()
	defer s.blacklistMutex.RUnlock()

	expiry, ok := s.tokenBlacklist[token]
	return ok && expiry.After(time.Now())
}

// GetUserByID 获取用户信息
func (s *UserService) GetUserByID(id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return user, nil
}

// UpdateUser 更新用户资料
func (s *UserService) UpdateUser(user *model.User) error {
	existing, err := s.userRepo.FindByID(user.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return s.userRepo.Update(user)
}
