package mysql

import (
	"database/sql"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"go.uber.org/zap"
)

// userRepository 实现了 UserRepository 接口
type userRepository struct {
	db *sql.DB
}

// NewUserRepository 创建一个新的 userRepository 实例
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db}
}

// Create 创建一个新用户
func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (username, email, password_hash, avatar_url, bio, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, NOW(), NOW())`
	result, err := r.db.Exec(query, user.Username, user.Email, user.PasswordHash, user.AvatarURL, user.Bio)
	if err != nil {
		util.Logger.Error("创建用户失败", zap.Error(err))
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新用户ID失败", zap.Error(err))
		return err
	}
	user.ID = int(id)

	util.Logger.Info("用户创建成功", zap.Int("user_id", user.ID))
	return nil
}

// FindByID 通过ID查找用户
func (r *userRepository) FindByID(id int) (*model.User, error) {
	query := `SELECT id, username, email, password_hash, avatar_url, bio, created_at, updated_at
              FROM users WHERE id = ?`
	var user model.User
	err := r.db.QueryRow(query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.AvatarURL, &user.Bio, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail 通过邮箱查找用户
func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	query := `SELECT id, username, email, password_hash, avatar_url, bio, created_at, updated_at
              FROM users WHERE email = ?`
	var user model.User
	err := r.db.QueryRow(query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.AvatarURL, &user.Bio, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByUsername 通过用户名查找用户
func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	query := `SELECT id, username, email, password_hash, avatar_url, bio, created_at, updated_at
              FROM users WHERE username = ?`
	var user model.User
	err := r.db.QueryRow(query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.AvatarURL, &user.Bio, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Update 更新用户信息
func (r *userRepository) Update(user *model.User) error {
	_, err := r.db.Exec(`
		UPDATE users
		SET username = ?, email = ?, avatar_url = ?, bio = ?, updated_at = NOW()
		WHERE id = ?`,
		user.Username, user.Email, user.AvatarURL, user.Bio, user.ID)
	if err != nil {
		util.Logger.Error("更新用户失败", zap.Error(err), zap.Int("user_id", user.ID))
	}
	return err
}
