package mysql

import (
	"database/sql"
	"strings"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/repository/interfaces"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"go.uber.org/zap"
)

type followRepository struct {
	db *sql.DB
}

func NewFollowRepository(db *sql.DB) *followRepository {
	return &followRepository{db: db}
}

func (r *followRepository) InsertFollow(followerID, followedID int) error {
	query := `INSERT INTO follows (follower_id, followed_id, created_at) VALUES (?, ?, NOW())`
	_, err := r.db.Exec(query, followerID, followedID)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return interfaces.ErrDuplicateEntry
		}
		util.Logger.Error("创建关注失败", zap.Error(err),
			zap.Int("follower_id", followerID), zap.Int("followed_id", followedID))
		return err
	}

	util.Logger.Info("关注创建成功",
		zap.Int("follower_id", followerID), zap.Int("followed_id", followedID))
	return nil
}

func (r *followRepository) DeleteFollow(followerID, followedID int) (bool, error) {
	result, err := r.db.Exec(
		`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	)
	if err != nil {
		util.Logger.Error("删除关注失败", zap.Error(err))
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *followRepository) IsFollowing(followerID, followedID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
        SELECT EXISTS(
            SELECT 1 FROM follows
            WHERE follower_id = ? AND followed_id = ?
        )`, followerID, followedID).Scan(&exists)
	return exists, err
}

func (r *followRepository) GetFollowers(userID, limit, offset int) ([]*model.User, error) {
	query := `
        SELECT u.id, u.username, u.email, u.avatar_url, u.bio
        FROM users u
        JOIN follows f ON u.id = f.follower_id
        WHERE f.followed_id = ?
        ORDER BY f.created_at DESC, f.id DESC
        LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		util.Logger.Error("获取关注者列表失败", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	return r.scanUsers(rows)
}

func (r *followRepository) CountFollowers(userID int) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM follows WHERE followed_id = ?`, userID).Scan(&count)
	return count, err
}

func (r *followRepository) GetFollowing(userID, limit, offset int) ([]*model.User, error) {
	query := `
        SELECT u.id, u.username, u.email, u.avatar_url, u.bio
        FROM users u
        JOIN follows f ON u.id = f.followed_id
        WHERE f.follower_id = ?
        ORDER BY f.created_at DESC, f.id DESC
        LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		util.Logger.Error("获取关注列表失败", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	return r.scanUsers(rows)
}

func (r *followRepository) CountFollowing(userID int) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM follows WHERE follower_id = ?`, userID).Scan(&count)
	return count, err
}

func (r *followRepository) scanUsers(rows *sql.Rows) ([]*model.User, error) {
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.AvatarURL, &user.Bio)
		if err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}
