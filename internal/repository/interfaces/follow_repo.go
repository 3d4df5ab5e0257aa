package interfaces

import "github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"

// FollowRepository 定义了关注关系的数据库操作接口
type FollowRepository interface {
	InsertFollow(followerID, followedID int) error
	DeleteFollow(followerID, followedID int) (bool, error)
	IsFollowing(followerID, followedID int) (bool, error)
	GetFollowers(userID, limit, offset int) ([]*model.User, error)
	CountFollowers(userID int) (int, error)
	GetFollowing(userID, limit, offset int) ([]*model.User, error)
	CountFollowing(userID int) (int, error)
}
