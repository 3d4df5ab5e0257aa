package model

import "time"

// Post 帖子模型。IsDeleted 为软删除标记：行保留，所有可见性查询排除。
type Post struct {
	ID           int        `json:"id"`
	UserID       int        `json:"user_id"`
	ImageURL     string     `json:"image_url"`
	Caption      string     `json:"caption"`
	IsDeleted    bool       `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	User         *UserBasic `json:"user,omitempty"`
	LikeCount    int        `json:"like_count"`
	CommentCount int        `json:"comment_count"`
	IsLiked      bool       `json:"is_liked"`
	// Comments 只在单帖详情中返回，列表视图省略
	Comments []*Comment `json:"comments,omitempty"`
}

type Comment struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	PostID    int        `json:"post_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	User      *UserBasic `json:"user,omitempty"`
}

type Like struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PostID    int       `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Follow struct {
	ID         int       `json:"id"`
	FollowerID int       `json:"follower_id"`
	FollowedID int       `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// PostStats 是聚合解析的结果：一批帖子的点赞数、评论数和当前用户的点赞状态
type PostStats struct {
	LikeCount    int
	CommentCount int
	IsLiked      bool
}
