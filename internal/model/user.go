package model

import "time"

// User 结构体表示用户模型
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // 密码哈希不应在JSON中暴露
	AvatarURL    string    `json:"avatar_url"`
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserBasic 是嵌入在帖子和评论里的精简用户信息
type UserBasic struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// Basic 返回用户的精简信息
func (u *User) Basic() *UserBasic {
	return &UserBasic{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

// Profile 是渲染用户主页时的输出结构。
// 三个计数都是查询时从关系基数实时计算出来的，从不落库。
type Profile struct {
	ID             int    `json:"id"`
	Username       string `json:"username"`
	AvatarURL      string `json:"avatar_url"`
	Bio            string `json:"bio"`
	PostsCount     int    `json:"posts_count"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
}
