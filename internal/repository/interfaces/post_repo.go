package interfaces

import (
	"errors"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
)

// ErrDuplicateEntry 表示唯一约束拒绝了插入。
// 切换类操作把它当作"另一个请求已经改变了状态"，而不是致命错误。
var ErrDuplicateEntry = errors.New("duplicate entry")

// PostFilter 全局列表的可选过滤条件
type PostFilter struct {
	AuthorID int    // 大于0时只返回该作者的帖子
	Search   string // 标题子串匹配
}

// PostRepository 定义了帖子、点赞和评论的数据库操作接口。
// 所有列表和计数查询都无条件排除 is_deleted = TRUE 的帖子。
type PostRepository interface {
	CreatePost(post *model.Post) error
	GetPostByID(id int) (*model.Post, error)
	UpdatePost(post *model.Post) error
	SoftDeletePost(id int) error

	// 可见性查询：按 created_at DESC, id DESC 排序，调用方用 limit=pageSize+1 探测下一页
	ListGlobal(filter PostFilter, limit, offset int) ([]*model.Post, error)
	CountGlobal(filter PostFilter) (int, error)
	ListByFollowed(followerID, limit, offset int) ([]*model.Post, error)
	CountByFollowed(followerID int) (int, error)
	ListByAuthor(authorID, limit, offset int) ([]*model.Post, error)
	CountByAuthor(authorID int) (int, error)

	// 聚合查询：按ID集合一次批量取回，避免逐帖查询
	GetLikeCounts(postIDs []int) (map[int]int, error)
	GetCommentCounts(postIDs []int) (map[int]int, error)
	GetLikedSet(userID int, postIDs []int) (map[int]bool, error)

	InsertLike(userID, postID int) error
	DeleteLike(userID, postID int) (bool, error)
	HasLiked(userID, postID int) (bool, error)
	GetLikeCount(postID int) (int, error)

	CreateComment(comment *model.Comment) error
	GetCommentByID(id int) (*model.Comment, error)
	ListComments(postID, limit, offset int) ([]*model.Comment, error)
	CountComments(postID int) (int, error)
	GetCommentsForPost(postID int) ([]*model.Comment, error)
	DeleteComment(id int) error
}
