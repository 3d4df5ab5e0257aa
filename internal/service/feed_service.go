package service

import (
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/repository/interfaces"
)

// FeedService 负责帖子列表的组装：可见性过滤加聚合计数。
// 所有计数都在查询时从关系基数推导，不存在落库的计数器。
type FeedService struct {
	postRepo   interfaces.PostRepository
	followRepo interfaces.FollowRepository
	userRepo   interfaces.UserRepository
}

func NewFeedService(postRepo interfaces.PostRepository, followRepo interfaces.FollowRepository, userRepo interfaces.UserRepository) *FeedService {
	return &FeedService{
		postRepo:   postRepo,
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// FeedServiceInterface 供处理器依赖，便于测试替换
type FeedServiceInterface interface {
	ListGlobal(viewerID int, filter interfaces.PostFilter, page, pageSize int) ([]*model.Post, int, bool, error)
	ListFollowing(viewerID, page, pageSize int) ([]*model.Post, int, bool, error)
	ListByAuthor(authorID, viewerID, page, pageSize int) ([]*model.Post, int, bool, error)
	GetPostDetail(postID int) (*model.Post, error)
	IsLikedBy(viewerID, postID int) (bool, error)
	ListComments(postID, page, pageSize int) ([]*model.Comment, int, bool, error)
	GetProfile(userID int) (*model.Profile, error)
}

var _ FeedServiceInterface = (*FeedService)(nil)

// ListGlobal 全局范围：全部未删除的帖子，可按作者过滤、按标题子串搜索
func (s *FeedService) ListGlobal(viewerID int, filter interfaces.PostFilter, page, pageSize int) ([]*model.Post, int, bool, error) {
	offset := (page - 1) * pageSize

	// 多取一条来判断是否还有下一页，避免扫描剩余全集
	posts, err := s.postRepo.ListGlobal(filter, pageSize+1, offset)
	if err != nil {
		return nil, 0, false, err
	}
	posts, hasMore := trimPage(posts, pageSize)

	total, err := s.postRepo.CountGlobal(filter)
	if err != nil {
		return nil, 0, false, err
	}

	if err := s.enrich(posts, viewerID); err != nil {
		return nil, 0, false, err
	}
	return posts, total, hasMore, nil
}

// ListFollowing 关注范围：当前用户关注的作者的帖子
func (s *FeedService) ListFollowing(viewerID, page, pageSize int) ([]*model.Post, int, bool, error) {
	offset := (page - 1) * pageSize

	posts, err := s.postRepo.ListByFollowed(viewerID, pageSize+1, offset)
	if err != nil {
		return nil, 0, false, err
	}
	posts, hasMore := trimPage(posts, pageSize)

	total, err := s.postRepo.CountByFollowed(viewerID)
	if err != nil {
		return nil, 0, false, err
	}

	if err := s.enrich(posts, viewerID); err != nil {
		return nil, 0, false, err
	}
	return posts, total, hasMore, nil
}

// ListByAuthor 单作者范围
func (s *FeedService) ListByAuthor(authorID, viewerID, page, pageSize int) ([]*model.Post, int, bool, error) {
	author, err := s.userRepo.FindByID(authorID)
	if err != nil {
		return nil, 0, false, err
	}
	if author == nil {
		return nil, 0, false, errors.New(errors.ErrUserNotFound, "用户不存在")
	}

	offset := (page - 1) * pageSize
	posts, err := s.postRepo.ListByAuthor(authorID, pageSize+1, offset)
	if err != nil {
		return nil, 0, false, err
	}
	posts, hasMore := trimPage(posts, pageSize)

	total, err := s.postRepo.CountByAuthor(authorID)
	if err != nil {
		return nil, 0, false, err
	}

	if err := s.enrich(posts, viewerID); err != nil {
		return nil, 0, false, err
	}
	return posts, total, hasMore, nil
}

// GetPostDetail 获取单帖详情，内嵌完整评论列表。
// 返回的是与查看者无关的部分，is_liked 由调用方单独解析。
func (s *FeedService) GetPostDetail(postID int) (*model.Post, error) {
	post, err := s.postRepo.GetPostByID(postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}

	likeCount, err := s.postRepo.GetLikeCount(postID)
	if err != nil {
		return nil, err
	}
	post.LikeCount = likeCount

	commentCount, err := s.postRepo.CountComments(postID)
	if err != nil {
		return nil, err
	}
	post.CommentCount = commentCount

	comments, err := s.postRepo.GetCommentsForPost(postID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*model.Comment{}
	}
	post.Comments = comments

	return post, nil
}

// IsLikedBy 解析查看者对单个帖子的点赞状态，未登录的查看者恒为 false
func (s *FeedService) IsLikedBy(viewerID, postID int) (bool, error) {
	if viewerID <= 0 {
		return false, nil
	}
	return s.postRepo.HasLiked(viewerID, postID)
}

// ListComments 分页获取帖子评论
func (s *FeedService) ListComments(postID, page, pageSize int) ([]*model.Comment, int, bool, error) {
	post, err := s.postRepo.GetPostByID(postID)
	if err != nil {
		return nil, 0, false, err
	}
	if post == nil {
		return nil, 0, false, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}

	offset := (page - 1) * pageSize
	comments, err := s.postRepo.ListComments(postID, pageSize+1, offset)
	if err != nil {
		return nil, 0, false, err
	}

	hasMore := false
	if len(comments) > pageSize {
		comments = comments[:pageSize]
		hasMore = true
	}

	total, err := s.postRepo.CountComments(postID)
	if err != nil {
		return nil, 0, false, err
	}
	return comments, total, hasMore, nil
}

// GetProfile 渲染用户主页，三个计数实时计算
func (s *FeedService) GetProfile(userID int) (*model.Profile, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}

	postsCount, err := s.postRepo.CountByAuthor(userID)
	if err != nil {
		return nil, err
	}
	followersCount, err := s.followRepo.CountFollowers(userID)
	if err != nil {
		return nil, err
	}
	followingCount, err := s.followRepo.CountFollowing(userID)
	if err != nil {
		return nil, err
	}

	return &model.Profile{
		ID:             user.ID,
		Username:       user.Username,
		AvatarURL:      user.AvatarURL,
		Bio:            user.Bio,
		PostsCount:     postsCount,
		FollowersCount: followersCount,
		FollowingCount: followingCount,
	}, nil
}

// enrich 为一页帖子批量填充点赞数、评论数和查看者的点赞状态。
// 三次批量查询，不随页大小增加往返次数。
func (s *FeedService) enrich(posts []*model.Post, viewerID int) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]int, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}

	likeCounts, err := s.postRepo.GetLikeCounts(ids)
	if err != nil {
		return err
	}
	commentCounts, err := s.postRepo.GetCommentCounts(ids)
	if err != nil {
		return err
	}

	liked := map[int]bool{}
	if viewerID > 0 {
		liked, err = s.postRepo.GetLikedSet(viewerID, ids)
		if err != nil {
			return err
		}
	}

	for _, post := range posts {
		post.LikeCount = likeCounts[post.ID]
		post.CommentCount = commentCounts[post.ID]
		post.IsLiked = liked[post.ID]
	}
	return nil
}

func trimPage(posts []*model.Post, pageSize int) ([]*model.Post, bool) {
	if len(posts) > pageSize {
		return posts[:pageSize], true
	}
	return posts, false
}
