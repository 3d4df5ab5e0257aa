package service

import (
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/cache"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/repository/interfaces"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"go.uber.org/zap"
)

// SocialService 承载所有写操作：关注/点赞切换、帖子和评论的创建删除，
// 以及每个变更必须触发的缓存失效。
//
// 切换操作的状态机只有 ABSENT 和 PRESENT 两个状态。应用层先查再改，
// 唯一约束是并发切换下的最终仲裁：约束拒绝时当作"对方请求已经改了状态"，
// 按当前状态返回，绝不报 500。
type SocialService struct {
	postRepo   interfaces.PostRepository
	followRepo interfaces.FollowRepository
	userRepo   interfaces.UserRepository
	feedCache  cache.Store
}

func NewSocialService(postRepo interfaces.PostRepository, followRepo interfaces.FollowRepository, userRepo interfaces.UserRepository, feedCache cache.Store) *SocialService {
	return &SocialService{
		postRepo:   postRepo,
		followRepo: followRepo,
		userRepo:   userRepo,
		feedCache:  feedCache,
	}
}

// SocialServiceInterface 供处理器依赖，便于测试替换
type SocialServiceInterface interface {
	ToggleFollow(followerID, targetID int) (bool, int, error)
	ToggleLike(userID, postID int) (bool, int, error)
	CreatePost(post *model.Post) error
	UpdatePost(postID, requesterID int, caption, imageURL string) (*model.Post, error)
	SoftDeletePost(postID, requesterID int) error
	CreateComment(comment *model.Comment) error
	DeleteComment(commentID, requesterID int) error
	GetFollowers(userID, page, pageSize int) ([]*model.User, int, bool, error)
	GetFollowing(userID, page, pageSize int) ([]*model.User, int, bool, error)
}

var _ SocialServiceInterface = (*SocialService)(nil)

// ToggleFollow 切换关注关系，返回切换后是否处于已关注状态和目标的最新粉丝数。
// 自关注在持久化之前就被拒绝，不依赖数据库约束。
func (s *SocialService) ToggleFollow(followerID, targetID int) (bool, int, error) {
	if followerID == targetID {
		return false, 0, errors.New(errors.ErrSelfFollow, "不能关注自己")
	}

	target, err := s.userRepo.FindByID(targetID)
	if err != nil {
		return false, 0, err
	}
	if target == nil {
		return false, 0, errors.New(errors.ErrUserNotFound, "用户不存在")
	}

	following, err := s.followRepo.IsFollowing(followerID, targetID)
	if err != nil {
		return false, 0, err
	}

	nowFollowing := !following
	if following {
		// 删到0行说明另一个请求先删掉了，结果一样：边已不存在
		if _, err := s.followRepo.DeleteFollow(followerID, targetID); err != nil {
			return false, 0, err
		}
	} else {
		if err := s.followRepo.InsertFollow(followerID, targetID); err != nil {
			if err != interfaces.ErrDuplicateEntry {
				return false, 0, err
			}
			// 输掉了竞争，边已经存在
			util.Logger.Info("关注插入遇到唯一约束，按已关注处理",
				zap.Int("follower_id", followerID), zap.Int("followed_id", targetID))
			nowFollowing = true
		}
	}

	count, err := s.followRepo.CountFollowers(targetID)
	if err != nil {
		return false, 0, err
	}
	return nowFollowing, count, nil
}

// ToggleLike 切换点赞，返回切换后的状态和最新点赞数。
// 软删除的帖子视为不存在。
func (s *SocialService) ToggleLike(userID, postID int) (bool, int, error) {
	post, err := s.postRepo.GetPostByID(postID)
	if err != nil {
		return false, 0, err
	}
	if post == nil {
		return false, 0, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}

	liked, err := s.postRepo.HasLiked(userID, postID)
	if err != nil {
		return false, 0, err
	}

	nowLiked := !liked
	if liked {
		if _, err := s.postRepo.DeleteLike(userID, postID); err != nil {
			return false, 0, err
		}
	} else {
		if err := s.postRepo.InsertLike(userID, postID); err != nil {
			if err != interfaces.ErrDuplicateEntry {
				return false, 0, err
			}
			// 另一个请求先点了赞，行已存在
			nowLiked = true
		}
	}

	count, err := s.postRepo.GetLikeCount(postID)
	if err != nil {
		return false, 0, err
	}
	return nowLiked, count, nil
}

// CreatePost 创建帖子。新ID不可能已被缓存，无需任何缓存操作。
func (s *SocialService) CreatePost(post *model.Post) error {
	return s.postRepo.CreatePost(post)
}

// UpdatePost 编辑帖子的标题或图片，仅限作者。
// 帖子行发生变更，必须同步驱逐单帖缓存键；列表键只靠TTL过期。
func (s *SocialService) UpdatePost(postID, requesterID int, caption, imageURL string) (*model.Post, error) {
	post, err := s.postRepo.GetPostByID(postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}
	if post.UserID != requesterID {
		return nil, errors.New(errors.ErrForbidden, "只有作者可以编辑帖子")
	}

	post.Caption = caption
	if imageURL != "" {
		post.ImageURL = imageURL
	}
	if err := s.postRepo.UpdatePost(post); err != nil {
		return nil, err
	}

	s.feedCache.Invalidate(cache.PostKey(postID))
	return post, nil
}

// SoftDeletePost 软删除帖子，仅限作者。点赞和评论保留。
// 单帖缓存键同步驱逐，防止缓存里的帖子在TTL内继续可见。
func (s *SocialService) SoftDeletePost(postID, requesterID int) error {
	post, err := s.postRepo.GetPostByID(postID)
	if err != nil {
		return err
	}
	if post == nil {
		return errors.New(errors.ErrPostNotFound, "帖子不存在")
	}
	if post.UserID != requesterID {
		return errors.New(errors.ErrForbidden, "只有作者可以删除帖子")
	}

	if err := s.postRepo.SoftDeletePost(postID); err != nil {
		return err
	}

	s.feedCache.Invalidate(cache.PostKey(postID))
	return nil
}

// CreateComment 在可见的帖子下创建评论
func (s *SocialService) CreateComment(comment *model.Comment) error {
	post, err := s.postRepo.GetPostByID(comment.PostID)
	if err != nil {
		return err
	}
	if post == nil {
		return errors.New(errors.ErrPostNotFound, "帖子不存在")
	}

	return s.postRepo.CreateComment(comment)
}

// DeleteComment 删除评论，仅限评论作者。
// 父帖的详情缓存里内嵌着评论列表，必须同步驱逐。
func (s *SocialService) DeleteComment(commentID, requesterID int) error {
	comment, err := s.postRepo.GetCommentByID(commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return errors.New(errors.ErrCommentNotFound, "评论不存在")
	}
	if comment.UserID != requesterID {
		return errors.New(errors.ErrForbidden, "只有评论作者可以删除评论")
	}

	if err := s.postRepo.DeleteComment(commentID); err != nil {
		return err
	}

	s.feedCache.Invalidate(cache.PostKey(comment.PostID))
	return nil
}

// GetFollowers 分页获取粉丝列表
func (s *SocialService) GetFollowers(userID, page, pageSize int) ([]*model.User, int, bool, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, 0, false, err
	}

	offset := (page - 1) * pageSize
	users, err := s.followRepo.GetFollowers(userID, pageSize+1, offset)
	if err != nil {
		return nil, 0, false, err
	}
	users, hasMore := trimUsers(users, pageSize)

	total, err := s.followRepo.CountFollowers(userID)
	if err != nil {
		return nil, 0, false, err
	}
	return users, total, hasMore, nil
}

// GetFollowing 分页获取关注列表
func (s *SocialService) GetFollowing(userID, page, pageSize int) ([]*model.User, int, bool, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, 0, false, err
	}

	offset := (page - 1) * pageSize
	users, err := s.followRepo.GetFollowing(userID, pageSize+1, offset)
	if err != nil {
		return nil, 0, false, err
	}
	users, hasMore := trimUsers(users, pageSize)

	total, err := s.followRepo.CountFollowing(userID)
	if err != nil {
		return nil, 0, false, err
	}
	return users, total, hasMore, nil
}

func (s *SocialService) requireUser(userID int) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return nil
}

func trimUsers(users []*model.User, pageSize int) ([]*model.User, bool) {
	if len(users) > pageSize {
		return users[:pageSize], true
	}
	return users, false
}
