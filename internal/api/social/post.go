package social

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/cache"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/repository/interfaces"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/service"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/storage"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxCaptionLength = 2200

// PostHandler 处理帖子的读写请求。
// 列表和详情走读穿缓存；写操作绕过缓存直达存储，再触发必要的键驱逐。
type PostHandler struct {
	feedService   service.FeedServiceInterface
	socialService service.SocialServiceInterface
	feedCache     cache.Store
	storage       storage.Uploader
}

func NewPostHandler(feedService service.FeedServiceInterface, socialService service.SocialServiceInterface, feedCache cache.Store, storage storage.Uploader) *PostHandler {
	return &PostHandler{
		feedService:   feedService,
		socialService: socialService,
		feedCache:     feedCache,
		storage:       storage,
	}
}

// viewerID 返回当前查看者的用户ID，匿名请求返回0
func viewerID(c *gin.Context) int {
	if id, exists := c.Get("user_id"); exists {
		return id.(int)
	}
	return 0
}

// ListPosts 全局列表：GET /posts/?author=&search=&page=&page_size=
func (h *PostHandler) ListPosts(c *gin.Context) {
	page, pageSize, err := util.ParsePagination(c)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	var filter interfaces.PostFilter
	if raw := c.Query("author"); raw != "" {
		authorID, err := strconv.Atoi(raw)
		if err != nil || authorID < 1 {
			errors.HandleError(c, errors.New(errors.ErrValidation, "无效的 author 参数"))
			return
		}
		filter.AuthorID = authorID
	}
	filter.Search = c.Query("search")

	viewer := viewerID(c)
	key := cache.ListKey("global", map[string]string{
		"author":    c.Query("author"),
		"search":    filter.Search,
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
		"viewer":    strconv.Itoa(viewer),
	})

	payload, err := h.feedCache.GetOrCompute(key, func() ([]byte, error) {
		posts, total, hasMore, err := h.feedService.ListGlobal(viewer, filter, page, pageSize)
		if err != nil {
			return nil, err
		}
		if posts == nil {
			posts = []*model.Post{}
		}
		return json.Marshal(util.PageEnvelope(c, total, page, pageSize, hasMore, posts))
	})
	if err != nil {
		util.Logger.Error("获取帖子列表失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// ListFollowingPosts 关注列表：GET /posts/followings/
func (h *PostHandler) ListFollowingPosts(c *gin.Context) {
	page, pageSize, err := util.ParsePagination(c)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	viewer := viewerID(c)
	key := cache.ListKey("following", map[string]string{
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
		"viewer":    strconv.Itoa(viewer),
	})

	payload, err := h.feedCache.GetOrCompute(key, func() ([]byte, error) {
		posts, total, hasMore, err := h.feedService.ListFollowing(viewer, page, pageSize)
		if err != nil {
			return nil, err
		}
		if posts == nil {
			posts = []*model.Post{}
		}
		return json.Marshal(util.PageEnvelope(c, total, page, pageSize, hasMore, posts))
	})
	if err != nil {
		util.Logger.Error("获取关注帖子列表失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// ListUserPosts 作者列表：GET /posts/user/:id/
func (h *PostHandler) ListUserPosts(c *gin.Context) {
	authorID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的用户ID"))
		return
	}

	page, pageSize, perr := util.ParsePagination(c)
	if perr != nil {
		errors.HandleError(c, perr)
		return
	}

	viewer := viewerID(c)
	key := cache.ListKey("author", map[string]string{
		"author":    strconv.Itoa(authorID),
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
		"viewer":    strconv.Itoa(viewer),
	})

	payload, cerr := h.feedCache.GetOrCompute(key, func() ([]byte, error) {
		posts, total, hasMore, err := h.feedService.ListByAuthor(authorID, viewer, page, pageSize)
		if err != nil {
			return nil, err
		}
		if posts == nil {
			posts = []*model.Post{}
		}
		return json.Marshal(util.PageEnvelope(c, total, page, pageSize, hasMore, posts))
	})
	if cerr != nil {
		errors.HandleError(c, cerr)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// GetPost 单帖详情：GET /posts/:id/
// 缓存键只由帖子ID派生，缓存的是与查看者无关的渲染结果；
// is_liked 每次请求单独解析后再写回响应。
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的帖子ID"))
		return
	}

	payload, cerr := h.feedCache.GetOrCompute(cache.PostKey(postID), func() ([]byte, error) {
		post, err := h.feedService.GetPostDetail(postID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(post)
	})
	if cerr != nil {
		errors.HandleError(c, cerr)
		return
	}

	var post model.Post
	if err := json.Unmarshal(payload, &post); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "解析缓存载荷失败", err))
		return
	}

	isLiked, err := h.feedService.IsLikedBy(viewerID(c), postID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	post.IsLiked = isLiked

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": &post,
	})
}

// CreatePost 创建帖子：POST /posts/（multipart，image 必填，caption 可选）
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, _ := c.Get("user_id")

	caption := c.PostForm("caption")
	if utf8.RuneCountInString(caption) > maxCaptionLength {
		errors.HandleError(c, errors.New(errors.ErrValidation, "标题长度超过限制"))
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "缺少图片文件"))
		return
	}

	filename := util.GenerateUniqueFilename(file.Filename)
	path := fmt.Sprintf("posts/%d/%s", userID.(int), filename)
	imageURL, err := h.storage.UploadFile(file, path)
	if err != nil {
		util.Logger.Error("图片上传失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "图片上传失败", err))
		return
	}

	post := &model.Post{
		UserID:   userID.(int),
		ImageURL: imageURL,
		Caption:  caption,
	}
	if err := h.socialService.CreatePost(post); err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code": 201,
		"data": post,
	})
}

// UpdatePost 编辑帖子：PUT /posts/:id/（multipart，caption 和 image 均可选）
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的帖子ID"))
		return
	}

	userID, _ := c.Get("user_id")

	caption := c.PostForm("caption")
	if utf8.RuneCountInString(caption) > maxCaptionLength {
		errors.HandleError(c, errors.New(errors.ErrValidation, "标题长度超过限制"))
		return
	}

	imageURL := ""
	if file, err := c.FormFile("image"); err == nil {
		filename := util.GenerateUniqueFilename(file.Filename)
		path := fmt.Sprintf("posts/%d/%s", userID.(int), filename)
		imageURL, err = h.storage.UploadFile(file, path)
		if err != nil {
			util.Logger.Error("图片上传失败", zap.Error(err))
			errors.HandleError(c, errors.Wrap(errors.ErrInternal, "图片上传失败", err))
			return
		}
	}

	post, err := h.socialService.UpdatePost(postID, userID.(int), caption, imageURL)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": post,
	})
}

// DeletePost 软删除帖子：DELETE /posts/:id/
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的帖子ID"))
		return
	}

	userID, _ := c.Get("user_id")
	if err := h.socialService.SoftDeletePost(postID, userID.(int)); err != nil {
		errors.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// LikePost 点赞切换：POST /posts/:id/like/
func (h *PostHandler) LikePost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的帖子ID"))
		return
	}

	userID, _ := c.Get("user_id")
	liked, likeCount, err := h.socialService.ToggleLike(userID.(int), postID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"is_liked":   liked,
			"like_count": likeCount,
		},
	})
}
