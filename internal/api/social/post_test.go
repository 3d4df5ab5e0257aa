package social

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/config"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/cache"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/repository/interfaces"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/service"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	config.AppConfig.BackendURL = "http://localhost:8080"
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// MockFeedService 是 FeedServiceInterface 的模拟实现
type MockFeedService struct {
	mock.Mock
}

func (m *MockFeedService) ListGlobal(viewerID int, filter interfaces.PostFilter, page, pageSize int) ([]*model.Post, int, bool, error) {
	args := m.Called(viewerID, filter, page, pageSize)
	return args.Get(0).([]*model.Post), args.Int(1), args.Bool(2), args.Error(3)
}

func (m *MockFeedService) ListFollowing(viewerID, page, pageSize int) ([]*model.Post, int, bool, error) {
	args := m.Called(viewerID, page, pageSize)
	return args.Get(0).([]*model.Post), args.Int(1), args.Bool(2), args.Error(3)
}

func (m *MockFeedService) ListByAuthor(authorID, viewerID, page, pageSize int) ([]*model.Post, int, bool, error) {
	args := m.Called(authorID, viewerID, page, pageSize)
	return args.Get(0).([]*model.Post), args.Int(1), args.Bool(2), args.Error(3)
}

func (m *MockFeedService) GetPostDetail(postID int) (*model.Post, error) {
	args := m.Called(postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockFeedService) IsLikedBy(viewerID, postID int) (bool, error) {
	args := m.Called(viewerID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFeedService) ListComments(postID, page, pageSize int) ([]*model.Comment, int, bool, error) {
	args := m.Called(postID, page, pageSize)
	return args.Get(0).([]*model.Comment), args.Int(1), args.Bool(2), args.Error(3)
}

func (m *MockFeedService) GetProfile(userID int) (*model.Profile, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

var _ service.FeedServiceInterface = (*MockFeedService)(nil)

// MockSocialService 是 SocialServiceInterface 的模拟实现
type MockSocialService struct {
	mock.Mock
}

func (m *MockSocialService) ToggleFollow(followerID, targetID int) (bool, int, error) {
	args := m.Called(followerID, targetID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *MockSocialService) ToggleLike(userID, postID int) (bool, int, error) {
	args := m.Called(userID, postID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *MockSocialService) CreatePost(post *model.Post) error {
	args := m.Called(post)
	return args.Error(0)
}

func (m *MockSocialService) UpdatePost(postID, requesterID int, caption, imageURL string) (*model.Post, error) {
	args := m.Called(postID, requesterID, caption, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockSocialService) SoftDeletePost(postID, requesterID int) error {
	args := m.Called(postID, requesterID)
	return args.Error(0)
}

func (m *MockSocialService) CreateComment(comment *model.Comment) error {
	args := m.Called(comment)
	return args.Error(0)
}

func (m *MockSocialService) DeleteComment(commentID, requesterID int) error {
	args := m.Called(commentID, requesterID)
	return args.Error(0)
}

func (m *MockSocialService) GetFollowers(userID, page, pageSize int) ([]*model.User, int, bool, error) {
	args := m.Called(userID, page, pageSize)
	return args.Get(0).([]*model.User), args.Int(1), args.Bool(2), args.Error(3)
}

func (m *MockSocialService) GetFollowing(userID, page, pageSize int) ([]*model.User, int, bool, error) {
	args := m.Called(userID, page, pageSize)
	return args.Get(0).([]*model.User), args.Int(1), args.Bool(2), args.Error(3)
}

var _ service.SocialServiceInterface = (*MockSocialService)(nil)

// memoryCache 是带内存存储的 Store 实现，用于验证缓存命中路径
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) GetOrCompute(key string, compute func() ([]byte, error)) ([]byte, error) {
	if value, ok := m.entries[key]; ok {
		return value, nil
	}
	value, err := compute()
	if err != nil {
		return nil, err
	}
	m.entries[key] = value
	return value, nil
}

func (m *memoryCache) Invalidate(keys ...string) {
	for _, key := range keys {
		delete(m.entries, key)
	}
}

var _ cache.Store = (*memoryCache)(nil)

func setAuth(userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

// TestGetPostCached 测试详情缓存命中时仍按查看者解析 is_liked
func TestGetPostCached(t *testing.T) {
	mockFeed := new(MockFeedService)
	mockSocial := new(MockSocialService)
	mc := newMemoryCache()
	handler := NewPostHandler(mockFeed, mockSocial, mc, nil)

	router := gin.New()
	router.GET("/posts/:id", setAuth(1), handler.GetPost)

	// 第一次请求计算并写入缓存
	mockFeed.On("GetPostDetail", 10).Return(&model.Post{ID: 10, UserID: 2, Caption: "hello"}, nil).Once()
	mockFeed.On("IsLikedBy", 1, 10).Return(false, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts/10", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// 第二次请求命中缓存，不再计算详情，但 is_liked 重新解析
	mockFeed.On("IsLikedBy", 1, 10).Return(true, nil).Once()

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/posts/10", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data model.Post `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "hello", response.Data.Caption)
	assert.True(t, response.Data.IsLiked)
	mockFeed.AssertExpectations(t)
}

// TestGetPostNotFound 测试不存在的帖子返回404
func TestGetPostNotFound(t *testing.T) {
	mockFeed := new(MockFeedService)
	handler := NewPostHandler(mockFeed, new(MockSocialService), newMemoryCache(), nil)

	router := gin.New()
	router.GET("/posts/:id", handler.GetPost)

	mockFeed.On("GetPostDetail", 404).Return(nil, errors.New(errors.ErrPostNotFound, "帖子不存在"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts/404", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 非数字ID返回400
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/posts/abc", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestListPostsEnvelope 测试列表响应的分页信封
func TestListPostsEnvelope(t *testing.T) {
	mockFeed := new(MockFeedService)
	handler := NewPostHandler(mockFeed, new(MockSocialService), newMemoryCache(), nil)

	router := gin.New()
	router.GET("/posts", handler.ListPosts)

	mockFeed.On("ListGlobal", 0, interfaces.PostFilter{}, 1, 10).
		Return([]*model.Post{{ID: 2}, {ID: 1}}, 15, true, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var envelope map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &envelope)
	assert.Equal(t, float64(15), envelope["count"])
	assert.NotNil(t, envelope["next"])
	assert.Nil(t, envelope["previous"])
	assert.Len(t, envelope["results"], 2)
}

// TestListPostsBadPagination 测试非法分页参数
func TestListPostsBadPagination(t *testing.T) {
	handler := NewPostHandler(new(MockFeedService), new(MockSocialService), newMemoryCache(), nil)

	router := gin.New()
	router.GET("/posts", handler.ListPosts)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts?page_size=abc", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestDeletePost 测试删除帖子的状态码映射
func TestDeletePost(t *testing.T) {
	mockSocial := new(MockSocialService)
	handler := NewPostHandler(new(MockFeedService), mockSocial, newMemoryCache(), nil)

	router := gin.New()
	router.DELETE("/posts/:id", setAuth(1), handler.DeletePost)

	// 作者删除成功
	mockSocial.On("SoftDeletePost", 10, 1).Return(nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/posts/10", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// 非作者被拒绝
	mockSocial.On("SoftDeletePost", 20, 1).Return(errors.New(errors.ErrForbidden, "只有作者可以删除帖子"))
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/posts/20", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestLikePost 测试点赞切换的响应结构
func TestLikePost(t *testing.T) {
	mockSocial := new(MockSocialService)
	handler := NewPostHandler(new(MockFeedService), mockSocial, newMemoryCache(), nil)

	router := gin.New()
	router.POST("/posts/:id/like", setAuth(1), handler.LikePost)

	mockSocial.On("ToggleLike", 1, 10).Return(true, 6, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/10/like", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			IsLiked   bool `json:"is_liked"`
			LikeCount int  `json:"like_count"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.True(t, response.Data.IsLiked)
	assert.Equal(t, 6, response.Data.LikeCount)
}
