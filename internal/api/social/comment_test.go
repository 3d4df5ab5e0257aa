package social

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestCreateComment 测试评论创建和内容校验
func TestCreateComment(t *testing.T) {
	mockSocial := new(MockSocialService)
	handler := NewCommentHandler(new(MockFeedService), mockSocial)

	router := gin.New()
	router.POST("/posts/:id/comments", setAuth(1), handler.CreateComment)

	mockSocial.On("CreateComment", mock.AnythingOfType("*model.Comment")).Return(nil)

	body := []byte(`{"content": "nice shot"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/posts/10/comments", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	// 空内容返回400
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/posts/10/comments", bytes.NewBuffer([]byte(`{"content": ""}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestListComments 测试评论列表的分页信封
func TestListComments(t *testing.T) {
	mockFeed := new(MockFeedService)
	handler := NewCommentHandler(mockFeed, new(MockSocialService))

	router := gin.New()
	router.GET("/posts/:id/comments", handler.ListComments)

	mockFeed.On("ListComments", 10, 1, 10).
		Return([]*model.Comment{{ID: 1, PostID: 10, Content: "first"}}, 1, false, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/posts/10/comments", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestDeleteComment 测试评论删除的状态码映射
func TestDeleteComment(t *testing.T) {
	mockSocial := new(MockSocialService)
	handler := NewCommentHandler(new(MockFeedService), mockSocial)

	router := gin.New()
	router.DELETE("/posts/:id/comments/:commentId", setAuth(1), handler.DeleteComment)

	// 评论作者删除成功
	mockSocial.On("DeleteComment", 5, 1).Return(nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/posts/10/comments/5", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// 评论不存在返回404
	mockSocial.On("DeleteComment", 404, 1).Return(errors.New(errors.ErrCommentNotFound, "评论不存在"))
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/posts/10/comments/404", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
