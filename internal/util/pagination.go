package util

import (
	"net/url"
	"strconv"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/config"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/errors"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ParsePagination 解析并校验 page / page_size 查询参数。
// 非法参数返回 ErrValidation，超过上限的 page_size 截断为 MaxPageSize。
func ParsePagination(c *gin.Context) (int, int, error) {
	page := 1
	pageSize := DefaultPageSize

	if raw := c.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, errors.New(errors.ErrValidation, "无效的 page 参数")
		}
		page = v
	}

	if raw := c.Query("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, errors.New(errors.ErrValidation, "无效的 page_size 参数")
		}
		if v > MaxPageSize {
			v = MaxPageSize
		}
		pageSize = v
	}

	return page, pageSize, nil
}

// PageEnvelope 构造 {count, next, previous, results} 分页响应。
// results 为 nil 时输出空数组而不是 null。
func PageEnvelope(c *gin.Context, count, page, pageSize int, hasMore bool, results interface{}) gin.H {
	var next, previous interface{}
	if hasMore {
		next = pageLink(c, page+1, pageSize)
	}
	if page > 1 {
		previous = pageLink(c, page-1, pageSize)
	}

	return gin.H{
		"count":    count,
		"next":     next,
		"previous": previous,
		"results":  results,
	}
}

// pageLink 基于当前请求的路径和查询参数生成某一页的完整链接
func pageLink(c *gin.Context, page, pageSize int) string {
	u := url.URL{Path: c.Request.URL.Path}
	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()
	return config.AppConfig.BackendURL + u.String()
}
