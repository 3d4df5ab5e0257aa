package cache

import (
	"sort"
	"strconv"
	"strings"
)

// 缓存键的构造规则：
//   - 单帖键只由帖子ID派生，变更时可以精确失效；
//   - 列表键由范围名和规范化后的全部查询参数派生，
//     参数按键名排序后拼接，保证等价查询命中同一个键、不同查询互不冲突。

// PostKey 返回单帖详情的缓存键
func PostKey(postID int) string {
	return "post:" + strconv.Itoa(postID)
}

// ListKey 返回列表范围的缓存键
func ListKey(scope string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name, value := range params {
		if value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("posts:")
	b.WriteString(scope)
	for _, name := range names {
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}
