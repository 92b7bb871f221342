package pkg

import "math"

const (
	CrewPageSize        = 15
	MaxListThumbnails   = 3
	MaxDetailThumbnails = 5

	// MaxPage 保证 page*CrewPageSize 不溢出
	MaxPage = math.MaxInt32 / CrewPageSize
)

// Page 统一的分页返回
type Page[T any] struct {
	List  []T   `json:"list"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

// PageOffset page 从 0 开始，负数按 0 处理，超出 int32 范围的偏移截断
func PageOffset(page, size int) int {
	if page < 0 || size <= 0 {
		return 0
	}
	if page > math.MaxInt32/size {
		return math.MaxInt32 / size * size
	}
	return page * size
}
