package vo

import "github.com/Xushengqwer/gallery_service/models/entities"

// GalleryPageVO 画廊列表分页结果
type GalleryPageVO struct {
	Items    []*SubmissionVO `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Pages    int             `json:"pages"`
}

// APIListVO /api/list 响应，字段名与旧版接口保持一致
type APIListVO struct {
	CurrentPage int             `json:"current_page"`
	Pages       int             `json:"pages"`
	Total       int64           `json:"total"`
	Data        []*SubmissionVO `json:"data"`
}

// AdminPageVO 管理端列表
type AdminPageVO struct {
	Items []*SubmissionVO `json:"items"`
	Total int64           `json:"total"`
}

// TagVO 标签
type TagVO struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	IsSensitive bool   `json:"is_sensitive"`
}

// NewTagVOs 批量转换
func NewTagVOs(tags []*entities.Tag) []TagVO {
	out := make([]TagVO, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagVO{ID: t.ID, Name: t.Name, IsSensitive: t.IsSensitive})
	}
	return out
}

// CounterVO 计数器变更后的最新值
type CounterVO struct {
	ID        uint64 `json:"id"`
	ViewCount int64  `json:"view_count"`
	CopyCount int64  `json:"copy_count"`
	HeatScore int64  `json:"heat_score"`
}

// TotalPages 计算总页数
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
