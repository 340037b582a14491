package dto

// 画廊排序方式
const (
	SortDate   = "date"   // 最新优先 (默认)
	SortHot    = "hot"    // 热度优先
	SortRandom = "random" // 随机
)

// GalleryQuery 公开画廊列表的查询参数
type GalleryQuery struct {
	// Q 关键词，对标题、提示词、作者做子串匹配
	Q string `form:"q" binding:"omitempty,max=255"`
	// Tag 按标签名精确筛选
	Tag string `form:"tag" binding:"omitempty,max=100"`
	// Sort date | hot | random，其他值按 date 处理
	Sort string `form:"sort"`
	// Category gallery | template，为空不筛选
	Category string `form:"category" binding:"omitempty,oneof=gallery template"`
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	// PageSize 为 0 时使用配置中的每页数量
	PageSize int `form:"page_size" binding:"omitempty,gte=1,lte=100"`
}

// APIListQuery /api/list 的分页参数
type APIListQuery struct {
	Page    int `form:"page" binding:"omitempty,gte=1"`
	PerPage int `form:"per_page" binding:"omitempty,gte=1"`
}

// Offset 计算分页偏移量
func Offset(page, pageSize int) int {
	if page <= 0 {
		page = 1
	}
	return (page - 1) * pageSize
}

// PublicListParams 仓库层使用的公开列表查询条件 (已完成默认值与分页换算)
type PublicListParams struct {
	Q             string
	Tag           string
	Category      string
	Sort          string
	ShowSensitive bool
	Offset        int
	Limit         int
}
