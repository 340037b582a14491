package dto

import (
	"github.com/Xushengqwer/go-common/models/enums"
)

// AdminListQuery 管理端分页条件查询作品
type AdminListQuery struct {
	Status   *enums.Status `form:"status" binding:"omitempty,oneof=0 1 2" swaggertype:"integer"` // 状态筛选，可选（0=待审核, 1=已审核, 2=拒绝）
	Category string        `form:"category" binding:"omitempty,oneof=gallery template"`          // 分类筛选，可选
	Title    string        `form:"title" binding:"omitempty,max=255"`                            // 标题模糊查询，可选
	Page     int           `form:"page" binding:"omitempty,gte=1"`                               // 页码，从 1 开始
	PageSize int           `form:"page_size" binding:"omitempty,gte=1,lte=200"`                  // 每页数量
}

// SetStatusRequest 审核作品
type SetStatusRequest struct {
	// Status 0: 待审核 (Pending) 1: 审核通过 (Approved) 2: 拒绝 (Rejected)
	Status enums.Status `json:"status" binding:"min=0,max=2" swaggertype:"integer" example:"1"`
}

// SetTagSensitiveRequest 标记/取消标记敏感标签
type SetTagSensitiveRequest struct {
	IsSensitive *bool `json:"is_sensitive" binding:"required" example:"true"`
}
