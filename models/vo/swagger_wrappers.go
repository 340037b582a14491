package vo

// --- 用于成功响应且包含具体 Data 的包装器 ---

// SubmissionResponseWrapper 对应 response.APIResponse[vo.SubmissionVO]
type SubmissionResponseWrapper struct {
	Code    int          `json:"code" example:"0"`
	Message string       `json:"message,omitempty" example:"success"`
	Data    SubmissionVO `json:"data"`
}

// GalleryPageResponseWrapper 对应 response.APIResponse[vo.GalleryPageVO]
type GalleryPageResponseWrapper struct {
	Code    int           `json:"code" example:"0"`
	Message string        `json:"message,omitempty" example:"success"`
	Data    GalleryPageVO `json:"data"`
}

// SubmissionListResponseWrapper 对应 response.APIResponse[[]vo.SubmissionVO]
type SubmissionListResponseWrapper struct {
	Code    int            `json:"code" example:"0"`
	Message string         `json:"message,omitempty" example:"success"`
	Data    []SubmissionVO `json:"data"`
}

// TagListResponseWrapper 对应 response.APIResponse[[]vo.TagVO]
type TagListResponseWrapper struct {
	Code    int     `json:"code" example:"0"`
	Message string  `json:"message,omitempty" example:"success"`
	Data    []TagVO `json:"data"`
}

// CounterResponseWrapper 对应 response.APIResponse[vo.CounterVO]
type CounterResponseWrapper struct {
	Code    int       `json:"code" example:"0"`
	Message string    `json:"message,omitempty" example:"success"`
	Data    CounterVO `json:"data"`
}

// AdminPageResponseWrapper 对应 response.APIResponse[vo.AdminPageVO]
type AdminPageResponseWrapper struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message,omitempty" example:"success"`
	Data    AdminPageVO `json:"data"`
}

// --- 用于错误响应 或 简单成功响应（只有 Code 和 Message） ---

// BaseResponseWrapper 代表一个只包含 Code 和 Message 的响应。
type BaseResponseWrapper struct {
	Code    int    `json:"code" example:"0"`          // 成功时为 0, 错误时为具体错误码
	Message string `json:"message" example:"success"` // 成功或错误消息
}
