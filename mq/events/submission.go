// Package events 定义画廊服务收发的 Kafka 消息体。
package events

import "time"

// SubmissionData 作品快照，随待审核事件发送给审核服务
type SubmissionData struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Prompt        string    `json:"prompt"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	FilePath      string    `json:"file_path"`
	ThumbnailPath string    `json:"thumbnail_path"`
	Tags          []string  `json:"tags"`
	RefPaths      []string  `json:"ref_paths"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmissionPendingReviewEvent 新作品待审核
type SubmissionPendingReviewEvent struct {
	EventID    string         `json:"event_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Submission SubmissionData `json:"submission"`
}

// SubmissionDeletedEvent 作品已删除，下游据此清理索引等
type SubmissionDeletedEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	ImageID   uint64    `json:"image_id"`
}

// ReviewResultEvent 审核服务回传的审核结论。
// 通过与拒绝分别走两个 topic，消息体相同。
type ReviewResultEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	ImageID   uint64    `json:"image_id"`
	Reason    string    `json:"reason,omitempty"`
}
