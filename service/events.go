package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/mq/events"
)

// EventPublisher 作品生命周期事件的发布方 (Kafka 生产者)。
// 未配置 broker 时传入 nil，服务会跳过发布。
type EventPublisher interface {
	PublishSubmissionPendingReview(ctx context.Context, data events.SubmissionData) error
	PublishSubmissionDeleted(ctx context.Context, imageID uint64) error
}

const publishTimeout = 10 * time.Second

// publishAsync 在事务提交后异步发布事件，失败只记录日志
func publishAsync(logger *zap.Logger, name string, imageID uint64, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			logger.Error("发送 Kafka 事件失败", zap.String("event", name), zap.Uint64("imageID", imageID), zap.Error(err))
			return
		}
		logger.Info("成功发送 Kafka 事件", zap.String("event", name), zap.Uint64("imageID", imageID))
	}()
}

func newSubmissionData(img *entities.Image) events.SubmissionData {
	refs := make([]string, 0, len(img.ReferenceSlots))
	for _, s := range img.ReferenceSlots {
		if s.FilePath != "" {
			refs = append(refs, s.FilePath)
		}
	}
	return events.SubmissionData{
		ID:            img.ID,
		Title:         img.Title,
		Author:        img.Author,
		Prompt:        img.Prompt,
		Description:   img.Description,
		Type:          string(img.Kind),
		Category:      string(img.Category),
		FilePath:      img.FilePath,
		ThumbnailPath: img.ThumbnailPath,
		Tags:          img.TagNames(),
		RefPaths:      refs,
		CreatedAt:     img.CreatedAt,
	}
}
