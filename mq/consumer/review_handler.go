package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/mq/events"
)

// MessageHandler 处理单条 Kafka 消息
type MessageHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// StatusSetter 审核结论落库，由 service.AdminService 实现
type StatusSetter interface {
	SetStatus(ctx context.Context, id uint64, status enums.Status) (*entities.Image, error)
}

const setStatusTimeout = 5 * time.Second

// ReviewResultHandler 把审核服务回传的结论写回作品状态。
// 通过与拒绝各用一个实例，status 决定写入的目标状态。
type ReviewResultHandler struct {
	logger   *zap.Logger
	setter   StatusSetter
	status   enums.Status
	decision string
}

func NewApprovedHandler(logger *zap.Logger, setter StatusSetter) *ReviewResultHandler {
	return &ReviewResultHandler{logger: logger, setter: setter, status: enums.Approved, decision: "approved"}
}

func NewRejectedHandler(logger *zap.Logger, setter StatusSetter) *ReviewResultHandler {
	return &ReviewResultHandler{logger: logger, setter: setter, status: enums.Rejected, decision: "rejected"}
}

// Handle 无法解析的消息与不存在的作品直接丢弃 (返回 nil)，其他错误返回给消费循环记录
func (h *ReviewResultHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.ReviewResultEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("反序列化审核结果消息失败，已丢弃", zap.String("decision", h.decision), zap.Error(err), zap.ByteString("value", msg.Value))
		return nil
	}
	if event.ImageID == 0 {
		h.logger.Error("审核结果消息缺少作品 ID，已丢弃", zap.String("decision", h.decision), zap.String("event_id", event.EventID))
		return nil
	}

	updateCtx, cancel := context.WithTimeout(ctx, setStatusTimeout)
	defer cancel()

	if _, err := h.setter.SetStatus(updateCtx, event.ImageID, h.status); err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			h.logger.Warn("审核结果对应的作品不存在，已丢弃", zap.String("decision", h.decision), zap.Uint64("imageID", event.ImageID))
			return nil
		}
		return fmt.Errorf("写入审核结果失败 (imageID=%d): %w", event.ImageID, err)
	}

	h.logger.Info("已应用审核结果",
		zap.String("decision", h.decision),
		zap.String("event_id", event.EventID),
		zap.Uint64("imageID", event.ImageID),
		zap.String("reason", event.Reason))
	return nil
}
