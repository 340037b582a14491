package service

import (
	"context"

	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/repo/redis"
)

// heatRankSync 把 MySQL 中的热度同步到 Redis 热度榜，失败只记录日志。
// rank 为 nil (未启用 Redis) 时所有操作为空。
type heatRankSync struct {
	rank   redis.HeatRankRepository
	logger *zap.Logger
}

// refresh 已审核作品写入最新分数，其他状态的作品从榜单移除
func (h heatRankSync) refresh(ctx context.Context, img *entities.Image) {
	if h.rank == nil || img == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if img.Status != enums.Approved {
		h.remove(ctx, img.ID)
		return
	}
	if err := h.rank.UpdateScore(ctx, img.ID, img.HeatScore); err != nil {
		h.logger.Warn("刷新热度榜失败", zap.Uint64("imageID", img.ID), zap.Error(err))
	}
}

func (h heatRankSync) remove(ctx context.Context, imageID uint64) {
	if h.rank == nil {
		return
	}
	if err := h.rank.Remove(context.WithoutCancel(ctx), imageID); err != nil {
		h.logger.Warn("从热度榜移除作品失败", zap.Uint64("imageID", imageID), zap.Error(err))
	}
}
