package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/repo/mysql"
	"github.com/Xushengqwer/gallery_service/repo/redis"
)

// HeatRankRefreshTask 定时用 MySQL 中的 heat_score 重建 Redis 热度榜。
// 计数接口会实时更新榜单，这里负责纠正 Redis 写入失败或重启导致的偏差。
type HeatRankRefreshTask struct {
	imageRepo mysql.ImageRepository
	rank      redis.HeatRankRepository
	size      int
	cron      *cron.Cron
	logger    *zap.Logger
}

// NewHeatRankRefreshTask 初始化并启动热度榜重建的定时任务
func NewHeatRankRefreshTask(imageRepo mysql.ImageRepository, rank redis.HeatRankRepository, size int, logger *zap.Logger) *HeatRankRefreshTask {
	if size <= 0 {
		size = constant.DefaultHotRankSize
	}
	task := &HeatRankRefreshTask{
		imageRepo: imageRepo,
		rank:      rank,
		size:      size,
		cron:      cron.New(),
		logger:    logger,
	}
	task.startCronJob()
	return task
}

func (t *HeatRankRefreshTask) startCronJob() {
	schedule := constant.HeatRankRefreshCronSpec
	entryID, err := t.cron.AddFunc(schedule, func() {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := t.Refresh(ctx); err != nil {
			t.logger.Error("重建热度榜失败", zap.Error(err))
			return
		}
		t.logger.Info("热度榜重建任务执行完毕", zap.Duration("duration", time.Since(startTime)))
	})
	if err != nil {
		t.logger.Fatal("添加热度榜重建 cron 作业失败", zap.Error(err), zap.String("schedule", schedule))
	}

	t.cron.Start()
	t.logger.Info("热度榜重建定时任务已启动", zap.String("schedule", schedule), zap.Uint("cronEntryID", uint(entryID)))
}

// Refresh 立即执行一次重建，启动时也会调用以预热榜单
func (t *HeatRankRefreshTask) Refresh(ctx context.Context) error {
	images, err := t.imageRepo.TopApprovedByHeat(ctx, t.size)
	if err != nil {
		return err
	}
	entries := make([]redis.HeatEntry, 0, len(images))
	for _, img := range images {
		entries = append(entries, redis.HeatEntry{ImageID: img.ID, HeatScore: img.HeatScore})
	}
	return t.rank.Rebuild(ctx, entries)
}

// Stop 停止调度，返回的 context 在正在执行的任务结束后 Done
func (t *HeatRankRefreshTask) Stop() context.Context {
	t.logger.Info("正在停止热度榜重建定时任务...")
	return t.cron.Stop()
}
