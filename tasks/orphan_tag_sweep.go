package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/repo/mysql"
)

// OrphanTagSweepTask 定时删除没有任何作品引用的标签。
// 删除作品时会即时回收其标签，这里兜底处理编辑替换标签以及即时回收失败留下的孤儿。
type OrphanTagSweepTask struct {
	tagRepo mysql.TagRepository
	cron    *cron.Cron
	logger  *zap.Logger
}

func NewOrphanTagSweepTask(tagRepo mysql.TagRepository, logger *zap.Logger) *OrphanTagSweepTask {
	task := &OrphanTagSweepTask{
		tagRepo: tagRepo,
		cron:    cron.New(),
		logger:  logger,
	}
	task.startCronJob()
	return task
}

func (t *OrphanTagSweepTask) startCronJob() {
	schedule := constant.OrphanTagSweepCronSpec
	entryID, err := t.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := t.Sweep(ctx); err != nil {
			t.logger.Error("清理孤儿标签失败", zap.Error(err))
		}
	})
	if err != nil {
		t.logger.Fatal("添加孤儿标签清理 cron 作业失败", zap.Error(err), zap.String("schedule", schedule))
	}

	t.cron.Start()
	t.logger.Info("孤儿标签清理定时任务已启动", zap.String("schedule", schedule), zap.Uint("cronEntryID", uint(entryID)))
}

// Sweep 立即执行一次清理，返回删除的标签数
func (t *OrphanTagSweepTask) Sweep(ctx context.Context) (int64, error) {
	n, err := t.tagRepo.DeleteAllOrphans(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		t.logger.Info("已清理孤儿标签", zap.Int64("count", n))
	}
	return n, nil
}

func (t *OrphanTagSweepTask) Stop() context.Context {
	t.logger.Info("正在停止孤儿标签清理定时任务...")
	return t.cron.Stop()
}
