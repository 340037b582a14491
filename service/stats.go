package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/models/vo"
	"github.com/Xushengqwer/gallery_service/repo/mysql"
	"github.com/Xushengqwer/gallery_service/repo/redis"
)

// StatsService 浏览/复制计数
type StatsService interface {
	// RecordView 浏览数 +1。作品不存在时返回 nil, nil。
	RecordView(ctx context.Context, id uint64) (*vo.CounterVO, error)
	// RecordCopy 复制数 +1。作品不存在时返回 nil, nil。
	RecordCopy(ctx context.Context, id uint64) (*vo.CounterVO, error)
}

type statsService struct {
	db        *gorm.DB
	imageRepo mysql.ImageRepository
	heat      heatRankSync
	logger    *zap.Logger
}

func NewStatsService(db *gorm.DB, imageRepo mysql.ImageRepository, heatRank redis.HeatRankRepository, logger *zap.Logger) StatsService {
	return &statsService{
		db:        db,
		imageRepo: imageRepo,
		heat:      heatRankSync{rank: heatRank, logger: logger},
		logger:    logger,
	}
}

func (s *statsService) RecordView(ctx context.Context, id uint64) (*vo.CounterVO, error) {
	return s.record(ctx, id, mysql.CounterView)
}

func (s *statsService) RecordCopy(ctx context.Context, id uint64) (*vo.CounterVO, error) {
	return s.record(ctx, id, mysql.CounterCopy)
}

func (s *statsService) record(ctx context.Context, id uint64, column mysql.CounterColumn) (*vo.CounterVO, error) {
	var img *entities.Image
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.imageRepo.IncrementCounter(ctx, tx, id, column)
		if err != nil || !found {
			return err
		}
		img, err = s.imageRepo.GetByID(ctx, tx, id)
		return err
	})
	if err != nil {
		s.logger.Error("更新计数器失败", zap.Uint64("imageID", id), zap.String("column", string(column)), zap.Error(err))
		return nil, err
	}
	if img == nil {
		s.logger.Debug("计数目标不存在，忽略", zap.Uint64("imageID", id), zap.String("column", string(column)))
		return nil, nil
	}

	s.heat.refresh(ctx, img)
	return &vo.CounterVO{
		ID:        img.ID,
		ViewCount: img.ViewCount,
		CopyCount: img.CopyCount,
		HeatScore: img.HeatScore,
	}, nil
}
