package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/myErrors"
)

// HeatEntry 热度榜中的一项
type HeatEntry struct {
	ImageID   uint64
	HeatScore int64
}

// HeatRankRepository 全局作品热度榜 (ZSet)。
// MySQL 中的 heat_score 是权威数据，这里只是为热门列表提供的排序索引，允许短暂落后。
type HeatRankRepository interface {
	// UpdateScore 写入作品的最新热度，并把榜单裁剪到配置的大小
	UpdateScore(ctx context.Context, imageID uint64, score int64) error

	// Remove 从榜单移除作品 (删除或下架时)
	Remove(ctx context.Context, imageID uint64) error

	// TopIDs 按热度降序返回前 limit 个作品 ID；榜单为空时返回 myErrors.ErrCacheMiss
	TopIDs(ctx context.Context, limit int) ([]uint64, error)

	// Rebuild 用给定条目整体替换榜单 (临时 Key + RENAME)
	Rebuild(ctx context.Context, entries []HeatEntry) error
}

type heatRankRepository struct {
	client *redis.Client
	size   int
	logger *zap.Logger
}

// NewHeatRankRepository size<=0 时使用 constant.DefaultHotRankSize
func NewHeatRankRepository(client *redis.Client, size int, logger *zap.Logger) HeatRankRepository {
	if size <= 0 {
		size = constant.DefaultHotRankSize
	}
	return &heatRankRepository{client: client, size: size, logger: logger}
}

func member(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func (r *heatRankRepository) UpdateScore(ctx context.Context, imageID uint64, score int64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, constant.HeatRankKey, redis.Z{Score: float64(score), Member: member(imageID)})
		// 只保留分数最高的 size 个
		pipe.ZRemRangeByRank(ctx, constant.HeatRankKey, 0, int64(-r.size-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("更新热度榜失败 (imageID=%d): %w", imageID, err)
	}
	return nil
}

func (r *heatRankRepository) Remove(ctx context.Context, imageID uint64) error {
	if err := r.client.ZRem(ctx, constant.HeatRankKey, member(imageID)).Err(); err != nil {
		return fmt.Errorf("从热度榜移除失败 (imageID=%d): %w", imageID, err)
	}
	return nil
}

func (r *heatRankRepository) TopIDs(ctx context.Context, limit int) ([]uint64, error) {
	if limit <= 0 {
		return []uint64{}, nil
	}
	members, err := r.client.ZRevRange(ctx, constant.HeatRankKey, 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, myErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("读取热度榜失败: %w", err)
	}
	if len(members) == 0 {
		return nil, myErrors.ErrCacheMiss
	}

	ids := make([]uint64, 0, len(members))
	for _, m := range members {
		id, parseErr := strconv.ParseUint(m, 10, 64)
		if parseErr != nil {
			r.logger.Warn("热度榜中存在无法解析的成员，已跳过", zap.String("member", m))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *heatRankRepository) Rebuild(ctx context.Context, entries []HeatEntry) error {
	if len(entries) == 0 {
		return r.client.Del(ctx, constant.HeatRankKey).Err()
	}

	zs := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		zs = append(zs, redis.Z{Score: float64(e.HeatScore), Member: member(e.ImageID)})
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, constant.HeatRankTempKey)
		pipe.ZAdd(ctx, constant.HeatRankTempKey, zs...)
		pipe.ZRemRangeByRank(ctx, constant.HeatRankTempKey, 0, int64(-r.size-1))
		pipe.Rename(ctx, constant.HeatRankTempKey, constant.HeatRankKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("重建热度榜失败: %w", err)
	}
	r.logger.Info("热度榜已重建", zap.Int("entries", len(entries)))
	return nil
}
