package tasks

import (
	"context"
	"testing"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/repo/mysql"
	"github.com/Xushengqwer/gallery_service/repo/mysql/mysqltest"
	"github.com/Xushengqwer/gallery_service/repo/redis"
)

func seed(t *testing.T, db *gorm.DB, title string, status enums.Status, views int64) *entities.Image {
	t.Helper()
	img := &entities.Image{
		Title:     title,
		Kind:      entities.KindTxt2Img,
		Category:  entities.CategoryGallery,
		Status:    status,
		FilePath:  "/uploads/" + title + ".png",
		ViewCount: views,
	}
	require.NoError(t, db.Create(img).Error)
	return img
}

func TestHeatRankRefresh_RebuildsFromMySQL(t *testing.T) {
	db := mysqltest.NewDB(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	rank := redis.NewHeatRankRepository(client, 2, logger)
	ctx := context.Background()

	low := seed(t, db, "low", enums.Approved, 1)
	high := seed(t, db, "high", enums.Approved, 50)
	mid := seed(t, db, "mid", enums.Approved, 10)
	seed(t, db, "pending", enums.Pending, 500)
	// 榜单中残留的过期成员会被替换
	require.NoError(t, rank.UpdateScore(ctx, 999, 1000))

	task := NewHeatRankRefreshTask(mysql.NewImageRepository(db, logger), rank, 2, logger)
	defer task.Stop()

	require.NoError(t, task.Refresh(ctx))
	ids, err := rank.TopIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{high.ID, mid.ID}, ids)
	assert.NotContains(t, ids, low.ID)
}

func TestOrphanTagSweep(t *testing.T) {
	db := mysqltest.NewDB(t)
	logger := zap.NewNop()
	tags := mysql.NewTagRepository(db)
	ctx := context.Background()

	img := seed(t, db, "a", enums.Approved, 0)
	used, err := tags.FindOrCreate(ctx, db, "used")
	require.NoError(t, err)
	_, err = tags.FindOrCreate(ctx, db, "lonely")
	require.NoError(t, err)
	require.NoError(t, tags.Attach(ctx, db, img.ID, []uint64{used.ID}))

	task := NewOrphanTagSweepTask(tags, logger)
	defer task.Stop()

	n, err := task.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var names []string
	require.NoError(t, db.Model(&entities.Tag{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"used"}, names)
}
