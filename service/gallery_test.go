package service

import (
	"context"
	"testing"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/models/entities"
)

func approvedForm(title, tags string) dto.SubmissionForm {
	approved := enums.Approved
	return dto.SubmissionForm{Title: title, Tags: tags, Status: &approved}
}

func (f *fixture) markSensitive(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, f.db.Model(&entities.Tag{}).Where("name = ?", name).Update("is_sensitive", true).Error)
}

func newGallery(f *fixture, cfg config.GalleryConfig) GalleryService {
	return NewGalleryService(f.images, f.tags, f.rank, cfg, zap.NewNop())
}

func TestGallery_ListHidesPendingAndSensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, approvedForm("cat", "cute"))
	f.create(t, approvedForm("nsfw", "adult"))
	f.create(t, dto.SubmissionForm{Title: "pending"})
	f.markSensitive(t, "adult")
	svc := newGallery(f, config.GalleryConfig{ItemsPerPage: 10})

	page, err := svc.List(ctx, &dto.GalleryQuery{}, false)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "cat", page.Items[0].Title)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Pages)
	assert.Equal(t, 10, page.PageSize)

	page, err = svc.List(ctx, &dto.GalleryQuery{}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	tags, err := svc.Tags(ctx, false)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "cute", tags[0].Name)
}

func TestGallery_GetRequiresApprovedAndVisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ok := f.create(t, approvedForm("ok", ""))
	pending := f.create(t, dto.SubmissionForm{Title: "pending"})
	hidden := f.create(t, approvedForm("hidden", "adult"))
	f.markSensitive(t, "adult")
	svc := newGallery(f, config.GalleryConfig{})

	got, err := svc.Get(ctx, ok.ID, false)
	require.NoError(t, err)
	assert.Equal(t, ok.ID, got.ID)

	_, err = svc.Get(ctx, pending.ID, true)
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)

	_, err = svc.Get(ctx, hidden.ID, false)
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
	_, err = svc.Get(ctx, hidden.ID, true)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, 404, true)
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}

func TestGallery_APIListCapsPerPage(t *testing.T) {
	f := newFixture(t)
	for _, title := range []string{"a", "b", "c"} {
		f.create(t, approvedForm(title, ""))
	}
	svc := newGallery(f, config.GalleryConfig{APIMaxPerPage: 2})

	out, err := svc.APIList(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Len(t, out.Data, 2)
	assert.Equal(t, int64(3), out.Total)
	assert.Equal(t, 2, out.Pages)
	assert.Equal(t, 1, out.CurrentPage)
	// 最新优先
	assert.Equal(t, "c", out.Data[0].Title)
}

func TestGallery_HotUsesRankThenFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, approvedForm("a", ""))
	b := f.create(t, approvedForm("b", "adult"))
	c := f.create(t, approvedForm("c", ""))
	f.markSensitive(t, "adult")
	svc := newGallery(f, config.GalleryConfig{})

	require.NoError(t, f.rank.UpdateScore(ctx, a.ID, 1))
	require.NoError(t, f.rank.UpdateScore(ctx, b.ID, 30))
	require.NoError(t, f.rank.UpdateScore(ctx, c.ID, 20))

	hot, err := svc.Hot(ctx, 10, true)
	require.NoError(t, err)
	require.Len(t, hot, 3)
	assert.Equal(t, []uint64{b.ID, c.ID, a.ID}, []uint64{hot[0].ID, hot[1].ID, hot[2].ID})

	hot, err = svc.Hot(ctx, 10, false)
	require.NoError(t, err)
	assert.Len(t, hot, 2)

	// Redis 不可用时按 MySQL 热度排序
	f.mr.Close()
	stats := NewStatsService(f.db, f.images, nil, zap.NewNop())
	_, err = stats.RecordCopy(ctx, a.ID)
	require.NoError(t, err)

	hot, err = svc.Hot(ctx, 1, true)
	require.NoError(t, err)
	require.Len(t, hot, 1)
	assert.Equal(t, a.ID, hot[0].ID)
}
