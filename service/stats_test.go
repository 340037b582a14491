package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/models/dto"
)

func TestStats_HeatScoreFollowsCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	img := f.create(t, approvedForm("t", ""))
	svc := NewStatsService(f.db, f.images, f.rank, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := svc.RecordView(ctx, img.ID)
		require.NoError(t, err)
	}
	out, err := svc.RecordCopy(ctx, img.ID)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, int64(3), out.ViewCount)
	assert.Equal(t, int64(1), out.CopyCount)
	assert.Equal(t, int64(13), out.HeatScore)

	got, err := f.images.GetByID(ctx, nil, img.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ViewCount*1+got.CopyCount*10, got.HeatScore)

	score, err := f.mr.ZScore("gallery:heat_rank", "1")
	require.NoError(t, err)
	assert.Equal(t, float64(13), score)
}

func TestStats_PendingImageStaysOutOfRank(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	img := f.create(t, dto.SubmissionForm{Title: "t"})
	svc := NewStatsService(f.db, f.images, f.rank, zap.NewNop())

	out, err := svc.RecordView(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.HeatScore)
	assert.False(t, f.mr.Exists("gallery:heat_rank"))
}

func TestStats_UnknownIDIsNoop(t *testing.T) {
	f := newFixture(t)
	svc := NewStatsService(f.db, f.images, f.rank, zap.NewNop())

	out, err := svc.RecordView(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, out)
}
