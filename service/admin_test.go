package service

import (
	"context"
	"testing"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/models/dto"
)

func TestAdmin_SetStatusSyncsHeatRank(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	img := f.create(t, dto.SubmissionForm{Title: "t"})
	svc := NewAdminService(f.images, f.tags, f.rank, zap.NewNop())

	got, err := svc.SetStatus(ctx, img.ID, enums.Approved)
	require.NoError(t, err)
	assert.Equal(t, enums.Approved, got.Status)
	_, err = f.mr.ZScore("gallery:heat_rank", "1")
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, img.ID, enums.Rejected)
	require.NoError(t, err)
	_, err = f.mr.ZScore("gallery:heat_rank", "1")
	assert.Error(t, err)

	_, err = svc.SetStatus(ctx, 404, enums.Approved)
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}

func TestAdmin_ListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, approvedForm("a", ""))
	f.create(t, dto.SubmissionForm{Title: "b"})
	f.create(t, dto.SubmissionForm{Title: "c"})
	svc := NewAdminService(f.images, f.tags, f.rank, zap.NewNop())

	pending := enums.Pending
	page, err := svc.List(ctx, &dto.AdminListQuery{Status: &pending, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c", page.Items[0].Title)

	page, err = svc.List(ctx, &dto.AdminListQuery{Title: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestAdmin_SetTagSensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	img := f.create(t, dto.SubmissionForm{Title: "t", Tags: "x"})
	svc := NewAdminService(f.images, f.tags, f.rank, zap.NewNop())

	tag, err := svc.SetTagSensitive(ctx, img.Tags[0].ID, true)
	require.NoError(t, err)
	assert.True(t, tag.IsSensitive)
	assert.Equal(t, "x", tag.Name)

	_, err = svc.SetTagSensitive(ctx, 404, true)
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}

func TestParseTagNames(t *testing.T) {
	assert.Equal(t, []string{"dog", "猫"}, ParseTagNames("猫, 猫，dog"))
	assert.Empty(t, ParseTagNames(" , ，"))
}
