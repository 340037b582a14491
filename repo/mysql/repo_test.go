package mysql

import (
	"context"
	"testing"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/repo/mysql/mysqltest"
)

type repos struct {
	db     *gorm.DB
	images ImageRepository
	tags   TagRepository
	slots  ReferenceSlotRepository
}

func newRepos(t *testing.T) repos {
	db := mysqltest.NewDB(t)
	return repos{
		db:     db,
		images: NewImageRepository(db, zap.NewNop()),
		tags:   NewTagRepository(db),
		slots:  NewReferenceSlotRepository(),
	}
}

func (r repos) seedImage(t *testing.T, title string, status enums.Status, tagNames ...string) *entities.Image {
	t.Helper()
	ctx := context.Background()
	img := &entities.Image{
		Title:         title,
		Kind:          entities.KindTxt2Img,
		Category:      entities.CategoryGallery,
		Status:        status,
		FilePath:      "/uploads/" + title + ".png",
		ThumbnailPath: "/uploads/thumb_" + title + ".jpg",
	}
	require.NoError(t, r.images.Create(ctx, r.db, img))
	ids := make([]uint64, 0, len(tagNames))
	for _, name := range tagNames {
		tag, err := r.tags.FindOrCreate(ctx, r.db, name)
		require.NoError(t, err)
		ids = append(ids, tag.ID)
	}
	require.NoError(t, r.tags.Attach(ctx, r.db, img.ID, ids))
	return img
}

func TestImageRepository_GetByIDPreloadsOrderedSlots(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	img := r.seedImage(t, "a", enums.Pending, "dog", "cat")

	for _, pos := range []int{2, 0, 1} {
		require.NoError(t, r.slots.Create(ctx, r.db, &entities.ReferenceSlot{ImageID: img.ID, Position: pos, FilePath: "/uploads/r.png"}))
	}

	got, err := r.images.GetByID(ctx, nil, img.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, got.TagNames())
	require.Len(t, got.ReferenceSlots, 3)
	for i, s := range got.ReferenceSlots {
		assert.Equal(t, i, s.Position)
	}

	_, err = r.images.GetByID(ctx, nil, 9999)
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}

func TestImageRepository_IncrementCounterKeepsHeatScoreConsistent(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	img := r.seedImage(t, "a", enums.Approved)

	for i := 0; i < 3; i++ {
		found, err := r.images.IncrementCounter(ctx, r.db, img.ID, CounterView)
		require.NoError(t, err)
		assert.True(t, found)
	}
	found, err := r.images.IncrementCounter(ctx, r.db, img.ID, CounterCopy)
	require.NoError(t, err)
	assert.True(t, found)

	got, err := r.images.GetByID(ctx, nil, img.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.ViewCount)
	assert.EqualValues(t, 1, got.CopyCount)
	assert.EqualValues(t, 13, got.HeatScore)

	found, err = r.images.IncrementCounter(ctx, r.db, 424242, CounterView)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestImageRepository_ListPublic(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	sunset := r.seedImage(t, "sunset", enums.Approved, "landscape")
	r.seedImage(t, "pending", enums.Pending, "landscape")
	nsfw := r.seedImage(t, "nsfw", enums.Approved, "landscape", "r18")
	sensitive, err := r.tags.FindOrCreate(ctx, r.db, "r18")
	require.NoError(t, err)
	require.NoError(t, r.tags.SetSensitive(ctx, sensitive.ID, true))

	images, total, err := r.images.ListPublic(ctx, &dto.PublicListParams{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, images, 1)
	assert.Equal(t, sunset.ID, images[0].ID)

	images, total, err = r.images.ListPublic(ctx, &dto.PublicListParams{ShowSensitive: true, Tag: "landscape", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, images, 2)

	images, _, err = r.images.ListPublic(ctx, &dto.PublicListParams{ShowSensitive: true, Q: "nsf", Limit: 10})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, nsfw.ID, images[0].ID)

	images, _, err = r.images.ListPublic(ctx, &dto.PublicListParams{ShowSensitive: true, Sort: dto.SortRandom, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, images, 2)
}

func TestImageRepository_ListPublicHotOrder(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	r.seedImage(t, "cold", enums.Approved)
	hot := r.seedImage(t, "hot", enums.Approved)
	_, err := r.images.IncrementCounter(ctx, r.db, hot.ID, CounterCopy)
	require.NoError(t, err)

	images, _, err := r.images.ListPublic(ctx, &dto.PublicListParams{Sort: dto.SortHot, Limit: 10})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, hot.ID, images[0].ID)

	top, err := r.images.TopApprovedByHeat(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, hot.ID, top[0].ID)
}

func TestImageRepository_ListApprovedByIDsKeepsOrder(t *testing.T) {
	r := newRepos(t)
	a := r.seedImage(t, "a", enums.Approved)
	b := r.seedImage(t, "b", enums.Approved)
	c := r.seedImage(t, "c", enums.Rejected)

	got, err := r.images.ListApprovedByIDs(context.Background(), []uint64{b.ID, c.ID, 777, a.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)
}

func TestImageRepository_UpdateStatus(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	img := r.seedImage(t, "a", enums.Pending)

	require.NoError(t, r.images.UpdateStatus(ctx, img.ID, enums.Approved))
	// 状态未变化也不是错误
	require.NoError(t, r.images.UpdateStatus(ctx, img.ID, enums.Approved))
	assert.ErrorIs(t, r.images.UpdateStatus(ctx, 999, enums.Approved), commonerrors.ErrRepoNotFound)

	status := enums.Approved
	images, total, err := r.images.ListAdmin(ctx, &dto.AdminListQuery{Status: &status}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, images, 1)
}

func TestImageRepository_DeleteRemovesJoinRowsAndSlots(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	img := r.seedImage(t, "a", enums.Approved, "x")
	require.NoError(t, r.slots.Create(ctx, r.db, &entities.ReferenceSlot{ImageID: img.ID, IsPlaceholder: true}))

	require.NoError(t, r.db.Transaction(func(tx *gorm.DB) error {
		return r.images.Delete(ctx, tx, img.ID)
	}))

	var joins, slots int64
	require.NoError(t, r.db.Model(&entities.ImageTag{}).Count(&joins).Error)
	require.NoError(t, r.db.Model(&entities.ReferenceSlot{}).Count(&slots).Error)
	assert.Zero(t, joins)
	assert.Zero(t, slots)

	err := r.db.Transaction(func(tx *gorm.DB) error { return r.images.Delete(ctx, tx, img.ID) })
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}

func TestTagRepository_AttachIsIdempotent(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	img := r.seedImage(t, "a", enums.Approved)
	tag, err := r.tags.FindOrCreate(ctx, r.db, "cat")
	require.NoError(t, err)
	again, err := r.tags.FindOrCreate(ctx, r.db, "cat")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, again.ID)

	require.NoError(t, r.tags.Attach(ctx, r.db, img.ID, []uint64{tag.ID}))
	require.NoError(t, r.tags.Attach(ctx, r.db, img.ID, []uint64{tag.ID}))

	var count int64
	require.NoError(t, r.db.Model(&entities.ImageTag{}).Where("image_id = ?", img.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTagRepository_Orphans(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	img := r.seedImage(t, "a", enums.Approved, "used")
	lonely, err := r.tags.FindOrCreate(ctx, r.db, "lonely")
	require.NoError(t, err)
	used, err := r.tags.FindOrCreate(ctx, r.db, "used")
	require.NoError(t, err)

	deleted, err := r.tags.DeleteIfOrphan(ctx, used.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = r.tags.DeleteIfOrphan(ctx, lonely.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	require.NoError(t, r.tags.DetachAll(ctx, r.db, img.ID))
	n, err := r.tags.DeleteAllOrphans(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = r.tags.GetByID(ctx, used.ID)
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}

func TestTagRepository_ListVisible(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	r.seedImage(t, "a", enums.Approved, "cat", "r18")
	r.seedImage(t, "b", enums.Pending, "hidden")
	sensitive, err := r.tags.FindOrCreate(ctx, r.db, "r18")
	require.NoError(t, err)
	require.NoError(t, r.tags.SetSensitive(ctx, sensitive.ID, true))

	tags, err := r.tags.ListVisible(ctx, false)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "cat", tags[0].Name)

	tags, err = r.tags.ListVisible(ctx, true)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	assert.ErrorIs(t, r.tags.SetSensitive(ctx, 999, true), commonerrors.ErrRepoNotFound)
}

func TestReferenceSlotRepository_MaxPosition(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	img := r.seedImage(t, "a", enums.Approved)

	_, ok, err := r.slots.MaxPosition(ctx, r.db, img.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	slot := &entities.ReferenceSlot{ImageID: img.ID, Position: 4, FilePath: "/uploads/r.png"}
	require.NoError(t, r.slots.Create(ctx, r.db, slot))
	require.NoError(t, r.slots.Create(ctx, r.db, &entities.ReferenceSlot{ImageID: img.ID, Position: 1, IsPlaceholder: true}))

	maxPos, ok, err := r.slots.MaxPosition(ctx, r.db, img.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, maxPos)

	require.NoError(t, r.slots.UpdatePosition(ctx, r.db, slot.ID, 0))
	list, err := r.slots.ListByImage(ctx, r.db, img.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, slot.ID, list[0].ID)

	require.NoError(t, r.slots.Delete(ctx, r.db, slot.ID))
	_, err = r.slots.GetByID(ctx, r.db, slot.ID)
	assert.ErrorIs(t, err, commonerrors.ErrRepoNotFound)
}
