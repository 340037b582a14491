package service

import (
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/mq/events"
	"github.com/Xushengqwer/gallery_service/myErrors"
	"github.com/Xushengqwer/gallery_service/repo/mysql"
	"github.com/Xushengqwer/gallery_service/repo/mysql/mysqltest"
	"github.com/Xushengqwer/gallery_service/repo/redis"
	"github.com/Xushengqwer/gallery_service/storage"
	"github.com/Xushengqwer/gallery_service/storage/storagetest"
)

type fixture struct {
	db        *gorm.DB
	uploadDir string
	mr        *miniredis.Miniredis
	images    mysql.ImageRepository
	tags      mysql.TagRepository
	slots     mysql.ReferenceSlotRepository
	store     storage.Storage
	rank      redis.HeatRankRepository
	publisher *recordingPublisher
	svc       *submissionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	db := mysqltest.NewDB(t)

	uploadDir := t.TempDir()
	store, err := storage.NewLocal(config.LocalStorageConfig{UploadDir: uploadDir, PublicPrefix: "/uploads"}, 64, 80, logger)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		db:        db,
		uploadDir: uploadDir,
		mr:        mr,
		images:    mysql.NewImageRepository(db, logger),
		tags:      mysql.NewTagRepository(db),
		slots:     mysql.NewReferenceSlotRepository(),
		store:     store,
		rank:      redis.NewHeatRankRepository(client, 100, logger),
		publisher: newRecordingPublisher(),
	}
	f.svc = NewSubmissionService(db, f.images, f.tags, f.slots, f.store, f.rank, f.publisher, logger).(*submissionService)
	return f
}

// diskFiles 上传目录中的全部文件名
func (f *fixture) diskFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (f *fixture) exists(webPath string) bool {
	_, err := os.Stat(filepath.Join(f.uploadDir, filepath.Base(webPath)))
	return err == nil
}

func (f *fixture) countImages(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&entities.Image{}).Count(&n).Error)
	return n
}

func (f *fixture) tagNames(t *testing.T) []string {
	t.Helper()
	var names []string
	require.NoError(t, f.db.Model(&entities.Tag{}).Order("name ASC").Pluck("name", &names).Error)
	return names
}

// create 以最少的字段创建作品
func (f *fixture) create(t *testing.T, form dto.SubmissionForm, refs ...*multipart.FileHeader) *entities.Image {
	t.Helper()
	img, err := f.svc.Create(context.Background(), storagetest.ImageFile(t, "main.png", 120, 80), &form, refs)
	require.NoError(t, err)
	return img
}

func positions(img *entities.Image) map[uint64]int {
	out := make(map[uint64]int, len(img.ReferenceSlots))
	for _, s := range img.ReferenceSlots {
		out[s.ID] = s.Position
	}
	return out
}

// recordingPublisher 记录异步发布的事件
type recordingPublisher struct {
	pending chan events.SubmissionData
	deleted chan uint64
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{
		pending: make(chan events.SubmissionData, 64),
		deleted: make(chan uint64, 64),
	}
}

func (p *recordingPublisher) PublishSubmissionPendingReview(_ context.Context, data events.SubmissionData) error {
	p.pending <- data
	return nil
}

func (p *recordingPublisher) PublishSubmissionDeleted(_ context.Context, imageID uint64) error {
	p.deleted <- imageID
	return nil
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("等待事件超时")
	}
	var zero T
	return zero
}

// flakyStorage 对指定文件名的参考图写入返回错误
type flakyStorage struct {
	storage.Storage
	failRefs map[string]bool
}

func (s *flakyStorage) StoreReference(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.failRefs[file.Filename] {
		return "", myErrors.ErrStorage
	}
	return s.Storage.StoreReference(ctx, file)
}

var errInjected = errors.New("injected failure")

// flakyTags 可以让关联标签或清理指定孤儿标签失败
type flakyTags struct {
	mysql.TagRepository
	failAttach bool

	mu         sync.Mutex
	failOrphan map[uint64]bool
	orphanSeen []uint64
}

func (r *flakyTags) Attach(ctx context.Context, db *gorm.DB, imageID uint64, tagIDs []uint64) error {
	if r.failAttach {
		return errInjected
	}
	return r.TagRepository.Attach(ctx, db, imageID, tagIDs)
}

func (r *flakyTags) DeleteIfOrphan(ctx context.Context, tagID uint64) (bool, error) {
	r.mu.Lock()
	r.orphanSeen = append(r.orphanSeen, tagID)
	fail := r.failOrphan[tagID]
	r.mu.Unlock()
	if fail {
		return false, errInjected
	}
	return r.TagRepository.DeleteIfOrphan(ctx, tagID)
}
