package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/myErrors"
	"github.com/Xushengqwer/gallery_service/storage/storagetest"
)

func newTestLocal(t *testing.T) (Storage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocal(config.LocalStorageConfig{UploadDir: dir, PublicPrefix: "/uploads"}, 64, 80, zap.NewNop())
	require.NoError(t, err)
	return s, dir
}

func onDisk(dir, webPath string) string {
	return filepath.Join(dir, filepath.Base(webPath))
}

func TestStoreImage_WritesOriginalAndThumbnail(t *testing.T) {
	s, dir := newTestLocal(t)

	stored, err := s.StoreImage(context.Background(), storagetest.ImageFile(t, "cat.png", 300, 150))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Path, "/uploads/"))
	assert.True(t, strings.HasSuffix(stored.Path, ".png"))
	assert.True(t, strings.HasPrefix(filepath.Base(stored.ThumbnailPath), "thumb_"))
	assert.FileExists(t, onDisk(dir, stored.Path))
	assert.FileExists(t, onDisk(dir, stored.ThumbnailPath))

	data, err := os.ReadFile(onDisk(dir, stored.ThumbnailPath))
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestStoreImage_RejectsNonImage(t *testing.T) {
	s, dir := newTestLocal(t)

	_, err := s.StoreImage(context.Background(), storagetest.FileHeader(t, "evil.png", []byte("#!/bin/sh\necho hi\n")))
	require.ErrorIs(t, err, myErrors.ErrInvalidImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreImage_CorruptImageLeavesNothingBehind(t *testing.T) {
	s, dir := newTestLocal(t)

	// PNG 文件头可以通过嗅探，但内容无法解码，缩略图阶段失败
	png := storagetest.PNG(t, 20, 20)
	corrupt := append([]byte{}, png[:40]...)

	_, err := s.StoreImage(context.Background(), storagetest.FileHeader(t, "broken.png", corrupt))
	require.ErrorIs(t, err, myErrors.ErrStorage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// withDeclaredSize 改写 PNG IHDR 中声明的宽高并重算校验和，像素数据保持不变
func withDeclaredSize(t *testing.T, png []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte{}, png...)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestStoreImage_RejectsOversizedDimensionsBeforeDecoding(t *testing.T) {
	s, dir := newTestLocal(t)
	huge := withDeclaredSize(t, storagetest.PNG(t, 4, 4), 100000, 100000)

	_, err := s.StoreImage(context.Background(), storagetest.FileHeader(t, "bomb.png", huge))
	require.ErrorIs(t, err, myErrors.ErrInvalidImage)

	_, err = s.StoreReference(context.Background(), storagetest.FileHeader(t, "bomb.png", huge))
	require.ErrorIs(t, err, myErrors.ErrInvalidImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNew_MaxImagePixelsFromConfig(t *testing.T) {
	dir := t.TempDir()
	s, err := New(config.StorageConfig{
		Type:           "local",
		Local:          config.LocalStorageConfig{UploadDir: dir, PublicPrefix: "/uploads"},
		MaxImagePixels: 100,
	}, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = s.StoreReference(context.Background(), storagetest.ImageFile(t, "ok.png", 10, 10))
	require.NoError(t, err)

	_, err = s.StoreReference(context.Background(), storagetest.ImageFile(t, "big.png", 11, 10))
	assert.ErrorIs(t, err, myErrors.ErrInvalidImage)
}

func TestStoreReference_NoThumbnail(t *testing.T) {
	s, dir := newTestLocal(t)

	path, err := s.StoreReference(context.Background(), storagetest.ImageFile(t, "ref.png", 10, 10))
	require.NoError(t, err)
	assert.FileExists(t, onDisk(dir, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRemove(t *testing.T) {
	s, dir := newTestLocal(t)
	ctx := context.Background()

	path, err := s.StoreReference(ctx, storagetest.ImageFile(t, "ref.png", 10, 10))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, path))
	assert.NoFileExists(t, onDisk(dir, path))

	// 已删除、空路径、外部路径都是无操作
	assert.NoError(t, s.Remove(ctx, path))
	assert.NoError(t, s.Remove(ctx, ""))
	assert.NoError(t, s.Remove(ctx, "https://example.com/a.png"))
}

func TestFitWithin(t *testing.T) {
	cases := []struct {
		w, h, max, wantW, wantH int
	}{
		{100, 50, 400, 100, 50},
		{800, 400, 400, 400, 200},
		{400, 800, 400, 200, 400},
		{5000, 1, 400, 400, 1},
	}
	for _, c := range cases {
		w, h := fitWithin(c.w, c.h, c.max)
		assert.Equal(t, c.wantW, w)
		assert.Equal(t, c.wantH, h)
	}
}
