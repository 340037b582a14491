package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/dependencies"
	"github.com/Xushengqwer/gallery_service/myErrors"
)

// StoredImage 一次主图写入的结果，两个路径总是同时存在
type StoredImage struct {
	Path          string
	ThumbnailPath string
}

// Storage 定义了作品文件的存取接口。
// 返回的路径可直接用于 web 访问 (本地存储为站内路径，COS 为完整 URL)。
type Storage interface {
	// StoreImage 写入主图并生成缩略图。
	// - 上传内容必须是受支持的图片，否则返回 myErrors.ErrInvalidImage，不会写入任何文件。
	// - 缩略图生成失败时已写入的原图会被删除，保证两者同生同灭。
	StoreImage(ctx context.Context, file *multipart.FileHeader) (StoredImage, error)

	// StoreReference 写入一张参考图 (不生成缩略图)
	StoreReference(ctx context.Context, file *multipart.FileHeader) (string, error)

	// Remove 删除路径对应的文件；路径为空或文件不存在时不做任何事
	Remove(ctx context.Context, path string) error
}

// blobBackend 底层的对象读写，由本地磁盘或 COS 实现
type blobBackend interface {
	put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	delete(ctx context.Context, path string) error
}

// allowedImageTypes 允许上传的图片 MIME 类型 -> 存储扩展名
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type fileStorage struct {
	backend       blobBackend
	imagePrefix   string
	refPrefix     string
	thumbnailSize int
	jpegQuality   int
	maxPixels     int64
	logger        *zap.Logger
}

// New 根据配置创建 Storage。
// cosClient 仅在 type=cos 时使用，可以为 nil。
func New(cfg config.StorageConfig, cosClient dependencies.COSClientInterface, logger *zap.Logger) (Storage, error) {
	var backend blobBackend
	var imagePrefix, refPrefix string

	switch strings.ToLower(cfg.Type) {
	case "", constant.StorageTypeLocal:
		local, err := newLocalBackend(cfg.Local)
		if err != nil {
			return nil, err
		}
		backend = local
	case constant.StorageTypeCOS:
		if cosClient == nil {
			return nil, fmt.Errorf("存储类型为 cos 但未初始化 COS 客户端")
		}
		backend = &cosBackend{client: cosClient}
		imagePrefix = constant.COSObjectKeyPrefixImages
		refPrefix = constant.COSObjectKeyPrefixRefs
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Type)
	}

	logger.Info("文件存储初始化完成", zap.String("type", cfg.Type))
	s := newFileStorage(backend, imagePrefix, refPrefix, cfg.ThumbnailSize, cfg.JPEGQuality, logger)
	if cfg.MaxImagePixels > 0 {
		s.maxPixels = cfg.MaxImagePixels
	}
	return s, nil
}

// NewLocal 创建本地磁盘存储
func NewLocal(cfg config.LocalStorageConfig, thumbnailSize, jpegQuality int, logger *zap.Logger) (Storage, error) {
	local, err := newLocalBackend(cfg)
	if err != nil {
		return nil, err
	}
	return newFileStorage(local, "", "", thumbnailSize, jpegQuality, logger), nil
}

func newFileStorage(backend blobBackend, imagePrefix, refPrefix string, thumbnailSize, jpegQuality int, logger *zap.Logger) *fileStorage {
	if thumbnailSize <= 0 {
		thumbnailSize = constant.DefaultThumbnailSize
	}
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = constant.DefaultJPEGQuality
	}
	return &fileStorage{
		backend:       backend,
		imagePrefix:   imagePrefix,
		refPrefix:     refPrefix,
		thumbnailSize: thumbnailSize,
		jpegQuality:   jpegQuality,
		maxPixels:     constant.DefaultMaxImagePixels,
		logger:        logger,
	}
}

func (s *fileStorage) StoreImage(ctx context.Context, file *multipart.FileHeader) (StoredImage, error) {
	data, contentType, ext, err := s.readImage(file)
	if err != nil {
		return StoredImage{}, err
	}

	name := uuid.NewString()
	path, err := s.backend.put(ctx, s.imagePrefix+name+ext, data, contentType)
	if err != nil {
		return StoredImage{}, fmt.Errorf("%w: 写入主图 %s: %v", myErrors.ErrStorage, file.Filename, err)
	}

	thumb, err := makeThumbnail(data, s.thumbnailSize, s.jpegQuality)
	if err == nil {
		var thumbPath string
		thumbPath, err = s.backend.put(ctx, s.imagePrefix+constant.ThumbnailFilePrefix+name+".jpg", thumb, "image/jpeg")
		if err == nil {
			return StoredImage{Path: path, ThumbnailPath: thumbPath}, nil
		}
	}

	// 缩略图失败，撤回原图
	if rmErr := s.backend.delete(ctx, path); rmErr != nil {
		s.logger.Error("缩略图失败后删除原图失败", zap.String("path", path), zap.Error(rmErr))
	}
	return StoredImage{}, fmt.Errorf("%w: 生成缩略图 %s: %v", myErrors.ErrStorage, file.Filename, err)
}

func (s *fileStorage) StoreReference(ctx context.Context, file *multipart.FileHeader) (string, error) {
	data, contentType, ext, err := s.readImage(file)
	if err != nil {
		return "", err
	}
	path, err := s.backend.put(ctx, s.refPrefix+"ref_"+uuid.NewString()+ext, data, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: 写入参考图 %s: %v", myErrors.ErrStorage, file.Filename, err)
	}
	return path, nil
}

func (s *fileStorage) Remove(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	return s.backend.delete(ctx, path)
}

// readImage 读取整个上传内容并按内容嗅探类型，扩展名由嗅探结果决定而非客户端文件名。
// 声明尺寸超过 maxPixels 的图片在解码前即被拒绝。
func (s *fileStorage) readImage(file *multipart.FileHeader) ([]byte, string, string, error) {
	if file == nil {
		return nil, "", "", myErrors.ErrInvalidImage
	}
	f, err := file.Open()
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: 打开上传文件 %s: %v", myErrors.ErrStorage, file.Filename, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return nil, "", "", fmt.Errorf("%w: 读取上传文件 %s: %v", myErrors.ErrStorage, file.Filename, err)
	}
	data := buf.Bytes()

	mt := mimetype.Detect(data)
	ext, ok := allowedImageTypes[mt.String()]
	if !ok {
		return nil, "", "", fmt.Errorf("%w: %s (%s)", myErrors.ErrInvalidImage, filepath.Base(file.Filename), mt.String())
	}
	if err := checkDimensions(data, s.maxPixels); err != nil {
		return nil, "", "", fmt.Errorf("%w: %s: %v", myErrors.ErrInvalidImage, filepath.Base(file.Filename), err)
	}
	return data, mt.String(), ext, nil
}
