package service

import (
	"context"
	"errors"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/models/vo"
	"github.com/Xushengqwer/gallery_service/myErrors"
	"github.com/Xushengqwer/gallery_service/repo/mysql"
	"github.com/Xushengqwer/gallery_service/repo/redis"
)

// GalleryService 公开画廊的只读查询。
// showSensitive 由控制器根据请求判定 (登录用户或开关 Cookie)。
type GalleryService interface {
	// List 已审核作品分页列表，支持关键词、标签、分类筛选与三种排序
	List(ctx context.Context, query *dto.GalleryQuery, showSensitive bool) (*vo.GalleryPageVO, error)

	// Tags 至少关联一个已审核作品的标签，按名称排序
	Tags(ctx context.Context, showSensitive bool) ([]vo.TagVO, error)

	// APIList 面向外部调用方的全量分页接口，最新优先，不做敏感过滤
	APIList(ctx context.Context, page, perPage int) (*vo.APIListVO, error)

	// Get 单个已审核作品；未找到、未审核或被敏感过滤时返回 commonerrors.ErrRepoNotFound
	Get(ctx context.Context, id uint64, showSensitive bool) (*entities.Image, error)

	// Hot 热门作品。优先读取 Redis 热度榜，榜单不可用时回退到 MySQL。
	Hot(ctx context.Context, limit int, showSensitive bool) ([]*entities.Image, error)
}

type galleryService struct {
	imageRepo mysql.ImageRepository
	tagRepo   mysql.TagRepository
	heatRank  redis.HeatRankRepository
	cfg       config.GalleryConfig
	logger    *zap.Logger
}

// NewGalleryService heatRank 可以为 nil，此时热门列表直接查询 MySQL
func NewGalleryService(
	imageRepo mysql.ImageRepository,
	tagRepo mysql.TagRepository,
	heatRank redis.HeatRankRepository,
	cfg config.GalleryConfig,
	logger *zap.Logger,
) GalleryService {
	if cfg.ItemsPerPage <= 0 {
		cfg.ItemsPerPage = constant.DefaultItemsPerPage
	}
	if cfg.APIMaxPerPage <= 0 {
		cfg.APIMaxPerPage = constant.DefaultAPIMaxPerPage
	}
	return &galleryService{
		imageRepo: imageRepo,
		tagRepo:   tagRepo,
		heatRank:  heatRank,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *galleryService) List(ctx context.Context, query *dto.GalleryQuery, showSensitive bool) (*vo.GalleryPageVO, error) {
	page := query.Page
	if page <= 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.ItemsPerPage
	}

	images, total, err := s.imageRepo.ListPublic(ctx, &dto.PublicListParams{
		Q:             query.Q,
		Tag:           query.Tag,
		Category:      query.Category,
		Sort:          query.Sort,
		ShowSensitive: showSensitive,
		Offset:        dto.Offset(page, pageSize),
		Limit:         pageSize,
	})
	if err != nil {
		return nil, err
	}

	return &vo.GalleryPageVO{
		Items:    vo.NewSubmissionVOs(images),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    vo.TotalPages(total, pageSize),
	}, nil
}

func (s *galleryService) Tags(ctx context.Context, showSensitive bool) ([]vo.TagVO, error) {
	tags, err := s.tagRepo.ListVisible(ctx, showSensitive)
	if err != nil {
		s.logger.Error("查询标签列表失败", zap.Error(err))
		return nil, err
	}
	return vo.NewTagVOs(tags), nil
}

func (s *galleryService) APIList(ctx context.Context, page, perPage int) (*vo.APIListVO, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = constant.DefaultAPIPerPage
	}
	if perPage > s.cfg.APIMaxPerPage {
		perPage = s.cfg.APIMaxPerPage
	}

	images, total, err := s.imageRepo.ListPublic(ctx, &dto.PublicListParams{
		Sort:          dto.SortDate,
		ShowSensitive: true,
		Offset:        dto.Offset(page, perPage),
		Limit:         perPage,
	})
	if err != nil {
		return nil, err
	}
	return &vo.APIListVO{
		CurrentPage: page,
		Pages:       vo.TotalPages(total, perPage),
		Total:       total,
		Data:        vo.NewSubmissionVOs(images),
	}, nil
}

func (s *galleryService) Get(ctx context.Context, id uint64, showSensitive bool) (*entities.Image, error) {
	img, err := s.imageRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if img.Status != enums.Approved || (!showSensitive && hasSensitiveTag(img)) {
		return nil, commonerrors.ErrRepoNotFound
	}
	return img, nil
}

func (s *galleryService) Hot(ctx context.Context, limit int, showSensitive bool) ([]*entities.Image, error) {
	if limit <= 0 {
		limit = constant.DefaultHotLimit
	}

	images, err := s.hotFromRank(ctx, limit)
	if err != nil {
		if !errors.Is(err, myErrors.ErrCacheMiss) {
			s.logger.Warn("读取 Redis 热度榜失败，回退到 MySQL", zap.Error(err))
		}
		images, err = s.imageRepo.TopApprovedByHeat(ctx, limit)
		if err != nil {
			s.logger.Error("从 MySQL 查询热门作品失败", zap.Error(err))
			return nil, err
		}
	}

	if showSensitive {
		return images, nil
	}
	visible := make([]*entities.Image, 0, len(images))
	for _, img := range images {
		if !hasSensitiveTag(img) {
			visible = append(visible, img)
		}
	}
	return visible, nil
}

func (s *galleryService) hotFromRank(ctx context.Context, limit int) ([]*entities.Image, error) {
	if s.heatRank == nil {
		return nil, myErrors.ErrCacheMiss
	}
	ids, err := s.heatRank.TopIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.imageRepo.ListApprovedByIDs(ctx, ids)
}

func hasSensitiveTag(img *entities.Image) bool {
	for _, t := range img.Tags {
		if t.IsSensitive {
			return true
		}
	}
	return false
}
