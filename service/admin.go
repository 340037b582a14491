package service

import (
	"context"
	"errors"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"

	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/models/vo"
	"github.com/Xushengqwer/gallery_service/repo/mysql"
	"github.com/Xushengqwer/gallery_service/repo/redis"
)

const defaultAdminPageSize = 20

// AdminService 定义了管理员对作品与标签的管理操作
type AdminService interface {
	// List 按状态、分类、标题分页查询作品 (包含未审核与已拒绝)
	List(ctx context.Context, query *dto.AdminListQuery) (*vo.AdminPageVO, error)

	// SetStatus 修改作品审核状态，并同步 Redis 热度榜。
	// - 作品不存在返回 commonerrors.ErrRepoNotFound。
	SetStatus(ctx context.Context, id uint64, status enums.Status) (*entities.Image, error)

	// SetTagSensitive 标记或取消标记敏感标签，标签不存在返回 commonerrors.ErrRepoNotFound
	SetTagSensitive(ctx context.Context, tagID uint64, sensitive bool) (*vo.TagVO, error)
}

type adminService struct {
	imageRepo mysql.ImageRepository
	tagRepo   mysql.TagRepository
	heat      heatRankSync
	logger    *zap.Logger
}

func NewAdminService(imageRepo mysql.ImageRepository, tagRepo mysql.TagRepository, heatRank redis.HeatRankRepository, logger *zap.Logger) AdminService {
	return &adminService{
		imageRepo: imageRepo,
		tagRepo:   tagRepo,
		heat:      heatRankSync{rank: heatRank, logger: logger},
		logger:    logger,
	}
}

func (s *adminService) List(ctx context.Context, query *dto.AdminListQuery) (*vo.AdminPageVO, error) {
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultAdminPageSize
	}
	images, total, err := s.imageRepo.ListAdmin(ctx, query, dto.Offset(query.Page, pageSize), pageSize)
	if err != nil {
		return nil, err
	}
	return &vo.AdminPageVO{Items: vo.NewSubmissionVOs(images), Total: total}, nil
}

func (s *adminService) SetStatus(ctx context.Context, id uint64, status enums.Status) (*entities.Image, error) {
	if err := s.imageRepo.UpdateStatus(ctx, id, status); err != nil {
		if !errors.Is(err, commonerrors.ErrRepoNotFound) {
			s.logger.Error("更新作品状态失败", zap.Uint64("imageID", id), zap.Int("status", int(status)), zap.Error(err))
		}
		return nil, err
	}

	img, err := s.imageRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	s.heat.refresh(ctx, img)

	s.logger.Info("作品审核状态已更新", zap.Uint64("imageID", id), zap.Int("status", int(status)))
	return img, nil
}

func (s *adminService) SetTagSensitive(ctx context.Context, tagID uint64, sensitive bool) (*vo.TagVO, error) {
	if err := s.tagRepo.SetSensitive(ctx, tagID, sensitive); err != nil {
		return nil, err
	}
	tag, err := s.tagRepo.GetByID(ctx, tagID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("标签敏感标记已更新", zap.Uint64("tagID", tagID), zap.Bool("sensitive", sensitive))
	return &vo.TagVO{ID: tag.ID, Name: tag.Name, IsSensitive: tag.IsSensitive}, nil
}
