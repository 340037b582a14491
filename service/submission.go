package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/myErrors"
	"github.com/Xushengqwer/gallery_service/repo/mysql"
	"github.com/Xushengqwer/gallery_service/repo/redis"
	"github.com/Xushengqwer/gallery_service/storage"
)

// SubmissionService 定义了作品投稿的核心业务：创建、编辑、删除。
// 每个操作的数据库部分在一个事务内完成，文件写入与数据库状态保持一致。
type SubmissionService interface {
	// Create 处理新作品上传。
	// - mainFile 必须存在，否则返回 myErrors.ErrMissingMainFile，且不会写入任何文件。
	// - 主图与缩略图写入成功后，作品、标签、参考图槽位在同一事务中入库。
	// - 事务失败时，本次写入的全部文件 (主图、缩略图、参考图) 会被删除，错误原样返回。
	// - 参考图只在 type=img2img 时处理：有布局描述则按布局调和，否则按上传顺序从 0 开始排列。
	// - 成功后异步发送待审核事件。
	Create(ctx context.Context, mainFile *multipart.FileHeader, form *dto.SubmissionForm, refFiles []*multipart.FileHeader) (*entities.Image, error)

	// Update 编辑已有作品。
	// - 作品不存在返回 commonerrors.ErrRepoNotFound。
	// - 元数据整体覆盖；form.TagsPresent 为 true 时替换标签集合，否则保持不变。
	// - 提供了新主图时替换主图与缩略图，旧文件在事务提交后删除。
	// - deletedSlotIDs 中不属于该作品的槽位被静默跳过。
	// - 事务失败时删除本次新写入的文件，被替换/删除的旧文件保持不动。
	Update(ctx context.Context, id uint64, form *dto.SubmissionForm, newMainFile *multipart.FileHeader, newRefFiles []*multipart.FileHeader, deletedSlotIDs []uint64) (*entities.Image, error)

	// Delete 删除作品。
	// - 作品不存在返回 false, nil。
	// - 事务提交后尽力删除全部物理文件，再逐个回收不再被引用的标签。
	Delete(ctx context.Context, id uint64) (bool, error)
}

type submissionService struct {
	db        *gorm.DB
	imageRepo mysql.ImageRepository
	tagRepo   mysql.TagRepository
	slotRepo  mysql.ReferenceSlotRepository
	storage   storage.Storage
	heat      heatRankSync
	publisher EventPublisher
	logger    *zap.Logger
}

// NewSubmissionService 构造函数。heatRank 与 publisher 可以为 nil。
func NewSubmissionService(
	db *gorm.DB,
	imageRepo mysql.ImageRepository,
	tagRepo mysql.TagRepository,
	slotRepo mysql.ReferenceSlotRepository,
	store storage.Storage,
	heatRank redis.HeatRankRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{
		db:        db,
		imageRepo: imageRepo,
		tagRepo:   tagRepo,
		slotRepo:  slotRepo,
		storage:   store,
		heat:      heatRankSync{rank: heatRank, logger: logger},
		publisher: publisher,
		logger:    logger,
	}
}

func validateForm(form *dto.SubmissionForm) error {
	form.Normalize()
	if form.Title == "" {
		return fmt.Errorf("%w: 标题不能为空", myErrors.ErrInvalidInput)
	}
	if !form.Kind.Valid() {
		return fmt.Errorf("%w: 未知的作品类型 %q", myErrors.ErrInvalidInput, form.Kind)
	}
	if !form.Category.Valid() {
		return fmt.Errorf("%w: 未知的作品分类 %q", myErrors.ErrInvalidInput, form.Category)
	}
	if form.Status != nil && (*form.Status < enums.Pending || *form.Status > enums.Rejected) {
		return fmt.Errorf("%w: 未知的作品状态 %d", myErrors.ErrInvalidInput, *form.Status)
	}
	return nil
}

// removeFiles 尽力删除文件，失败只记录日志。
// 请求 ctx 可能已被超时中间件取消，清理使用脱离取消信号的 ctx。
func (s *submissionService) removeFiles(ctx context.Context, paths []string, reason string) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range paths {
		if err := s.storage.Remove(ctx, p); err != nil {
			s.logger.Error("删除文件失败", zap.String("path", p), zap.String("reason", reason), zap.Error(err))
		}
	}
}

func (s *submissionService) Create(ctx context.Context, mainFile *multipart.FileHeader, form *dto.SubmissionForm, refFiles []*multipart.FileHeader) (*entities.Image, error) {
	if mainFile == nil || mainFile.Filename == "" {
		return nil, myErrors.ErrMissingMainFile
	}
	if err := validateForm(form); err != nil {
		return nil, err
	}

	// 1. 写入主图与缩略图
	stored, err := s.storage.StoreImage(ctx, mainFile)
	if err != nil {
		s.logger.Error("写入主图失败", zap.String("filename", mainFile.Filename), zap.Error(err))
		return nil, err
	}
	written := []string{stored.Path, stored.ThumbnailPath}

	// 2. 在事务中写入作品、标签与参考图槽位
	status := enums.Pending
	if form.Status != nil {
		status = *form.Status
	}
	img := &entities.Image{
		Title:         form.Title,
		Author:        form.Author,
		Prompt:        form.Prompt,
		Description:   form.Description,
		Kind:          form.Kind,
		Category:      form.Category,
		Status:        status,
		FilePath:      stored.Path,
		ThumbnailPath: stored.ThumbnailPath,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if repoErr := s.imageRepo.Create(ctx, tx, img); repoErr != nil {
			return fmt.Errorf("创建作品失败: %w", repoErr)
		}
		if tagErr := s.applyTags(ctx, tx, img.ID, form.Tags); tagErr != nil {
			return tagErr
		}
		if img.Kind != entities.KindImg2Img {
			return nil
		}
		if form.RefLayout != "" {
			return s.reconcileLayout(ctx, tx, img.ID, form.RefLayout, refFiles, &written)
		}
		return s.appendRefs(ctx, tx, img.ID, refFiles, 0, &written)
	})
	if err != nil {
		s.logger.Error("创建作品事务失败，清理本次写入的文件", zap.Strings("files", written), zap.Error(err))
		s.removeFiles(ctx, written, "create rollback")
		return nil, err
	}

	// --- 事务成功 ---
	created, err := s.imageRepo.GetByID(ctx, nil, img.ID)
	if err != nil {
		return nil, fmt.Errorf("读取新建作品失败: %w", err)
	}
	s.heat.refresh(ctx, created)

	if s.publisher != nil {
		data := newSubmissionData(created)
		publishAsync(s.logger, "submission_pending_review", created.ID, func(ctx context.Context) error {
			return s.publisher.PublishSubmissionPendingReview(ctx, data)
		})
	}

	s.logger.Info("作品创建成功", zap.Uint64("imageID", created.ID), zap.Int("refs", len(created.ReferenceSlots)), zap.Int("tags", len(created.Tags)))
	return created, nil
}

func (s *submissionService) Update(ctx context.Context, id uint64, form *dto.SubmissionForm, newMainFile *multipart.FileHeader, newRefFiles []*multipart.FileHeader, deletedSlotIDs []uint64) (*entities.Image, error) {
	if err := validateForm(form); err != nil {
		return nil, err
	}

	var written []string      // 本次新写入的文件，事务失败时删除
	var obsolete []string     // 被替换或删除的旧文件，事务提交后删除
	var detachedTags []uint64 // 被替换掉的旧标签，提交后检查是否成为孤儿

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		img, repoErr := s.imageRepo.GetForUpdate(ctx, tx, id)
		if repoErr != nil {
			return repoErr
		}

		// 1. 元数据整体覆盖
		img.Title = form.Title
		img.Author = form.Author
		img.Prompt = form.Prompt
		img.Description = form.Description
		img.Kind = form.Kind
		img.Category = form.Category
		if form.Status != nil {
			img.Status = *form.Status
		}

		// 2. 替换主图
		if newMainFile != nil && newMainFile.Filename != "" {
			stored, storeErr := s.storage.StoreImage(ctx, newMainFile)
			if storeErr != nil {
				return storeErr
			}
			written = append(written, stored.Path, stored.ThumbnailPath)
			obsolete = append(obsolete, img.FilePath, img.ThumbnailPath)
			img.FilePath = stored.Path
			img.ThumbnailPath = stored.ThumbnailPath
		}

		if saveErr := s.imageRepo.Save(ctx, tx, img); saveErr != nil {
			return fmt.Errorf("保存作品失败: %w", saveErr)
		}

		// 3. 标签：字段出现即整体替换
		if form.TagsPresent {
			for _, t := range img.Tags {
				detachedTags = append(detachedTags, t.ID)
			}
			if detachErr := s.tagRepo.DetachAll(ctx, tx, img.ID); detachErr != nil {
				return fmt.Errorf("清除作品标签失败: %w", detachErr)
			}
			if tagErr := s.applyTags(ctx, tx, img.ID, form.Tags); tagErr != nil {
				return tagErr
			}
		}

		// 4. 删除指定槽位，只处理属于本作品的
		for _, slotID := range deletedSlotIDs {
			slot, getErr := s.slotRepo.GetByID(ctx, tx, slotID)
			if errors.Is(getErr, commonerrors.ErrRepoNotFound) {
				s.logger.Warn("待删除的参考图槽位不存在，已跳过", zap.Uint64("imageID", id), zap.Uint64("slotID", slotID))
				continue
			}
			if getErr != nil {
				return fmt.Errorf("读取参考图槽位失败: %w", getErr)
			}
			if slot.ImageID != id {
				s.logger.Warn("待删除的参考图槽位属于其他作品，已跳过", zap.Uint64("imageID", id), zap.Uint64("slotID", slotID), zap.Uint64("ownerID", slot.ImageID))
				continue
			}
			if delErr := s.slotRepo.Delete(ctx, tx, slot.ID); delErr != nil {
				return fmt.Errorf("删除参考图槽位失败: %w", delErr)
			}
			if slot.FilePath != "" {
				obsolete = append(obsolete, slot.FilePath)
			}
		}

		// 5. 参考图调和
		if form.RefLayout != "" {
			return s.reconcileLayout(ctx, tx, img.ID, form.RefLayout, newRefFiles, &written)
		}
		if len(newRefFiles) == 0 {
			return nil
		}
		start := 0
		maxPos, ok, posErr := s.slotRepo.MaxPosition(ctx, tx, img.ID)
		if posErr != nil {
			return fmt.Errorf("查询参考图最大位置失败: %w", posErr)
		}
		if ok {
			start = maxPos + 1
		}
		return s.appendRefs(ctx, tx, img.ID, newRefFiles, start, &written)
	})
	if err != nil {
		if len(written) > 0 {
			s.logger.Error("编辑作品事务失败，清理本次写入的文件", zap.Uint64("imageID", id), zap.Strings("files", written), zap.Error(err))
			s.removeFiles(ctx, written, "update rollback")
		}
		return nil, err
	}

	// --- 事务成功 ---
	s.removeFiles(ctx, obsolete, "update replaced")
	s.cleanOrphanTags(ctx, detachedTags)

	updated, err := s.imageRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("读取已编辑作品失败: %w", err)
	}
	s.heat.refresh(ctx, updated)

	s.logger.Info("作品编辑成功", zap.Uint64("imageID", id))
	return updated, nil
}

func (s *submissionService) Delete(ctx context.Context, id uint64) (bool, error) {
	var files []string
	var tagIDs []uint64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		img, repoErr := s.imageRepo.GetForUpdate(ctx, tx, id)
		if repoErr != nil {
			return repoErr
		}
		// 先收集文件与标签，再删除数据库行
		files = img.FilePaths()
		for _, t := range img.Tags {
			tagIDs = append(tagIDs, t.ID)
		}
		return s.imageRepo.Delete(ctx, tx, id)
	})
	if errors.Is(err, commonerrors.ErrRepoNotFound) {
		s.logger.Warn("尝试删除不存在的作品", zap.Uint64("imageID", id))
		return false, nil
	}
	if err != nil {
		s.logger.Error("删除作品事务失败", zap.Uint64("imageID", id), zap.Error(err))
		return false, err
	}

	// --- 事务成功 ---
	s.removeFiles(ctx, files, "delete")
	s.cleanOrphanTags(ctx, tagIDs)
	s.heat.remove(ctx, id)

	if s.publisher != nil {
		publishAsync(s.logger, "submission_deleted", id, func(ctx context.Context) error {
			return s.publisher.PublishSubmissionDeleted(ctx, id)
		})
	}

	s.logger.Info("作品删除完成", zap.Uint64("imageID", id), zap.Int("files", len(files)), zap.Int("tags", len(tagIDs)))
	return true, nil
}
