package mysql

import (
	"context"
	"errors"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/models/entities"
)

// CounterColumn 可自增的计数器列
type CounterColumn string

const (
	CounterView CounterColumn = "view_count"
	CounterCopy CounterColumn = "copy_count"
)

// 隐藏敏感作品：作品不得关联任何敏感标签
const notSensitiveCond = "images.id NOT IN (SELECT image_tags.image_id FROM image_tags JOIN tags ON tags.id = image_tags.tag_id WHERE tags.is_sensitive = ?)"

// ImageRepository 定义了作品在 MySQL 中的持久化操作接口。
// 带 db 参数的方法在调用方传入的事务中执行。
type ImageRepository interface {
	// Create 插入作品行本身，不级联写入标签与槽位 (两者由各自仓库显式维护)
	Create(ctx context.Context, db *gorm.DB, img *entities.Image) error

	// Save 整行覆盖保存作品的标量字段
	Save(ctx context.Context, db *gorm.DB, img *entities.Image) error

	// GetByID 获取作品并预加载标签与按 position 排序的槽位。
	// - 未找到返回 commonerrors.ErrRepoNotFound。
	GetByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.Image, error)

	// GetForUpdate 与 GetByID 相同，但对作品行加 SELECT ... FOR UPDATE 锁，必须在事务中调用
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uint64) (*entities.Image, error)

	// Delete 物理删除作品行及其连接表行、槽位行
	Delete(ctx context.Context, tx *gorm.DB, id uint64) error

	// IncrementCounter 计数器 +1 并在同一事务内由两个计数器重新推导 heat_score。
	// - 返回 false 表示作品不存在。
	IncrementCounter(ctx context.Context, tx *gorm.DB, id uint64, column CounterColumn) (bool, error)

	// UpdateStatus 修改审核状态，未找到返回 commonerrors.ErrRepoNotFound
	UpdateStatus(ctx context.Context, id uint64, status enums.Status) error

	// ListPublic 公开画廊列表 (仅已审核)
	ListPublic(ctx context.Context, params *dto.PublicListParams) ([]*entities.Image, int64, error)

	// ListAdmin 管理端按条件分页
	ListAdmin(ctx context.Context, query *dto.AdminListQuery, offset, limit int) ([]*entities.Image, int64, error)

	// ListApprovedByIDs 按给定 ID 顺序返回已审核作品，不存在或未审核的 ID 被忽略
	ListApprovedByIDs(ctx context.Context, ids []uint64) ([]*entities.Image, error)

	// TopApprovedByHeat 按热度降序返回已审核作品
	TopApprovedByHeat(ctx context.Context, limit int) ([]*entities.Image, error)
}

type imageRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewImageRepository 是 imageRepository 的构造函数。
func NewImageRepository(db *gorm.DB, logger *zap.Logger) ImageRepository {
	return &imageRepository{db: db, logger: logger}
}

// withAssociations 预加载标签与槽位，槽位按展示顺序排列
func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("ReferenceSlots", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") })
}

func (r *imageRepository) Create(ctx context.Context, db *gorm.DB, img *entities.Image) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(img).Error
}

func (r *imageRepository) Save(ctx context.Context, db *gorm.DB, img *entities.Image) error {
	return db.WithContext(ctx).Omit(clause.Associations).Save(img).Error
}

func (r *imageRepository) GetByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.Image, error) {
	return r.get(ctx, db, id, false)
}

func (r *imageRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint64) (*entities.Image, error) {
	return r.get(ctx, tx, id, true)
}

func (r *imageRepository) get(ctx context.Context, db *gorm.DB, id uint64, lock bool) (*entities.Image, error) {
	if db == nil {
		db = r.db
	}
	q := withAssociations(db.WithContext(ctx))
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var img entities.Image
	if err := q.Where("id = ?", id).First(&img).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		r.logger.Error("根据 ID 获取作品失败", zap.Uint64("imageID", id), zap.Error(err))
		return nil, err
	}
	return &img, nil
}

func (r *imageRepository) Delete(ctx context.Context, tx *gorm.DB, id uint64) error {
	db := tx.WithContext(ctx)
	if err := db.Where("image_id = ?", id).Delete(&entities.ImageTag{}).Error; err != nil {
		return err
	}
	if err := db.Where("image_id = ?", id).Delete(&entities.ReferenceSlot{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&entities.Image{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return commonerrors.ErrRepoNotFound
	}
	return nil
}

func (r *imageRepository) IncrementCounter(ctx context.Context, tx *gorm.DB, id uint64, column CounterColumn) (bool, error) {
	db := tx.WithContext(ctx).Model(&entities.Image{}).Where("id = ?", id)

	// 用 UpdateColumn 跳过钩子与 updated_at，计数器变化不算内容修改
	result := db.UpdateColumn(string(column), gorm.Expr(string(column)+" + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	// 单独一条语句重算，避免依赖同一 SET 子句内的求值顺序
	err := tx.WithContext(ctx).Model(&entities.Image{}).Where("id = ?", id).
		UpdateColumn("heat_score", gorm.Expr("view_count * ? + copy_count * ?", entities.HeatViewWeight, entities.HeatCopyWeight)).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *imageRepository) UpdateStatus(ctx context.Context, id uint64, status enums.Status) error {
	result := r.db.WithContext(ctx).Model(&entities.Image{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		r.logger.Error("更新作品状态数据库出错", zap.Uint64("imageID", id), zap.Any("status", status), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		// MySQL 在值未变化时也报告 0 行，需要再确认记录是否存在
		var count int64
		if err := r.db.WithContext(ctx).Model(&entities.Image{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return commonerrors.ErrRepoNotFound
		}
	}
	return nil
}

func (r *imageRepository) ListPublic(ctx context.Context, params *dto.PublicListParams) ([]*entities.Image, int64, error) {
	q := r.db.WithContext(ctx).Model(&entities.Image{}).Where("images.status = ?", enums.Approved)

	if !params.ShowSensitive {
		q = q.Where(notSensitiveCond, true)
	}
	if params.Tag != "" {
		q = q.Where("images.id IN (SELECT image_tags.image_id FROM image_tags JOIN tags ON tags.id = image_tags.tag_id WHERE tags.name = ?)", params.Tag)
	}
	if params.Category != "" {
		q = q.Where("images.category = ?", params.Category)
	}
	if params.Q != "" {
		like := "%" + params.Q + "%"
		q = q.Where("(images.title LIKE ? OR images.prompt LIKE ? OR images.author LIKE ?)", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		r.logger.Error("公开列表计数失败", zap.Error(err))
		return nil, 0, err
	}
	images := make([]*entities.Image, 0)
	if total == 0 {
		return images, 0, nil
	}

	switch params.Sort {
	case dto.SortHot:
		q = q.Order("images.heat_score DESC").Order("images.created_at DESC")
	case dto.SortRandom:
		q = q.Order(r.randomOrder())
	default:
		q = q.Order("images.created_at DESC").Order("images.id DESC")
	}

	if err := withAssociations(q).Limit(params.Limit).Offset(params.Offset).Find(&images).Error; err != nil {
		r.logger.Error("公开列表查询失败", zap.Error(err))
		return nil, 0, err
	}
	return images, total, nil
}

// randomOrder 各方言的随机排序函数不同
func (r *imageRepository) randomOrder() string {
	if r.db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}

func (r *imageRepository) ListAdmin(ctx context.Context, query *dto.AdminListQuery, offset, limit int) ([]*entities.Image, int64, error) {
	q := r.db.WithContext(ctx).Model(&entities.Image{})
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.Category != "" {
		q = q.Where("category = ?", query.Category)
	}
	if query.Title != "" {
		q = q.Where("title LIKE ?", "%"+query.Title+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		r.logger.Error("管理端列表计数失败", zap.Error(err))
		return nil, 0, err
	}
	images := make([]*entities.Image, 0)
	if total == 0 {
		return images, 0, nil
	}
	if err := withAssociations(q).Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&images).Error; err != nil {
		r.logger.Error("管理端列表查询失败", zap.Error(err))
		return nil, 0, err
	}
	return images, total, nil
}

func (r *imageRepository) ListApprovedByIDs(ctx context.Context, ids []uint64) ([]*entities.Image, error) {
	if len(ids) == 0 {
		return []*entities.Image{}, nil
	}
	var found []*entities.Image
	err := withAssociations(r.db.WithContext(ctx)).
		Where("id IN ? AND status = ?", ids, enums.Approved).
		Find(&found).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uint64]*entities.Image, len(found))
	for _, img := range found {
		byID[img.ID] = img
	}
	ordered := make([]*entities.Image, 0, len(found))
	for _, id := range ids {
		if img, ok := byID[id]; ok {
			ordered = append(ordered, img)
		}
	}
	return ordered, nil
}

func (r *imageRepository) TopApprovedByHeat(ctx context.Context, limit int) ([]*entities.Image, error) {
	images := make([]*entities.Image, 0, limit)
	err := withAssociations(r.db.WithContext(ctx)).
		Where("status = ?", enums.Approved).
		Order("heat_score DESC").Order("created_at DESC").
		Limit(limit).
		Find(&images).Error
	return images, err
}
