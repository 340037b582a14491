package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Xushengqwer/go-common/commonerrors"
	"gorm.io/gorm"

	"github.com/Xushengqwer/gallery_service/models/entities"
)

// ReferenceSlotRepository 参考图槽位的持久化，所有方法都在调用方的事务中执行
type ReferenceSlotRepository interface {
	// ListByImage 作品的全部槽位，按 position、id 升序
	ListByImage(ctx context.Context, db *gorm.DB, imageID uint64) ([]*entities.ReferenceSlot, error)

	// GetByID 未找到返回 commonerrors.ErrRepoNotFound
	GetByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.ReferenceSlot, error)

	Create(ctx context.Context, db *gorm.DB, slot *entities.ReferenceSlot) error

	UpdatePosition(ctx context.Context, db *gorm.DB, id uint64, position int) error

	Delete(ctx context.Context, db *gorm.DB, id uint64) error

	// MaxPosition 作品槽位的最大 position；没有任何槽位时 ok 为 false
	MaxPosition(ctx context.Context, db *gorm.DB, imageID uint64) (maxPos int, ok bool, err error)
}

type referenceSlotRepository struct{}

// NewReferenceSlotRepository 槽位仓库不持有连接，总是使用调用方传入的 db/tx
func NewReferenceSlotRepository() ReferenceSlotRepository {
	return &referenceSlotRepository{}
}

func (r *referenceSlotRepository) ListByImage(ctx context.Context, db *gorm.DB, imageID uint64) ([]*entities.ReferenceSlot, error) {
	slots := make([]*entities.ReferenceSlot, 0)
	err := db.WithContext(ctx).Where("image_id = ?", imageID).Order("position ASC, id ASC").Find(&slots).Error
	return slots, err
}

func (r *referenceSlotRepository) GetByID(ctx context.Context, db *gorm.DB, id uint64) (*entities.ReferenceSlot, error) {
	var slot entities.ReferenceSlot
	if err := db.WithContext(ctx).Where("id = ?", id).First(&slot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (r *referenceSlotRepository) Create(ctx context.Context, db *gorm.DB, slot *entities.ReferenceSlot) error {
	return db.WithContext(ctx).Create(slot).Error
}

func (r *referenceSlotRepository) UpdatePosition(ctx context.Context, db *gorm.DB, id uint64, position int) error {
	return db.WithContext(ctx).Model(&entities.ReferenceSlot{}).Where("id = ?", id).Update("position", position).Error
}

func (r *referenceSlotRepository) Delete(ctx context.Context, db *gorm.DB, id uint64) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&entities.ReferenceSlot{}).Error
}

func (r *referenceSlotRepository) MaxPosition(ctx context.Context, db *gorm.DB, imageID uint64) (int, bool, error) {
	var maxPos sql.NullInt64
	err := db.WithContext(ctx).Model(&entities.ReferenceSlot{}).
		Where("image_id = ?", imageID).
		Select("MAX(position)").
		Row().Scan(&maxPos)
	if err != nil {
		return 0, false, err
	}
	if !maxPos.Valid {
		return 0, false, nil
	}
	return int(maxPos.Int64), true, nil
}
