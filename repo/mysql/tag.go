package mysql

import (
	"context"
	"errors"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Xushengqwer/gallery_service/models/entities"
)

// 标签没有任何作品引用
const orphanTagCond = "NOT EXISTS (SELECT 1 FROM image_tags WHERE image_tags.tag_id = tags.id)"

// TagRepository 标签及 image_tags 关联行的持久化。
// 标签按引用计数回收：关联行由本仓库显式写入与删除，不依赖 ORM 级联。
type TagRepository interface {
	// FindOrCreate 按名称查找标签，不存在则创建
	FindOrCreate(ctx context.Context, db *gorm.DB, name string) (*entities.Tag, error)

	// Attach 为作品关联一组标签，已存在的关联被忽略
	Attach(ctx context.Context, db *gorm.DB, imageID uint64, tagIDs []uint64) error

	// DetachAll 删除作品的全部标签关联
	DetachAll(ctx context.Context, db *gorm.DB, imageID uint64) error

	// DeleteIfOrphan 标签不再被任何作品引用时删除它，返回是否删除
	DeleteIfOrphan(ctx context.Context, tagID uint64) (bool, error)

	// DeleteAllOrphans 删除全部无引用标签，返回删除数量
	DeleteAllOrphans(ctx context.Context) (int64, error)

	// ListVisible 至少关联一个已审核作品的标签，按名称排序
	ListVisible(ctx context.Context, includeSensitive bool) ([]*entities.Tag, error)

	// GetByID 未找到返回 commonerrors.ErrRepoNotFound
	GetByID(ctx context.Context, id uint64) (*entities.Tag, error)

	// SetSensitive 修改敏感标记，未找到返回 commonerrors.ErrRepoNotFound
	SetSensitive(ctx context.Context, id uint64, sensitive bool) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository 是 tagRepository 的构造函数。
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) FindOrCreate(ctx context.Context, db *gorm.DB, name string) (*entities.Tag, error) {
	var tag entities.Tag
	if err := db.WithContext(ctx).Where(entities.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) Attach(ctx context.Context, db *gorm.DB, imageID uint64, tagIDs []uint64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]entities.ImageTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, entities.ImageTag{ImageID: imageID, TagID: id})
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *tagRepository) DetachAll(ctx context.Context, db *gorm.DB, imageID uint64) error {
	return db.WithContext(ctx).Where("image_id = ?", imageID).Delete(&entities.ImageTag{}).Error
}

func (r *tagRepository) DeleteIfOrphan(ctx context.Context, tagID uint64) (bool, error) {
	// 判断与删除在同一条语句内完成，不会误删刚被其他作品引用的标签
	result := r.db.WithContext(ctx).Where("id = ? AND "+orphanTagCond, tagID).Delete(&entities.Tag{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *tagRepository) DeleteAllOrphans(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where(orphanTagCond).Delete(&entities.Tag{})
	return result.RowsAffected, result.Error
}

func (r *tagRepository) ListVisible(ctx context.Context, includeSensitive bool) ([]*entities.Tag, error) {
	q := r.db.WithContext(ctx).
		Where("EXISTS (SELECT 1 FROM image_tags JOIN images ON images.id = image_tags.image_id WHERE image_tags.tag_id = tags.id AND images.status = ?)", enums.Approved)
	if !includeSensitive {
		q = q.Where("is_sensitive = ?", false)
	}
	tags := make([]*entities.Tag, 0)
	err := q.Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *tagRepository) GetByID(ctx context.Context, id uint64) (*entities.Tag, error) {
	var tag entities.Tag
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) SetSensitive(ctx context.Context, id uint64, sensitive bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&entities.Tag{}).Where("id = ?", id).Update("is_sensitive", sensitive).Error
}
