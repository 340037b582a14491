package entities

import "time"

// Tag 标签实体
//   - 表名: tags
//   - 名称唯一，入库前已去除首尾空白。
//   - 被多个作品共享；当最后一个引用它的作品被删除时回收。
type Tag struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time

	Name string `gorm:"type:varchar(100);not null;uniqueIndex"`

	// 敏感标签：带有任一敏感标签的作品默认不对匿名访客展示
	IsSensitive bool `gorm:"not null;default:false"`
}

// ImageTag 作品与标签的关联行 (image_tags)
// 通过 SetupJoinTable 注册为 Image.Tags 的连接表模型，关联关系由仓库层显式维护。
type ImageTag struct {
	ImageID   uint64 `gorm:"primaryKey"`
	TagID     uint64 `gorm:"primaryKey;index"`
	CreatedAt time.Time
}
