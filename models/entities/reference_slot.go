package entities

import "time"

// ReferenceSlot 参考图槽位
//   - 表名: reference_slots
//   - 与 Image 为多对一，Position 决定展示顺序，同一作品内唯一 (不要求连续)。
//   - 占位槽位 (IsPlaceholder=true) 不携带文件，FilePath 为空。
type ReferenceSlot struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time

	ImageID  uint64 `gorm:"not null;index:idx_slot_image_position,priority:1"`
	Position int    `gorm:"not null;default:0;index:idx_slot_image_position,priority:2"`

	FilePath      string `gorm:"type:varchar(1023);not null;default:''"`
	IsPlaceholder bool   `gorm:"not null;default:false"`
}
