package entities

import (
	"time"

	"github.com/Xushengqwer/go-common/models/enums"
	"gorm.io/gorm"
)

// ImageKind 作品生成方式
type ImageKind string

const (
	KindTxt2Img ImageKind = "txt2img" // 文生图
	KindImg2Img ImageKind = "img2img" // 图生图，只有该类型的作品才持有参考图槽位
)

// Valid 判断取值是否合法
func (k ImageKind) Valid() bool {
	return k == KindTxt2Img || k == KindImg2Img
}

// ImageCategory 作品分类
type ImageCategory string

const (
	CategoryGallery  ImageCategory = "gallery"
	CategoryTemplate ImageCategory = "template"
)

// Valid 判断取值是否合法
func (c ImageCategory) Valid() bool {
	return c == CategoryGallery || c == CategoryTemplate
}

// 热度分权重：heat_score = view_count*ViewWeight + copy_count*CopyWeight
const (
	HeatViewWeight = 1
	HeatCopyWeight = 10
)

// ComputeHeatScore 由两个原始计数器推导热度分
func ComputeHeatScore(viewCount, copyCount int64) int64 {
	return viewCount*HeatViewWeight + copyCount*HeatCopyWeight
}

// Image 投稿作品实体
//   - 表名: images
//   - 关系:
//   - 与 Tag 多对多，经由 image_tags (ImageTag) 关联，标签按引用计数回收。
//   - 与 ReferenceSlot 一对多，槽位完全归属于作品，删除作品时一并释放。
//   - 不使用软删除：删除即物理删除，同时释放关联文件。
type Image struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	// 标题，必填
	Title string `gorm:"type:varchar(255);not null"`

	Author      string `gorm:"type:varchar(100)"`
	Prompt      string `gorm:"type:text"`
	Description string `gorm:"type:text"`

	// 生成方式: txt2img / img2img
	Kind ImageKind `gorm:"type:varchar(20);not null;default:'txt2img'"`

	// 分类: gallery / template
	Category ImageCategory `gorm:"type:varchar(20);not null;default:'gallery';index"`

	// 状态，枚举类型：0=待审核, 1=已审核, 2=拒绝
	// 只有已审核的作品对公众可见
	Status enums.Status `gorm:"type:int;default:0;index"`

	// 主图与缩略图的存储路径 (本地存储为 web 路径，COS 为完整 URL)
	FilePath      string `gorm:"type:varchar(1023);not null"`
	ThumbnailPath string `gorm:"type:varchar(1023);not null"`

	// 计数器只增不减
	ViewCount int64 `gorm:"not null;default:0"`
	CopyCount int64 `gorm:"not null;default:0"`

	// HeatScore 由 ViewCount/CopyCount 推导，不单独修改。
	// 持久化是为了能在数据库中按热度排序。
	HeatScore int64 `gorm:"not null;default:0;index"`

	Tags           []Tag           `gorm:"many2many:image_tags;"`
	ReferenceSlots []ReferenceSlot `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
}

// BeforeSave 每次整行保存前重新推导热度分
func (i *Image) BeforeSave(_ *gorm.DB) error {
	i.HeatScore = ComputeHeatScore(i.ViewCount, i.CopyCount)
	return nil
}

// TagNames 返回已加载标签的名称列表
func (i *Image) TagNames() []string {
	names := make([]string, 0, len(i.Tags))
	for _, t := range i.Tags {
		names = append(names, t.Name)
	}
	return names
}

// FilePaths 返回作品拥有的全部物理文件路径：主图、缩略图以及每个非占位槽位的文件
func (i *Image) FilePaths() []string {
	paths := make([]string, 0, 2+len(i.ReferenceSlots))
	if i.FilePath != "" {
		paths = append(paths, i.FilePath)
	}
	if i.ThumbnailPath != "" {
		paths = append(paths, i.ThumbnailPath)
	}
	for _, slot := range i.ReferenceSlots {
		if slot.FilePath != "" {
			paths = append(paths, slot.FilePath)
		}
	}
	return paths
}
