package vo

import (
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/models/enums"

	"github.com/Xushengqwer/gallery_service/models/entities"
)

// RefVO 参考图槽位
type RefVO struct {
	ID            uint64 `json:"id"`
	FilePath      string `json:"file_path"` // 占位槽位为空
	IsPlaceholder bool   `json:"is_placeholder"`
}

// SubmissionVO 作品对外展示结构
type SubmissionVO struct {
	ID            uint64                 `json:"id"`
	Title         string                 `json:"title"`
	Author        string                 `json:"author"`
	Prompt        string                 `json:"prompt"`
	Description   string                 `json:"description"`
	Type          entities.ImageKind     `json:"type" swaggertype:"string" example:"img2img"`
	Category      entities.ImageCategory `json:"category" swaggertype:"string" example:"gallery"`
	Status        enums.Status           `json:"status" swaggertype:"integer"` // 0=待审核, 1=已审核, 2=拒绝
	FilePath      string                 `json:"file_path"`
	ThumbnailPath string                 `json:"thumbnail_path"`
	Tags          []string               `json:"tags"`
	Refs          []RefVO                `json:"refs"` // 按 position 升序
	HeatScore     int64                  `json:"heat_score"`
	ViewCount     int64                  `json:"view_count"`
	CopyCount     int64                  `json:"copy_count"`
	CreatedAt     time.Time              `json:"created_at"`
}

// NewSubmissionVO 由实体构建 VO，路径保持存储中的原样
func NewSubmissionVO(img *entities.Image) *SubmissionVO {
	refs := make([]RefVO, 0, len(img.ReferenceSlots))
	for _, s := range img.ReferenceSlots {
		refs = append(refs, RefVO{ID: s.ID, FilePath: s.FilePath, IsPlaceholder: s.IsPlaceholder})
	}
	return &SubmissionVO{
		ID:            img.ID,
		Title:         img.Title,
		Author:        img.Author,
		Prompt:        img.Prompt,
		Description:   img.Description,
		Type:          img.Kind,
		Category:      img.Category,
		Status:        img.Status,
		FilePath:      img.FilePath,
		ThumbnailPath: img.ThumbnailPath,
		Tags:          img.TagNames(),
		Refs:          refs,
		HeatScore:     img.HeatScore,
		ViewCount:     img.ViewCount,
		CopyCount:     img.CopyCount,
		CreatedAt:     img.CreatedAt,
	}
}

// NewSubmissionVOs 批量转换
func NewSubmissionVOs(images []*entities.Image) []*SubmissionVO {
	out := make([]*SubmissionVO, 0, len(images))
	for _, img := range images {
		out = append(out, NewSubmissionVO(img))
	}
	return out
}

// Absolutize 把站内路径补全为以 baseURL 开头的绝对地址；已是绝对地址 (如 COS URL) 的保持不变
func (v *SubmissionVO) Absolutize(baseURL string) {
	v.FilePath = AbsoluteURL(baseURL, v.FilePath)
	v.ThumbnailPath = AbsoluteURL(baseURL, v.ThumbnailPath)
	for i := range v.Refs {
		v.Refs[i].FilePath = AbsoluteURL(baseURL, v.Refs[i].FilePath)
	}
}

// AbsoluteURL 拼接 baseURL 与站内路径，空路径返回空串
func AbsoluteURL(baseURL, path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
