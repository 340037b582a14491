package dto

import (
	"strings"

	"github.com/Xushengqwer/go-common/models/enums"

	"github.com/Xushengqwer/gallery_service/models/entities"
)

// SubmissionForm 上传/编辑作品时的元数据字段 (multipart 表单中的文本部分)。
// 文件部分 (主图、参考图) 由控制器单独取出，不在此结构中。
type SubmissionForm struct {
	Title       string                 `form:"title"`
	Author      string                 `form:"author"`
	Prompt      string                 `form:"prompt"`
	Description string                 `form:"description"`
	Kind        entities.ImageKind     `form:"type"`
	Category    entities.ImageCategory `form:"category"`

	// Status 为空时：创建默认待审核，编辑保持不变
	Status *enums.Status `form:"status" swaggertype:"integer"`

	// Tags 以英文逗号或全角逗号分隔的标签串
	Tags string `form:"tags"`

	// TagsPresent 表单中是否出现了 tags 字段。
	// 编辑时只有出现了才替换标签集合 (空串表示清空)，未出现表示保持不变。
	TagsPresent bool `form:"-"`

	// RefLayout 参考图布局描述，JSON 字符串数组，例如 ["existing:12","placeholder","new"]
	RefLayout string `form:"ref_layout"`
}

// Normalize 去除文本字段首尾空白，并为类型与分类填充默认值
func (f *SubmissionForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Author = strings.TrimSpace(f.Author)
	f.Prompt = strings.TrimSpace(f.Prompt)
	f.Description = strings.TrimSpace(f.Description)
	f.RefLayout = strings.TrimSpace(f.RefLayout)
	if f.Kind == "" {
		f.Kind = entities.KindTxt2Img
	}
	if f.Category == "" {
		f.Category = entities.CategoryGallery
	}
}
