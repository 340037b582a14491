package constant

// 需要在 binding 之外直接读取的表单字段名，其余字段见 dto.SubmissionForm 的 form tag
const (
	FormFieldImage         = "image"
	FormFieldRefImages     = "ref_images"
	FormFieldTags          = "tags"
	FormFieldDeletedRefIDs = "deleted_ref_ids"
)

// 参考图布局描述中的槽位 token
const (
	LayoutTokenNew            = "new"
	LayoutTokenPlaceholder    = "placeholder"
	LayoutTokenExistingPrefix = "existing:"
)

// 存储相关
const (
	// StorageTypeLocal 本地磁盘存储
	StorageTypeLocal = "local"
	// StorageTypeCOS 腾讯云 COS 存储
	StorageTypeCOS = "cos"

	DefaultUploadDir     = "static/uploads"
	DefaultPublicPrefix  = "/uploads"
	DefaultThumbnailSize = 400
	DefaultJPEGQuality   = 85

	// DefaultMaxImagePixels 上传图片像素上限，解码前按声明尺寸检查
	DefaultMaxImagePixels int64 = 50_000_000

	// ThumbnailFilePrefix 缩略图文件名前缀，缩略图统一编码为 JPEG
	ThumbnailFilePrefix = "thumb_"

	// COSObjectKeyPrefixImages COS 中作品原图与缩略图的 Key 前缀
	COSObjectKeyPrefixImages = "gallery/images/"
	// COSObjectKeyPrefixRefs COS 中参考图的 Key 前缀
	COSObjectKeyPrefixRefs = "gallery/refs/"
)
