package config

// StorageConfig 作品文件存储配置
// - Type 为 "local" 时写入本地磁盘并由路由静态托管；为 "cos" 时写入腾讯云 COS。
type StorageConfig struct {
	Type  string             `mapstructure:"type" json:"type" yaml:"type"`
	Local LocalStorageConfig `mapstructure:"local" json:"local" yaml:"local"`
	COS   COSConfig          `mapstructure:"cos" json:"cos" yaml:"cos"`

	// ThumbnailSize 缩略图最长边（像素），<=0 时使用 constant.DefaultThumbnailSize
	ThumbnailSize int `mapstructure:"thumbnailSize" json:"thumbnailSize" yaml:"thumbnailSize"`
	// JPEGQuality 缩略图 JPEG 质量 (1-100)
	JPEGQuality int `mapstructure:"jpegQuality" json:"jpegQuality" yaml:"jpegQuality"`
	// MaxImagePixels 单张上传图片允许的最大像素数 (宽 * 高)，<=0 时使用 constant.DefaultMaxImagePixels
	MaxImagePixels int64 `mapstructure:"maxImagePixels" json:"maxImagePixels" yaml:"maxImagePixels"`
}

// LocalStorageConfig 本地磁盘存储
type LocalStorageConfig struct {
	UploadDir    string `mapstructure:"uploadDir" json:"uploadDir" yaml:"uploadDir"`          // 落盘目录
	PublicPrefix string `mapstructure:"publicPrefix" json:"publicPrefix" yaml:"publicPrefix"` // 对外访问路径前缀，例如 /uploads
}

// COSConfig 腾讯云 COS 存储桶配置
type COSConfig struct {
	SecretID   string `mapstructure:"secretID" json:"-" yaml:"secretID"`
	SecretKey  string `mapstructure:"secretKey" json:"-" yaml:"secretKey"`
	BucketName string `mapstructure:"bucketName" json:"bucketName" yaml:"bucketName"`
	AppID      string `mapstructure:"appID" json:"appID" yaml:"appID"`
	Region     string `mapstructure:"region" json:"region" yaml:"region"`
	// BaseURL 可选的公共访问域名（CDN 或自定义域名），为空时使用存储桶默认域名
	BaseURL string `mapstructure:"baseURL" json:"baseURL" yaml:"baseURL"`
}
