package config

import "github.com/Xushengqwer/go-common/config"

// GalleryServiceConfig 是画廊服务的根配置，由 core.LoadConfig 从 YAML（以及环境变量）加载。
type GalleryServiceConfig struct {
	ZapConfig     config.ZapConfig     `mapstructure:"zapConfig" json:"zapConfig" yaml:"zapConfig"`
	GormLogConfig config.GormLogConfig `mapstructure:"gormLogConfig" json:"gormLogConfig" yaml:"gormLogConfig"`
	ServerConfig  config.ServerConfig  `mapstructure:"serverConfig" json:"serverConfig" yaml:"serverConfig"`
	TracerConfig  config.TracerConfig  `mapstructure:"tracerConfig" json:"tracerConfig" yaml:"tracerConfig"`
	MySQLConfig   MySQLConfig          `mapstructure:"mysqlConfig" json:"mysqlConfig" yaml:"mysqlConfig"`
	RedisConfig   RedisConfig          `mapstructure:"redisConfig" json:"redisConfig" yaml:"redisConfig"`
	KafkaConfig   KafkaConfig          `mapstructure:"kafkaConfig" json:"kafkaConfig" yaml:"kafkaConfig"`
	StorageConfig StorageConfig        `mapstructure:"storageConfig" json:"storageConfig" yaml:"storageConfig"`
	GalleryConfig GalleryConfig        `mapstructure:"galleryConfig" json:"galleryConfig" yaml:"galleryConfig"`
}

// GalleryConfig 画廊展示与上传相关的业务参数
type GalleryConfig struct {
	// ItemsPerPage 画廊列表每页数量，<=0 时使用 constant.DefaultItemsPerPage
	ItemsPerPage int `mapstructure:"itemsPerPage" json:"itemsPerPage" yaml:"itemsPerPage"`

	// APIMaxPerPage /api/list 接口 per_page 的上限，<=0 时使用 constant.DefaultAPIMaxPerPage
	APIMaxPerPage int `mapstructure:"apiMaxPerPage" json:"apiMaxPerPage" yaml:"apiMaxPerPage"`

	// AllowPublicSensitiveToggle 为 true 时，未登录访客可通过 cookie 自行开启敏感内容
	AllowPublicSensitiveToggle bool `mapstructure:"allowPublicSensitiveToggle" json:"allowPublicSensitiveToggle" yaml:"allowPublicSensitiveToggle"`

	// HotRankSize 热度榜（Redis ZSet）保留的作品数量
	HotRankSize int `mapstructure:"hotRankSize" json:"hotRankSize" yaml:"hotRankSize"`

	// MaxUploadMemoryMB 解析 multipart 表单时驻留内存的上限（MB），超出部分落临时文件
	MaxUploadMemoryMB int64 `mapstructure:"maxUploadMemoryMB" json:"maxUploadMemoryMB" yaml:"maxUploadMemoryMB"`
}
