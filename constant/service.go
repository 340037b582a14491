package constant

// 服务标识，用于 tracing 与日志
const (
	ServiceName    = "gallery_service"
	ServiceVersion = "0.1.0"
)

// 定时任务 cron 表达式 (robfig/cron 语法)
const (
	// HeatRankRefreshCronSpec 热度榜重建周期
	HeatRankRefreshCronSpec = "@every 10m"
	// OrphanTagSweepCronSpec 孤儿标签清扫周期
	OrphanTagSweepCronSpec = "@hourly"
)

// 分页默认值
const (
	DefaultItemsPerPage  = 24
	DefaultAPIPerPage    = 100
	DefaultAPIMaxPerPage = 1000
	DefaultHotRankSize   = 200
	DefaultHotLimit      = 20
)

// SensitiveCookieName 访客开启敏感内容展示的 cookie，值为 "1" 表示开启
const SensitiveCookieName = "pm_show_sensitive"
