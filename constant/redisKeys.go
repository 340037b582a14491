package constant

// Redis Key 相关常量
const (
	// HeatRankKey 全局作品热度榜。
	// Redis 类型: Sorted Set，Member 为作品 ID，Score 为 heat_score。
	// 只收录已审核通过的作品；由 StatsService 增量刷新，由 HeatRankRefreshTask 定时全量重建。
	HeatRankKey = "gallery:heat_rank"

	// HeatRankTempKey 全量重建时使用的临时 Key，写满后 RENAME 覆盖 HeatRankKey。
	HeatRankTempKey = "gallery:heat_rank:rebuild"
)
