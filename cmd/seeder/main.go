package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/dependencies"
	"github.com/Xushengqwer/gallery_service/repo/mysql"
	redisRepo "github.com/Xushengqwer/gallery_service/repo/redis"
	"github.com/Xushengqwer/gallery_service/service"
	"github.com/Xushengqwer/gallery_service/storage"
)

func main() {
	// --- 0. 解析命令行参数 ---
	var numItems int
	var configFile string
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "配置文件路径")
	flag.IntVar(&numItems, "n", 50, "要生成的作品数量 (默认: 50)")
	flag.Parse()

	if numItems <= 0 {
		fmt.Println("错误: 生成的作品数量必须大于 0")
		os.Exit(1)
	}
	_ = godotenv.Load()

	absConfigFile, err := filepath.Abs(configFile)
	if err != nil {
		absConfigFile = configFile
	}
	fmt.Printf("准备使用配置文件 '%s' 生成 %d 个测试作品...\n", absConfigFile, numItems)

	// --- 1. 加载配置 ---
	var cfg appConfig.GalleryServiceConfig
	if err := core.LoadConfig(absConfigFile, &cfg); err != nil {
		fmt.Printf("加载配置失败 (%s): %v\n", absConfigFile, err)
		os.Exit(1)
	}

	// --- 2. 初始化日志记录器 ---
	logger, loggerErr := core.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		fmt.Printf("初始化 ZapLogger 失败: %v\n", loggerErr)
		os.Exit(1)
	}
	defer func() { _ = logger.Logger().Sync() }()
	baseLogger := logger.Logger()

	// --- 3. 数据库与存储 ---
	db, dbErr := dependencies.InitMySQL(&cfg, logger)
	if dbErr != nil {
		logger.Fatal("初始化 MySQL 失败 (Seeder)", zap.Error(dbErr))
	}

	var cosClient dependencies.COSClientInterface
	if cfg.StorageConfig.Type == constant.StorageTypeCOS {
		cosClient, err = dependencies.InitCOS(&cfg.StorageConfig.COS, baseLogger)
		if err != nil {
			logger.Fatal("初始化 COS 客户端失败 (Seeder)", zap.Error(err))
		}
	}
	store, err := storage.New(cfg.StorageConfig, cosClient, baseLogger)
	if err != nil {
		logger.Fatal("初始化文件存储失败 (Seeder)", zap.Error(err))
	}

	// Redis 可选：不可用时热度榜由定时任务在服务启动后重建
	var heatRank redisRepo.HeatRankRepository
	if rdb, redisErr := dependencies.InitRedis(&cfg.RedisConfig, logger); redisErr != nil {
		logger.Warn("初始化 Redis 失败 (Seeder)，跳过热度榜写入", zap.Error(redisErr))
	} else {
		defer func() { _ = rdb.Close() }()
		heatRank = redisRepo.NewHeatRankRepository(rdb, cfg.GalleryConfig.HotRankSize, baseLogger)
	}

	// --- 4. 初始化 Service (不发布 Kafka 事件，测试数据无需送审) ---
	submissionSvc := service.NewSubmissionService(
		db,
		mysql.NewImageRepository(db, baseLogger),
		mysql.NewTagRepository(db),
		mysql.NewReferenceSlotRepository(),
		store,
		heatRank,
		nil,
		baseLogger,
	)

	// --- 5. 执行数据填充 ---
	startTime := time.Now()
	Seed(context.Background(), submissionSvc, baseLogger, numItems)
	fmt.Printf("数据填充完成！总耗时: %v\n", time.Since(startTime))
}
