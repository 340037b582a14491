package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sharedCore "github.com/Xushengqwer/go-common/core"
	sharedTracing "github.com/Xushengqwer/go-common/core/tracing"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appConfig "github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/controller"
	"github.com/Xushengqwer/gallery_service/dependencies"
	"github.com/Xushengqwer/gallery_service/mq/consumer"
	"github.com/Xushengqwer/gallery_service/mq/producer"
	"github.com/Xushengqwer/gallery_service/repo/mysql"
	redisrepo "github.com/Xushengqwer/gallery_service/repo/redis"
	"github.com/Xushengqwer/gallery_service/router"
	"github.com/Xushengqwer/gallery_service/service"
	"github.com/Xushengqwer/gallery_service/storage"
	"github.com/Xushengqwer/gallery_service/tasks"
)

// @title           Gallery Service API
// @version         0.1
// @description     画廊服务，提供作品上传、审核、浏览、搜索与热度统计。
// @host            localhost:8080
// @schemes         http https
func main() {
	// --- 配置和基础设置 ---
	var configFile string
	flag.StringVar(&configFile, "config", "config/config.development.yaml", "Path to configuration file")
	flag.Parse()

	// .env 只在本地开发时存在，缺失不算错误
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: 加载 .env 失败: %v", err)
	}

	// 1. 加载配置
	var cfg appConfig.GalleryServiceConfig
	if err := sharedCore.LoadConfig(configFile, &cfg); err != nil {
		log.Fatalf("FATAL: 加载配置失败 (%s): %v", configFile, err)
	}

	// 2. 初始化 Logger
	logger, loggerErr := sharedCore.NewZapLogger(cfg.ZapConfig)
	if loggerErr != nil {
		log.Fatalf("FATAL: 初始化 ZapLogger 失败: %v", loggerErr)
	}
	defer func() {
		if err := logger.Logger().Sync(); err != nil {
			log.Printf("WARN: ZapLogger Sync 失败: %v\n", err)
		}
	}()
	baseLogger := logger.Logger()
	logger.Info("Logger 初始化成功")

	// 3. 初始化 TracerProvider
	if cfg.TracerConfig.Enabled {
		tracerShutdown, err := sharedTracing.InitTracerProvider(constant.ServiceName, constant.ServiceVersion, cfg.TracerConfig)
		if err != nil {
			logger.Fatal("初始化 TracerProvider 失败", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerShutdown(ctx); err != nil {
				logger.Error("关闭 TracerProvider 失败", zap.Error(err))
			}
		}()
		logger.Info("分布式追踪已初始化")
	} else {
		logger.Info("分布式追踪已禁用")
	}

	// --- 4. 初始化核心依赖 ---
	// 4.1 MySQL
	db, dbErr := dependencies.InitMySQL(&cfg, logger)
	if dbErr != nil {
		logger.Fatal("初始化 MySQL 数据库失败", zap.Error(dbErr))
	}
	logger.Info("MySQL 数据库连接成功")

	// 4.2 Redis (可选：只承载热度榜，不可用时热门列表回退到 MySQL)
	var heatRankRepo redisrepo.HeatRankRepository
	rdb, redisErr := dependencies.InitRedis(&cfg.RedisConfig, logger)
	if redisErr != nil {
		logger.Warn("初始化 Redis 失败，热度榜功能降级为直接查询 MySQL", zap.Error(redisErr))
	} else {
		heatRankRepo = redisrepo.NewHeatRankRepository(rdb, cfg.GalleryConfig.HotRankSize, baseLogger)
		logger.Info("Redis 连接成功")
	}

	// 4.3 文件存储 (本地磁盘或 COS)
	var cosClient dependencies.COSClientInterface
	if cfg.StorageConfig.Type == constant.StorageTypeCOS {
		var err error
		cosClient, err = dependencies.InitCOS(&cfg.StorageConfig.COS, baseLogger)
		if err != nil {
			logger.Fatal("初始化 COS 客户端失败", zap.Error(err))
		}
		logger.Info("COS 客户端初始化成功")
	}
	fileStorage, storageErr := storage.New(cfg.StorageConfig, cosClient, baseLogger)
	if storageErr != nil {
		logger.Fatal("初始化文件存储失败", zap.Error(storageErr))
	}

	// 4.4 Kafka 生产者
	var kafkaProducer *producer.KafkaProducer
	var publisher service.EventPublisher
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer = producer.NewKafkaProducer(cfg.KafkaConfig, baseLogger)
		publisher = kafkaProducer
		logger.Info("Kafka 生产者已初始化")
	} else {
		logger.Warn("未配置 Kafka brokers，作品事件将不会发布")
	}

	// --- 5. 初始化数据仓库层 (Repositories) ---
	imageRepo := mysql.NewImageRepository(db, baseLogger)
	tagRepo := mysql.NewTagRepository(db)
	slotRepo := mysql.NewReferenceSlotRepository()
	logger.Debug("Repositories 初始化完成")

	// --- 6. 初始化服务层 (Services) ---
	submissionService := service.NewSubmissionService(db, imageRepo, tagRepo, slotRepo, fileStorage, heatRankRepo, publisher, baseLogger)
	galleryService := service.NewGalleryService(imageRepo, tagRepo, heatRankRepo, cfg.GalleryConfig, baseLogger)
	statsService := service.NewStatsService(db, imageRepo, heatRankRepo, baseLogger)
	adminService := service.NewAdminService(imageRepo, tagRepo, heatRankRepo, baseLogger)
	logger.Debug("Services 初始化完成")

	// --- 7. 初始化控制器层 (Controllers) ---
	galleryController := controller.NewGalleryController(galleryService, statsService, cfg.GalleryConfig.AllowPublicSensitiveToggle)
	submissionController := controller.NewSubmissionController(submissionService, cfg.GalleryConfig.MaxUploadMemoryMB)
	adminController := controller.NewAdminController(adminService)

	// --- 8. 初始化 Kafka 消费者 (审核结果回传) ---
	var consumers []*consumer.Consumer
	var consumerWg sync.WaitGroup
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()

	if len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.ConsumerGroupID
		if groupID == "" {
			groupID = constant.ServiceName + "_group"
			logger.Warn("Kafka ConsumerGroupID 未配置，使用默认值", zap.String("group_id", groupID))
		}

		handlers := map[string]consumer.MessageHandler{
			cfg.KafkaConfig.Topics.SubmissionReviewApproved: consumer.NewApprovedHandler(baseLogger, adminService),
			cfg.KafkaConfig.Topics.SubmissionReviewRejected: consumer.NewRejectedHandler(baseLogger, adminService),
		}
		for topic, handler := range handlers {
			if topic == "" {
				logger.Warn("审核结果 topic 未配置，跳过对应消费者")
				continue
			}
			c, err := consumer.NewConsumer(&cfg.KafkaConfig, groupID, topic, handler, baseLogger)
			if err != nil {
				logger.Fatal("初始化 Kafka 消费者失败", zap.String("topic", topic), zap.Error(err))
			}
			consumers = append(consumers, c)
		}

		logger.Info(fmt.Sprintf("准备启动 %d 个 Kafka 消费者...", len(consumers)))
		for _, c := range consumers {
			consumerWg.Add(1)
			go func(cons *consumer.Consumer) {
				defer consumerWg.Done()
				cons.Start(consumerCtx)
			}(c)
		}
	} else {
		logger.Warn("Kafka Brokers 未配置，跳过所有 Kafka 消费者初始化。")
	}

	// --- 9. 初始化定时任务 ---
	var stoppers []func() context.Context
	sweepTask := tasks.NewOrphanTagSweepTask(tagRepo, baseLogger)
	stoppers = append(stoppers, sweepTask.Stop)
	if heatRankRepo != nil {
		rankTask := tasks.NewHeatRankRefreshTask(imageRepo, heatRankRepo, cfg.GalleryConfig.HotRankSize, baseLogger)
		stoppers = append(stoppers, rankTask.Stop)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := rankTask.Refresh(ctx); err != nil {
				logger.Warn("启动时预热热度榜失败", zap.Error(err))
			}
		}()
	}
	logger.Info("后台定时任务已启动")

	// --- 10. 设置 Gin 路由器 ---
	ginRouter := router.SetupRouter(logger, &cfg, galleryController, submissionController, adminController)

	// --- 11. 启动 HTTP 服务器 ---
	serverAddr := fmt.Sprintf(":%s", cfg.ServerConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: ginRouter,
	}
	go func() {
		logger.Info("HTTP 服务器开始监听", zap.String("address", serverAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器启动失败", zap.Error(err))
		}
	}()

	// --- 12. 优雅关停 ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	logger.Info("收到关停信号，开始优雅退出...", zap.String("signal", receivedSignal.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// a. 停止 HTTP 服务器 (允许处理完当前请求)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭 HTTP 服务器失败", zap.Error(err))
	} else {
		logger.Info("HTTP 服务器已成功关闭")
	}

	// b. 停止 Kafka 消费者
	consumerCancel()
	consumerWg.Wait()
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			logger.Error("关闭某个 Kafka 消费者时出错", zap.Error(err))
		}
	}
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.Error("关闭 Kafka 生产者失败", zap.Error(err))
		}
	}

	// c. 停止定时任务调度器，等待执行中的任务结束
	for _, stop := range stoppers {
		select {
		case <-stop().Done():
		case <-shutdownCtx.Done():
			logger.Error("等待定时任务停止超时", zap.Error(shutdownCtx.Err()))
		}
	}

	// d. 关闭 Redis 连接
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("关闭 Redis 连接失败", zap.Error(err))
		}
	}

	logger.Info("服务已成功关闭")
}
