package dependencies

import (
	"context"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	appConfig "github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/models/entities"
)

const (
	mysqlConnectAttempts = 5
	mysqlRetryInterval   = 2 * time.Second
	mysqlPingTimeout     = 5 * time.Second
)

// poolSettings 连接池参数，单位为秒的字段已换算为 Duration
type poolSettings struct {
	maxIdle     int
	maxOpen     int
	maxLifetime time.Duration
}

// InitMySQL 连接主库，配置了从库时启用 dbresolver 读写分离，最后迁移画廊表结构。
func InitMySQL(cfg *appConfig.GalleryServiceConfig, logger *core.ZapLogger) (*gorm.DB, error) {
	mysqlCfg := cfg.MySQLConfig
	if mysqlCfg.Write.DSN == "" {
		return nil, fmt.Errorf("主数据库 DSN (mysqlConfig.write.dsn) 未配置")
	}

	gormConfig := &gorm.Config{Logger: core.NewGormLogger(logger, cfg.GormLogConfig)}
	db, err := openWithRetry(mysqlCfg.Write.DSN, gormConfig, logger)
	if err != nil {
		return nil, err
	}

	pool := writePool(mysqlCfg)
	if err := useReplicas(db, mysqlCfg, pool, logger); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(pool.maxIdle)
	sqlDB.SetMaxOpenConns(pool.maxOpen)
	sqlDB.SetConnMaxLifetime(pool.maxLifetime)
	logger.Info("数据库连接池已配置",
		zap.Int("maxIdle", pool.maxIdle),
		zap.Int("maxOpen", pool.maxOpen),
		zap.Duration("maxLifetime", pool.maxLifetime),
	)

	if err := MigrateSchema(db); err != nil {
		logger.Error("画廊表结构迁移失败", zap.Error(err))
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}
	logger.Info("MySQL 初始化完成", zap.Int("replicas", len(mysqlCfg.Read)))
	return db, nil
}

// openWithRetry 打开主库并 Ping，失败时按固定间隔重试
func openWithRetry(dsn string, gormConfig *gorm.Config, logger *core.ZapLogger) (*gorm.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= mysqlConnectAttempts; attempt++ {
		db, err := gorm.Open(mysql.Open(dsn), gormConfig)
		if err == nil {
			if err = ping(db); err == nil {
				logger.Info("已连接主数据库", zap.Int("attempt", attempt))
				return db, nil
			}
		}
		lastErr = err
		logger.Warn("连接主数据库失败", zap.Int("attempt", attempt), zap.Int("maxAttempts", mysqlConnectAttempts), zap.Error(err))
		if attempt < mysqlConnectAttempts {
			time.Sleep(mysqlRetryInterval)
		}
	}
	return nil, fmt.Errorf("无法连接到主数据库: %w", lastErr)
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), mysqlPingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// writePool 共享连接池参数，主库上的非空字段覆盖共享值
func writePool(cfg appConfig.MySQLConfig) poolSettings {
	p := poolSettings{
		maxIdle:     cfg.SharedMaxIdleConns,
		maxOpen:     cfg.SharedMaxOpenConns,
		maxLifetime: time.Duration(cfg.SharedConnMaxLifetime) * time.Second,
	}
	if v := cfg.Write.MaxIdleConns; v != nil {
		p.maxIdle = *v
	}
	if v := cfg.Write.MaxOpenConns; v != nil {
		p.maxOpen = *v
	}
	if v := cfg.Write.ConnMaxLifetime; v != nil {
		p.maxLifetime = time.Duration(*v) * time.Second
	}
	return p
}

// useReplicas 注册 dbresolver：写走主库，读在从库间严格轮询。
// dbresolver 对所有源与从库共用同一组池参数。
func useReplicas(db *gorm.DB, cfg appConfig.MySQLConfig, pool poolSettings, logger *core.ZapLogger) error {
	replicas := make([]gorm.Dialector, 0, len(cfg.Read))
	for i, r := range cfg.Read {
		if r.DSN == "" {
			logger.Warn("从库 DSN 为空，已跳过", zap.Int("index", i))
			continue
		}
		replicas = append(replicas, mysql.Open(r.DSN))
	}
	if len(replicas) == 0 {
		logger.Info("未配置从库，读写均走主库")
		return nil
	}

	resolver := dbresolver.Register(dbresolver.Config{
		Sources:  []gorm.Dialector{mysql.Open(cfg.Write.DSN)},
		Replicas: replicas,
		Policy:   dbresolver.StrictRoundRobinPolicy(),
	}).
		SetMaxIdleConns(pool.maxIdle).
		SetMaxOpenConns(pool.maxOpen).
		SetConnMaxLifetime(pool.maxLifetime)

	if err := db.Use(resolver); err != nil {
		logger.Error("注册 dbresolver 失败", zap.Error(err))
		return fmt.Errorf("配置读写分离失败: %w", err)
	}
	logger.Info("已启用读写分离", zap.Int("replicas", len(replicas)))
	return nil
}

// MigrateSchema 注册 image_tags 连接表模型并迁移全部实体。
// 连接表必须在 AutoMigrate 之前注册，否则 GORM 会按默认结构建表。
func MigrateSchema(db *gorm.DB) error {
	if err := db.SetupJoinTable(&entities.Image{}, "Tags", &entities.ImageTag{}); err != nil {
		return fmt.Errorf("注册 image_tags 连接表失败: %w", err)
	}
	return db.AutoMigrate(
		&entities.Tag{},
		&entities.Image{},
		&entities.ImageTag{},
		&entities.ReferenceSlot{},
	)
}
