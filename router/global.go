package router

import (
	"net/http"
	"time"

	"github.com/Xushengqwer/go-common/core"
	commonMiddleware "github.com/Xushengqwer/go-common/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	appConfig "github.com/Xushengqwer/gallery_service/config"
	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/controller"
)

// SetupRouter 仅负责配置 Gin 引擎、中间件和路由注册。
func SetupRouter(
	logger *core.ZapLogger,
	cfg *appConfig.GalleryServiceConfig,
	galleryController *controller.GalleryController,
	submissionController *controller.SubmissionController,
	adminController *controller.AdminController,
) *gin.Engine {
	logger.Info("开始设置 Gin 路由...")

	router := gin.New()

	// 1. OTel Middleware (最先，处理追踪上下文和 Span)
	router.Use(otelgin.Middleware(constant.ServiceName))

	// 2. Panic Recovery
	router.Use(commonMiddleware.ErrorHandlingMiddleware(logger))

	// 3. Request Logger (需要 TraceID)
	if baseLogger := logger.Logger(); baseLogger != nil {
		router.Use(commonMiddleware.RequestLoggerMiddleware(baseLogger))
	} else {
		logger.Warn("无法获取底层的 *zap.Logger，跳过 RequestLoggerMiddleware 注册")
	}

	// 4. Request Timeout，配置单位为秒
	requestTimeout := time.Duration(cfg.ServerConfig.RequestTimeout) * time.Second
	router.Use(commonMiddleware.RequestTimeoutMiddleware(logger, requestTimeout))

	// 5. User Context (网关透传的用户信息，决定敏感内容是否可见)
	router.Use(commonMiddleware.UserContextMiddleware())

	logger.Debug("已注册全局中间件")

	// --- 本地存储时由本服务直接提供上传文件 ---
	if cfg.StorageConfig.Type != constant.StorageTypeCOS {
		prefix, dir := cfg.StorageConfig.Local.PublicPrefix, cfg.StorageConfig.Local.UploadDir
		if prefix == "" {
			prefix = constant.DefaultPublicPrefix
		}
		if dir == "" {
			dir = constant.DefaultUploadDir
		}
		router.Static(prefix, dir)
		logger.Info("已注册本地上传文件的静态路由")
	}

	// --- 创建 API 版本分组 ---
	v1 := router.Group("/api/v1/gallery")
	galleryController.RegisterRoutes(v1)
	submissionController.RegisterRoutes(v1)
	adminController.RegisterRoutes(v1)
	logger.Info("所有控制器路由已注册到 /api/v1/gallery 分组")

	// 兼容旧版的外部列表接口
	router.GET("/api/list", galleryController.APIList)

	// --- Swagger UI ---
	swaggerURL := ginSwagger.URL("/swagger/doc.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, swaggerURL))
	logger.Info("Swagger UI endpoint registered at /swagger/*any")

	// --- 健康检查 ---
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	logger.Info("Gin 路由器设置完成")
	return router
}
