package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Xushengqwer/go-common/constants"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/models/vo"
	"github.com/Xushengqwer/gallery_service/service"
)

// GalleryController 公开画廊：列表、详情、热门、标签与计数
type GalleryController struct {
	galleryService service.GalleryService
	statsService   service.StatsService
	// allowSensitiveToggle 为 true 时，匿名访客可通过 Cookie 自行打开敏感内容
	allowSensitiveToggle bool
}

func NewGalleryController(galleryService service.GalleryService, statsService service.StatsService, allowSensitiveToggle bool) *GalleryController {
	return &GalleryController{
		galleryService:       galleryService,
		statsService:         statsService,
		allowSensitiveToggle: allowSensitiveToggle,
	}
}

// showSensitive 已登录用户 (网关透传了 UserID) 总是可以查看敏感内容
func (ctrl *GalleryController) showSensitive(c *gin.Context) bool {
	if c.GetString(string(constants.UserIDKey)) != "" {
		return true
	}
	if !ctrl.allowSensitiveToggle {
		return false
	}
	v, err := c.Cookie(constant.SensitiveCookieName)
	return err == nil && v == "1"
}

// List 画廊列表
// @Summary      画廊列表 (公开)
// @Description  已审核作品的分页列表，支持关键词 (标题/提示词/作者)、标签、分类筛选，按最新、热度或随机排序。含敏感标签的作品默认隐藏。
// @Tags         gallery (画廊)
// @Produce      json
// @Param        q query string false "关键词" maxLength(255)
// @Param        tag query string false "标签名"
// @Param        sort query string false "排序方式" Enums(date, hot, random) default(date)
// @Param        category query string false "分类" Enums(gallery, template)
// @Param        page query int false "页码" minimum(1) default(1)
// @Param        page_size query int false "每页数量" minimum(1) maximum(100)
// @Success      200 {object} vo.GalleryPageResponseWrapper "成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的查询参数"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/gallery/images [get]
func (ctrl *GalleryController) List(c *gin.Context) {
	var query dto.GalleryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}
	page, err := ctrl.galleryService.List(c.Request.Context(), &query, ctrl.showSensitive(c))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "获取画廊列表失败: "+err.Error())
		return
	}
	submissionVOs(c, page.Items)
	response.RespondSuccess(c, page, "画廊列表获取成功")
}

// Get 作品详情
// @Summary      作品详情 (公开)
// @Tags         gallery (画廊)
// @Produce      json
// @Param        id path uint64 true "作品 ID"
// @Success      200 {object} vo.SubmissionResponseWrapper "成功"
// @Failure      404 {object} vo.BaseResponseWrapper "作品不存在或未公开"
// @Router       /api/v1/gallery/images/{id} [get]
func (ctrl *GalleryController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	img, err := ctrl.galleryService.Get(c.Request.Context(), id, ctrl.showSensitive(c))
	if err != nil {
		respondServiceError(c, err, "获取作品")
		return
	}
	response.RespondSuccess(c, submissionVO(c, img), "作品获取成功")
}

// Hot 热门作品
// @Summary      热门作品 (公开)
// @Tags         gallery (画廊)
// @Produce      json
// @Param        limit query int false "数量" minimum(1) maximum(100) default(20)
// @Success      200 {object} vo.SubmissionListResponseWrapper "成功"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/gallery/hot [get]
func (ctrl *GalleryController) Hot(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constant.DefaultHotLimit)))
	if err != nil || limit <= 0 || limit > 100 {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的 limit 参数")
		return
	}
	images, err := ctrl.galleryService.Hot(c.Request.Context(), limit, ctrl.showSensitive(c))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "获取热门作品失败: "+err.Error())
		return
	}
	items := vo.NewSubmissionVOs(images)
	submissionVOs(c, items)
	response.RespondSuccess(c, items, "热门作品获取成功")
}

// Tags 标签侧栏
// @Summary      标签列表 (公开)
// @Description  至少被一个已审核作品使用的标签，按名称排序
// @Tags         gallery (画廊)
// @Produce      json
// @Success      200 {object} vo.TagListResponseWrapper "成功"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/gallery/tags [get]
func (ctrl *GalleryController) Tags(c *gin.Context) {
	tags, err := ctrl.galleryService.Tags(c.Request.Context(), ctrl.showSensitive(c))
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "获取标签失败: "+err.Error())
		return
	}
	response.RespondSuccess(c, tags, "标签获取成功")
}

// APIList 全量分页接口，供外部程序同步作品
// @Summary      作品全量列表 (外部接口)
// @Tags         gallery (画廊)
// @Produce      json
// @Param        page query int false "页码" minimum(1) default(1)
// @Param        per_page query int false "每页数量，上限由配置决定" minimum(1) default(100)
// @Success      200 {object} vo.APIListVO "成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的查询参数"
// @Router       /api/list [get]
func (ctrl *GalleryController) APIList(c *gin.Context) {
	var query dto.APIListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}
	out, err := ctrl.galleryService.APIList(c.Request.Context(), query.Page, query.PerPage)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "获取作品列表失败: "+err.Error())
		return
	}
	submissionVOs(c, out.Data)
	c.JSON(http.StatusOK, out)
}

// RecordView 浏览数 +1
// @Summary      记录浏览
// @Tags         stats (计数)
// @Produce      json
// @Param        id path uint64 true "作品 ID"
// @Success      200 {object} vo.CounterResponseWrapper "成功；作品不存在时 data 为空"
// @Router       /api/v1/gallery/stats/view/{id} [post]
func (ctrl *GalleryController) RecordView(c *gin.Context) {
	ctrl.record(c, ctrl.statsService.RecordView)
}

// RecordCopy 复制数 +1
// @Summary      记录复制
// @Tags         stats (计数)
// @Produce      json
// @Param        id path uint64 true "作品 ID"
// @Success      200 {object} vo.CounterResponseWrapper "成功；作品不存在时 data 为空"
// @Router       /api/v1/gallery/stats/copy/{id} [post]
func (ctrl *GalleryController) RecordCopy(c *gin.Context) {
	ctrl.record(c, ctrl.statsService.RecordCopy)
}

func (ctrl *GalleryController) record(c *gin.Context, fn func(ctx context.Context, id uint64) (*vo.CounterVO, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	counter, err := fn(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "更新计数失败: "+err.Error())
		return
	}
	response.RespondSuccess(c, counter, "ok")
}

// RegisterRoutes 注册 GalleryController 的路由
func (ctrl *GalleryController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/images", ctrl.List)                // GET /api/v1/gallery/images
	group.GET("/images/:id", ctrl.Get)             // GET /api/v1/gallery/images/:id
	group.GET("/hot", ctrl.Hot)                    // GET /api/v1/gallery/hot
	group.GET("/tags", ctrl.Tags)                  // GET /api/v1/gallery/tags
	group.POST("/stats/view/:id", ctrl.RecordView) // POST /api/v1/gallery/stats/view/:id
	group.POST("/stats/copy/:id", ctrl.RecordCopy) // POST /api/v1/gallery/stats/copy/:id
}
