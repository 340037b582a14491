package controller

import (
	"net/http"

	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/service"
)

// AdminController 管理员审核与标签管理。鉴权由网关负责。
type AdminController struct {
	adminService service.AdminService
}

func NewAdminController(adminService service.AdminService) *AdminController {
	return &AdminController{adminService: adminService}
}

// List 按条件列出作品 (管理员)
// @Summary      按条件列出作品 (管理员)
// @Description  包含待审核与已拒绝的作品，可按状态、分类、标题筛选
// @Tags         admin-submissions (管理员-作品)
// @Produce      json
// @Param        status query int false "审核状态 (0=待审核, 1=已审核, 2=已拒绝)" Enums(0, 1, 2)
// @Param        category query string false "分类" Enums(gallery, template)
// @Param        title query string false "标题 (模糊匹配)"
// @Param        page query int false "页码" minimum(1) default(1)
// @Param        page_size query int false "每页数量" minimum(1) maximum(200) default(20)
// @Success      200 {object} vo.AdminPageResponseWrapper "成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的查询参数"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/gallery/admin/images [get]
func (ctrl *AdminController) List(c *gin.Context) {
	var query dto.AdminListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的查询参数: "+err.Error())
		return
	}
	page, err := ctrl.adminService.List(c.Request.Context(), &query)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, "查询作品列表失败: "+err.Error())
		return
	}
	submissionVOs(c, page.Items)
	response.RespondSuccess(c, page, "作品列表获取成功")
}

// SetStatus 审核作品
// @Summary      审核作品
// @Tags         admin-submissions (管理员-作品)
// @Accept       json
// @Produce      json
// @Param        id path uint64 true "作品 ID"
// @Param        request body dto.SetStatusRequest true "审核状态"
// @Success      200 {object} vo.SubmissionResponseWrapper "审核成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的请求负载"
// @Failure      404 {object} vo.BaseResponseWrapper "作品不存在"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/gallery/admin/images/{id}/status [post]
func (ctrl *AdminController) SetStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求负载: "+err.Error())
		return
	}
	img, err := ctrl.adminService.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondServiceError(c, err, "审核作品")
		return
	}
	response.RespondSuccess(c, submissionVO(c, img), "作品审核成功")
}

// SetTagSensitive 标记敏感标签
// @Summary      标记/取消敏感标签
// @Tags         admin-tags (管理员-标签)
// @Accept       json
// @Produce      json
// @Param        id path uint64 true "标签 ID"
// @Param        request body dto.SetTagSensitiveRequest true "是否敏感"
// @Success      200 {object} vo.BaseResponseWrapper "成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的请求负载"
// @Failure      404 {object} vo.BaseResponseWrapper "标签不存在"
// @Router       /api/v1/gallery/admin/tags/{id}/sensitive [post]
func (ctrl *AdminController) SetTagSensitive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetTagSensitiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的请求负载: "+err.Error())
		return
	}
	tag, err := ctrl.adminService.SetTagSensitive(c.Request.Context(), id, *req.IsSensitive)
	if err != nil {
		respondServiceError(c, err, "修改标签")
		return
	}
	response.RespondSuccess(c, tag, "标签已更新")
}

// RegisterRoutes 注册 AdminController 的路由
func (ctrl *AdminController) RegisterRoutes(group *gin.RouterGroup) {
	admin := group.Group("/admin")
	{
		admin.GET("/images", ctrl.List)                          // GET /api/v1/gallery/admin/images
		admin.POST("/images/:id/status", ctrl.SetStatus)         // POST /api/v1/gallery/admin/images/:id/status
		admin.POST("/tags/:id/sensitive", ctrl.SetTagSensitive) // POST /api/v1/gallery/admin/tags/:id/sensitive
	}
}
