package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/gallery_service/constant"
	"github.com/Xushengqwer/gallery_service/models/dto"
	"github.com/Xushengqwer/gallery_service/service"
)

// SubmissionController 作品上传、编辑、删除
type SubmissionController struct {
	submissionService service.SubmissionService
	maxMemory         int64
}

// NewSubmissionController maxUploadMemoryMB 为表单解析时保留在内存中的上限，超出部分落到临时文件
func NewSubmissionController(submissionService service.SubmissionService, maxUploadMemoryMB int64) *SubmissionController {
	if maxUploadMemoryMB <= 0 {
		maxUploadMemoryMB = 32
	}
	return &SubmissionController{
		submissionService: submissionService,
		maxMemory:         maxUploadMemoryMB << 20,
	}
}

// bindSubmissionForm 解析 multipart 表单并绑定元数据字段
func (ctrl *SubmissionController) bindSubmissionForm(c *gin.Context) (*dto.SubmissionForm, bool) {
	if err := c.Request.ParseMultipartForm(ctrl.maxMemory); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "解析表单数据失败: "+err.Error())
		return nil, false
	}
	var form dto.SubmissionForm
	if err := c.ShouldBind(&form); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "绑定请求数据失败: "+err.Error())
		return nil, false
	}
	_, form.TagsPresent = c.Request.MultipartForm.Value[constant.FormFieldTags]
	return &form, true
}

// Upload 上传新作品
// @Summary      上传作品
// @Description  上传主图 (必填) 与可选的参考图。type=img2img 时才处理参考图，ref_layout 为 JSON 字符串数组，元素为 "new"、"placeholder" 或 "existing:<id>"。
// @Tags         submissions (作品投稿)
// @Accept       multipart/form-data
// @Produce      json
// @Param        image formData file true "主图"
// @Param        ref_images formData file false "参考图 (可多选)"
// @Param        title formData string true "标题"
// @Param        author formData string false "作者"
// @Param        prompt formData string false "提示词"
// @Param        description formData string false "描述"
// @Param        type formData string false "作品类型" Enums(txt2img, img2img)
// @Param        category formData string false "分类" Enums(gallery, template)
// @Param        tags formData string false "标签，英文或全角逗号分隔"
// @Param        ref_layout formData string false "参考图布局"
// @Success      200 {object} vo.SubmissionResponseWrapper "作品上传成功"
// @Failure      400 {object} vo.BaseResponseWrapper "缺少主图、文件不是图片或表单无效"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/gallery/upload [post]
func (ctrl *SubmissionController) Upload(c *gin.Context) {
	form, ok := ctrl.bindSubmissionForm(c)
	if !ok {
		return
	}
	// 审核状态只能由管理端修改，公开上传一律进入待审核
	form.Status = nil
	files := c.Request.MultipartForm.File

	mainFile := firstFile(files[constant.FormFieldImage])
	img, err := ctrl.submissionService.Create(c.Request.Context(), mainFile, form, files[constant.FormFieldRefImages])
	if err != nil {
		respondServiceError(c, err, "上传作品")
		return
	}
	response.RespondSuccess(c, submissionVO(c, img), "作品上传成功，等待审核")
}

// Update 编辑作品 (管理员)
// @Summary      编辑作品
// @Description  覆盖作品元数据；可替换主图、追加参考图、删除参考图槽位 (deleted_ref_ids，逗号分隔) 或按 ref_layout 重排。tags 字段出现即替换标签集合。
// @Tags         admin-submissions (管理员-作品)
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path uint64 true "作品 ID"
// @Param        image formData file false "新主图"
// @Param        ref_images formData file false "新参考图 (可多选)"
// @Param        title formData string true "标题"
// @Param        status formData int false "审核状态 (0:待审核, 1:审核通过, 2:拒绝)" Enums(0,1,2)
// @Param        tags formData string false "标签"
// @Param        ref_layout formData string false "参考图布局"
// @Param        deleted_ref_ids formData string false "待删除的参考图槽位 ID"
// @Success      200 {object} vo.SubmissionResponseWrapper "作品编辑成功"
// @Failure      400 {object} vo.BaseResponseWrapper "无效的请求参数"
// @Failure      404 {object} vo.BaseResponseWrapper "作品不存在"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/gallery/admin/images/{id} [put]
func (ctrl *SubmissionController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	form, ok := ctrl.bindSubmissionForm(c)
	if !ok {
		return
	}
	mf := c.Request.MultipartForm

	deleted := parseIDList(mf.Value[constant.FormFieldDeletedRefIDs])
	img, err := ctrl.submissionService.Update(c.Request.Context(), id, form,
		firstFile(mf.File[constant.FormFieldImage]), mf.File[constant.FormFieldRefImages], deleted)
	if err != nil {
		respondServiceError(c, err, "编辑作品")
		return
	}
	response.RespondSuccess(c, submissionVO(c, img), "作品编辑成功")
}

// Delete 删除作品 (管理员)
// @Summary      删除作品
// @Description  删除作品及其参考图槽位与全部文件，不再被引用的标签随之删除。
// @Tags         admin-submissions (管理员-作品)
// @Produce      json
// @Param        id path uint64 true "作品 ID"
// @Success      200 {object} vo.BaseResponseWrapper "作品删除成功"
// @Failure      404 {object} vo.BaseResponseWrapper "作品不存在"
// @Failure      500 {object} vo.BaseResponseWrapper "服务器内部错误"
// @Router       /api/v1/gallery/admin/images/{id} [delete]
func (ctrl *SubmissionController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deleted, err := ctrl.submissionService.Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "删除作品")
		return
	}
	if !deleted {
		response.RespondError(c, http.StatusNotFound, response.ErrCodeClientResourceNotFound, "作品不存在")
		return
	}
	response.RespondSuccess[any](c, nil, "作品删除成功")
}

// RegisterRoutes 注册 SubmissionController 的路由
func (ctrl *SubmissionController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/upload", ctrl.Upload) // POST /api/v1/gallery/upload

	admin := group.Group("/admin/images")
	{
		admin.PUT("/:id", ctrl.Update)    // PUT /api/v1/gallery/admin/images/:id
		admin.DELETE("/:id", ctrl.Delete) // DELETE /api/v1/gallery/admin/images/:id
	}
}

func firstFile[T any](files []*T) *T {
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// parseIDList 同时支持重复字段与逗号分隔，无法解析的项被忽略
func parseIDList(values []string) []uint64 {
	ids := make([]uint64, 0)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err == nil && id > 0 {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
