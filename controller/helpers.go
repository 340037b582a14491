package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/response"
	"github.com/gin-gonic/gin"

	"github.com/Xushengqwer/gallery_service/models/entities"
	"github.com/Xushengqwer/gallery_service/models/vo"
	"github.com/Xushengqwer/gallery_service/myErrors"
)

// parseID 解析路径参数中的 ID，失败时已写入 400 响应
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, "无效的 ID 格式")
		return 0, false
	}
	return id, true
}

// respondServiceError 把服务层错误映射为 HTTP 状态码
func respondServiceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, commonerrors.ErrRepoNotFound):
		response.RespondError(c, http.StatusNotFound, response.ErrCodeClientResourceNotFound, action+"失败: 资源不存在")
	case errors.Is(err, myErrors.ErrMissingMainFile),
		errors.Is(err, myErrors.ErrInvalidImage),
		errors.Is(err, myErrors.ErrInvalidInput):
		response.RespondError(c, http.StatusBadRequest, response.ErrCodeClientInvalidInput, action+"失败: "+err.Error())
	default:
		response.RespondError(c, http.StatusInternalServerError, response.ErrCodeServerInternal, action+"失败: "+err.Error())
	}
}

// requestBaseURL 当前请求的 scheme://host，用于补全站内文件路径
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + c.Request.Host
}

func submissionVO(c *gin.Context, img *entities.Image) *vo.SubmissionVO {
	v := vo.NewSubmissionVO(img)
	v.Absolutize(requestBaseURL(c))
	return v
}

func submissionVOs(c *gin.Context, items []*vo.SubmissionVO) {
	base := requestBaseURL(c)
	for _, v := range items {
		v.Absolutize(base)
	}
}
