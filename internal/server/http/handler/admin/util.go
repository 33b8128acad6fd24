package admin

import (
	"errors"
	"net/http"

	"go-canteenadmin/internal/repository/database"
	"go-canteenadmin/internal/service"
	"go-canteenadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActorKey 认证中间件写入的当前用户 id
const ActorKey = "user_id"

func actorID(c *gin.Context) string { return c.GetString(ActorKey) }

// statusOf 业务错误 -> HTTP 状态码与对外文案；未识别的错误一律 500 且不透出细节
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "资源不存在"
	case errors.Is(err, service.ErrMenuConflict),
		errors.Is(err, service.ErrMenuNotEditable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDishUnavailable):
		return http.StatusConflict, err.Error()
	case errors.Is(err, database.ErrTimeout):
		return http.StatusServiceUnavailable, "服务繁忙，请稍后重试"
	}
	return http.StatusInternalServerError, "服务器内部错误"
}

// fail 写出错误响应；5xx 在这里记录一次日志
func (d Dependencies) fail(c *gin.Context, op string, err error) {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError && d.Logger != nil {
		d.Logger.WithContext(c.Request.Context()).Error(op+"_failed", zap.Error(err))
	}
	_ = c.Error(err)
	response.Error(c, status, msg)
}

func notFound(c *gin.Context, msg string) { response.Error(c, http.StatusNotFound, msg) }

func badRequest(c *gin.Context, msg string) { response.Error(c, http.StatusBadRequest, msg) }
