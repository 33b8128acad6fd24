package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 统一响应信封，前端按 success 判断
type Body struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func JSON(c *gin.Context, status int, success bool, msg string, data interface{}) {
	c.JSON(status, Body{Success: success, Message: msg, Data: data})
}

func Success(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, true, "success", data)
}

func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, true, "success", data)
}

// Error status 为 HTTP 状态码；data 固定为 null
func Error(c *gin.Context, status int, msg string) {
	JSON(c, status, false, msg, nil)
}

// Abort 中间件使用：写出错误并终止后续 handler
func Abort(c *gin.Context, status int, msg string) {
	Error(c, status, msg)
	c.Abort()
}
