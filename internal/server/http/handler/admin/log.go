package admin

import (
	"go-canteenadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type LogHandler struct{ d Dependencies }

func NewLogHandler(d Dependencies) *LogHandler { return &LogHandler{d: d} }

// List GET /logs?userId=&path=&page=&pageSize=
func (h *LogHandler) List(c *gin.Context) {
	res, err := h.d.Admin.ListOperationLogs(c.Request.Context(), c.Query("userId"), c.Query("path"), c.Query("page"), pageSize(c))
	if err != nil {
		h.d.fail(c, "oplog_list", err)
		return
	}
	response.Success(c, res)
}
