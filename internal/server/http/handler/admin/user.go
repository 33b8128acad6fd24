package admin

import (
	"go-canteenadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{ d Dependencies }

func NewUserHandler(d Dependencies) *UserHandler { return &UserHandler{d: d} }

// List GET /users?keyword=&page=&pageSize=
func (h *UserHandler) List(c *gin.Context) {
	res, err := h.d.Admin.ListUsers(c.Request.Context(), c.Query("keyword"), c.Query("page"), pageSize(c))
	if err != nil {
		h.d.fail(c, "user_list", err)
		return
	}
	response.Success(c, res)
}

func (h *UserHandler) Departments(c *gin.Context) {
	list, err := h.d.Admin.ListDepartments(c.Request.Context())
	if err != nil {
		h.d.fail(c, "department_list", err)
		return
	}
	response.Success(c, list)
}

// pageSize 兼容旧前端的 size 参数
func pageSize(c *gin.Context) string {
	if v := c.Query("pageSize"); v != "" {
		return v
	}
	return c.Query("size")
}
