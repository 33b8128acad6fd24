package admin

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/service"
	"go-canteenadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type MenuHandler struct{ d Dependencies }

func NewMenuHandler(d Dependencies) *MenuHandler { return &MenuHandler{d: d} }

// ByDate GET /menus/by-date?date=YYYY-MM-DD&mealType=lunch，任意发布状态
func (h *MenuHandler) ByDate(c *gin.Context) {
	if v, ok := h.lookupByDate(c); ok {
		response.Success(c, v)
	}
}

// PublishedByDate 小程序端只能看到已发布的菜单，草稿与归档一律 404
func (h *MenuHandler) PublishedByDate(c *gin.Context) {
	v, ok := h.lookupByDate(c)
	if !ok {
		return
	}
	if v.PublishStatus != model.PublishPublished {
		notFound(c, "菜单不存在")
		return
	}
	response.Success(c, v)
}

// lookupByDate 校验参数并查询；失败时已写出响应
func (h *MenuHandler) lookupByDate(c *gin.Context) (*service.MenuView, bool) {
	date, meal := c.Query("date"), c.Query("mealType")
	if _, ok := query.ParseDate(date); !ok {
		badRequest(c, "date must be YYYY-MM-DD")
		return nil, false
	}
	if _, ok := model.ParseMealType(meal); !ok {
		badRequest(c, "mealType must be breakfast, lunch or dinner")
		return nil, false
	}
	v, err := h.d.Menu.GetMenuByDate(c.Request.Context(), date, meal)
	if err != nil {
		h.d.fail(c, "menu_by_date", err)
		return nil, false
	}
	if v == nil {
		notFound(c, "菜单不存在")
		return nil, false
	}
	return v, true
}

func (h *MenuHandler) SaveDraft(c *gin.Context) {
	var in service.MenuDraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}
	v, err := h.d.Menu.SaveMenuDraft(c.Request.Context(), in, actorID(c))
	if err != nil {
		h.d.fail(c, "menu_save", err)
		return
	}
	response.Success(c, v)
}

func (h *MenuHandler) History(c *gin.Context) {
	var p query.MenuHistoryParams
	_ = c.ShouldBindQuery(&p)
	res, err := h.d.Menu.GetMenuHistory(c.Request.Context(), p)
	if err != nil {
		h.d.fail(c, "menu_history", err)
		return
	}
	response.Success(c, res)
}

// Export 先写内存再输出，失败时仍能返回 JSON 信封
func (h *MenuHandler) Export(c *gin.Context) {
	var p query.MenuHistoryParams
	_ = c.ShouldBindQuery(&p)
	var buf bytes.Buffer
	n, err := h.d.Menu.ExportMenuHistory(c.Request.Context(), p, &buf)
	if err != nil {
		h.d.fail(c, "menu_export", err)
		return
	}
	name := fmt.Sprintf("menu-history-%s.xlsx", time.Now().UTC().Format("20060102150405"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(n))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *MenuHandler) Templates(c *gin.Context) {
	list, err := h.d.Menu.GetMenuTemplates(c.Request.Context())
	if err != nil {
		h.d.fail(c, "menu_templates", err)
		return
	}
	response.Success(c, list)
}

func (h *MenuHandler) Publish(c *gin.Context) {
	if err := h.d.Menu.PublishMenu(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		h.d.fail(c, "menu_publish", err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "publishStatus": model.PublishPublished})
}

func (h *MenuHandler) Archive(c *gin.Context) {
	if err := h.d.Menu.ArchiveMenu(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		h.d.fail(c, "menu_archive", err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "publishStatus": model.PublishArchived})
}

func (h *MenuHandler) Delete(c *gin.Context) {
	changed, err := h.d.Menu.DeleteMenu(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		h.d.fail(c, "menu_delete", err)
		return
	}
	response.Success(c, gin.H{"deleted": changed})
}
