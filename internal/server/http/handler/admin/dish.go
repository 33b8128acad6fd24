package admin

import (
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/service"
	"go-canteenadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type DishHandler struct{ d Dependencies }

func NewDishHandler(d Dependencies) *DishHandler { return &DishHandler{d: d} }

// List GET /dishes?status=&categoryId=&keyword=&mealType=&page=&pageSize=
func (h *DishHandler) List(c *gin.Context) {
	var p query.DishParams
	_ = c.ShouldBindQuery(&p)
	res, err := h.d.Dish.ListDishes(c.Request.Context(), p)
	if err != nil {
		h.d.fail(c, "dish_list", err)
		return
	}
	response.Success(c, res)
}

// Available 小程序与管理端共用，只返回上架菜品
func (h *DishHandler) Available(c *gin.Context) {
	var p query.DishParams
	_ = c.ShouldBindQuery(&p)
	res, err := h.d.Dish.ListAvailableDishes(c.Request.Context(), p)
	if err != nil {
		h.d.fail(c, "dish_available", err)
		return
	}
	response.Success(c, res)
}

func (h *DishHandler) Detail(c *gin.Context) {
	d, err := h.d.Dish.GetDishDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.d.fail(c, "dish_detail", err)
		return
	}
	if d == nil {
		notFound(c, "菜品不存在")
		return
	}
	response.Success(c, d)
}

func (h *DishHandler) Create(c *gin.Context) {
	var in service.DishInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}
	d, err := h.d.Dish.CreateDish(c.Request.Context(), in, actorID(c))
	if err != nil {
		h.d.fail(c, "dish_create", err)
		return
	}
	response.Created(c, d)
}

func (h *DishHandler) Update(c *gin.Context) {
	var in service.DishInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return
	}
	d, err := h.d.Dish.UpdateDish(c.Request.Context(), c.Param("id"), in, actorID(c))
	if err != nil {
		h.d.fail(c, "dish_update", err)
		return
	}
	response.Success(c, d)
}

// ChangeStatus PUT /dishes/:id/status {"status":"inactive"}
func (h *DishHandler) ChangeStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	st, err := h.d.Dish.ChangeDishStatus(c.Request.Context(), c.Param("id"), req.Status, actorID(c))
	if err != nil {
		h.d.fail(c, "dish_change_status", err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "status": st})
}

// Delete 软删除；重复删除返回 deleted=false 而不是错误
func (h *DishHandler) Delete(c *gin.Context) {
	changed, err := h.d.Dish.SoftDeleteDish(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		h.d.fail(c, "dish_delete", err)
		return
	}
	response.Success(c, gin.H{"deleted": changed})
}

func (h *DishHandler) Categories(c *gin.Context) {
	list, err := h.d.Dish.ListCategories(c.Request.Context())
	if err != nil {
		h.d.fail(c, "category_list", err)
		return
	}
	response.Success(c, list)
}
