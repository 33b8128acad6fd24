package admin

import (
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/pkg/cache"
	"go-canteenadmin/internal/service"
)

// Dependencies admin 子包最小依赖集合
type Dependencies struct {
	Dish   *service.DishService
	Menu   *service.MenuService
	Admin  *service.AdminService
	Cache  cache.Cache
	Logger *logging.Logger
}
