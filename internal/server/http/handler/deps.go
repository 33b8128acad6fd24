package handler

import (
	adminh "go-canteenadmin/internal/server/http/handler/admin"
	debugh "go-canteenadmin/internal/server/http/handler/debug"
)

// HandlerSet 聚合 admin 与 debug 子包的 handler，供 router 使用
type HandlerSet struct {
	Dish  *adminh.DishHandler
	Menu  *adminh.MenuHandler
	User  *adminh.UserHandler
	Log   *adminh.LogHandler
	Cache *adminh.CacheHandler
	Debug *debugh.Handler
}

func NewHandlerSet(ad adminh.Dependencies, dbg debugh.Dependencies) *HandlerSet {
	return &HandlerSet{
		Dish:  adminh.NewDishHandler(ad),
		Menu:  adminh.NewMenuHandler(ad),
		User:  adminh.NewUserHandler(ad),
		Log:   adminh.NewLogHandler(ad),
		Cache: adminh.NewCacheHandler(ad),
		Debug: debugh.New(dbg),
	}
}
