package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/pkg/cache"
	"go-canteenadmin/internal/repository/dao"
	"go-canteenadmin/internal/repository/database"
	"go-canteenadmin/internal/service"
	"go-canteenadmin/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []service.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, value []byte) error {
	var e service.Event
	if err := json.Unmarshal(value, &e); err != nil {
		return err
	}
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	gw     *database.Gateway
	dishes *service.DishService
	menus  *service.MenuService
	admin  *service.AdminService
	events *recordingPublisher
	cache  cache.Cache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gw := testutil.NewGateway(t)
	c := cache.NewSimpleAdapter(cache.New(time.Minute))
	ev := &recordingPublisher{}
	l := logging.Nop()
	dishDAO := dao.NewDishDAO(gw)
	return &fixture{
		gw:     gw,
		dishes: service.NewDishService(dishDAO, dao.NewCategoryDAO(gw), c, ev, l),
		menus:  service.NewMenuService(gw, dao.NewMenuDAO(gw), dishDAO, dao.NewMenuTemplateDAO(gw), c, ev, l),
		admin:  service.NewAdminService(dao.NewUserDAO(gw), dao.NewDepartmentDAO(gw), dao.NewOperationLogDAO(gw)),
		events: ev,
		cache:  c,
	}
}
