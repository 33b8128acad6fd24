package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/pkg/cache"
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/repository/dao"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DishService struct {
	Dishes     *dao.DishDAO
	Categories *dao.CategoryDAO
	Cache      cache.Cache
	Events     Publisher
	Logger     *logging.Logger
}

func NewDishService(d *dao.DishDAO, c *dao.CategoryDAO, ch cache.Cache, ev Publisher, l *logging.Logger) *DishService {
	return &DishService{Dishes: d, Categories: c, Cache: ch, Events: ev, Logger: l}
}

type DishListResult struct {
	List       []dao.DishRow    `json:"list"`
	Pagination query.Pagination `json:"pagination"`
}

// ListDishes 管理端列表，默认不含已删除
func (s *DishService) ListDishes(ctx context.Context, p query.DishParams) (*DishListResult, error) {
	return s.list(ctx, query.NormalizeDish(p))
}

// ListAvailableDishes 与 ListDishes 同一套组合逻辑，状态固定为 active
func (s *DishService) ListAvailableDishes(ctx context.Context, p query.DishParams) (*DishListResult, error) {
	f := query.NormalizeDish(p)
	f.Status = model.DishActive
	f.IncludeDeleted = false
	return s.list(ctx, f)
}

func (s *DishService) list(ctx context.Context, f query.DishFilter) (*DishListResult, error) {
	rows, total, err := s.Dishes.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &DishListResult{List: rows, Pagination: f.Page.Meta(total)}, nil
}

// GetDishDetail 不存在返回 nil, nil
func (s *DishService) GetDishDetail(ctx context.Context, id string) (*dao.DishDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	return s.Dishes.Detail(ctx, id)
}

// SoftDeleteDish 幂等；返回本次是否有行被修改
func (s *DishService) SoftDeleteDish(ctx context.Context, id, actorID string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, nil
	}
	changed, err := s.Dishes.SoftDelete(ctx, id, actorID)
	if err != nil {
		return false, err
	}
	if changed {
		invalidate(ctx, s.Cache, keyTemplates)
		s.invalidateMenus(ctx, id)
		emit(ctx, s.Events, s.Logger, Event{Type: EventDishDeleted, EntityID: id, ActorID: actorID})
	}
	return changed, nil
}

// DishInput 新建 / 编辑菜品的请求体
type DishInput struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Price        decimal.Decimal     `json:"price"`
	CategoryID   string              `json:"categoryId"`
	MealTypes    []string            `json:"mealTypes"`
	Tags         []string            `json:"tags"`
	Calories     decimal.NullDecimal `json:"calories"`
	Protein      decimal.NullDecimal `json:"protein"`
	Fat          decimal.NullDecimal `json:"fat"`
	Carbohydrate decimal.NullDecimal `json:"carbohydrate"`
}

func (s *DishService) validate(ctx context.Context, in DishInput) (model.Dish, error) {
	var d model.Dish
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return d, invalidf("name is required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return d, invalidf("name longer than 100 characters")
	}
	if in.Price.IsNegative() {
		return d, invalidf("price must not be negative")
	}
	meals, err := model.NewMealTypes(in.MealTypes...)
	if err != nil {
		return d, invalidf("%v", err)
	}
	if len(meals) == 0 {
		return d, invalidf("at least one meal type is required")
	}
	for _, n := range []decimal.NullDecimal{in.Calories, in.Protein, in.Fat, in.Carbohydrate} {
		if n.Valid && n.Decimal.IsNegative() {
			return d, invalidf("nutrition values must not be negative")
		}
	}
	cat := strings.TrimSpace(in.CategoryID)
	if cat != "" {
		ok, err := s.Categories.Exists(ctx, cat)
		if err != nil {
			return d, err
		}
		if !ok {
			return d, invalidf("category %s does not exist", cat)
		}
	}
	tags := make(model.Tags, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return model.Dish{
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Price:        in.Price.Round(2),
		CategoryID:   cat,
		MealTypes:    meals,
		Tags:         tags,
		Calories:     in.Calories,
		Protein:      in.Protein,
		Fat:          in.Fat,
		Carbohydrate: in.Carbohydrate,
	}, nil
}

func (s *DishService) CreateDish(ctx context.Context, in DishInput, actorID string) (*model.Dish, error) {
	d, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	d.ID = id.String()
	d.Status = model.DishActive
	d.CreatedBy, d.UpdatedBy = actorID, actorID
	d.CreateTime, d.UpdateTime = now, now
	if err := s.Dishes.Create(ctx, &d); err != nil {
		return nil, err
	}
	emit(ctx, s.Events, s.Logger, Event{Type: EventDishCreated, EntityID: d.ID, ActorID: actorID, Payload: d})
	return &d, nil
}

func (s *DishService) UpdateDish(ctx context.Context, id string, in DishInput, actorID string) (*model.Dish, error) {
	cur, err := s.Dishes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	d, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	d.ID = cur.ID
	d.Status = cur.Status
	d.CreatedBy, d.CreateTime = cur.CreatedBy, cur.CreateTime
	d.UpdatedBy, d.UpdateTime = actorID, time.Now().UTC()
	ok, err := s.Dishes.Update(ctx, &d)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 读与写之间被删除
		return nil, ErrNotFound
	}
	invalidate(ctx, s.Cache, keyTemplates)
	s.invalidateMenus(ctx, d.ID)
	emit(ctx, s.Events, s.Logger, Event{Type: EventDishUpdated, EntityID: d.ID, ActorID: actorID, Payload: d})
	return &d, nil
}

// ChangeDishStatus 只允许 active / inactive；删除走 SoftDeleteDish。返回规范化后的状态
func (s *DishService) ChangeDishStatus(ctx context.Context, id, status, actorID string) (model.DishStatus, error) {
	st, ok := model.ParseDishStatus(status)
	if !ok || st == model.DishDeleted {
		return "", invalidf("status must be active or inactive")
	}
	changed, err := s.Dishes.SetStatus(ctx, id, st, actorID)
	if err != nil {
		return "", err
	}
	if !changed {
		return "", ErrNotFound
	}
	emit(ctx, s.Events, s.Logger, Event{Type: EventDishStatusChanged, EntityID: id, ActorID: actorID, Payload: map[string]string{"status": string(st)}})
	return st, nil
}

// invalidateMenus 菜单明细展示的菜品名 / 分类随菜品变化，清掉引用它的菜单缓存；
// 查询失败只记日志，缓存最多 ttlMenu 后自然过期
func (s *DishService) invalidateMenus(ctx context.Context, dishID string) {
	if s.Cache == nil {
		return
	}
	slots, err := s.Dishes.MenuSlots(ctx, dishID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithContext(ctx).Warn("menu_cache_invalidate_failed", zap.String("dish_id", dishID), zap.Error(err))
		}
		return
	}
	keys := make([]string, 0, len(slots))
	for _, sl := range slots {
		keys = append(keys, menuKey(query.FormatDate(sl.PublishDate), string(sl.MealType)))
	}
	for len(keys) > 0 {
		n := min(len(keys), invalidateBatch)
		invalidate(ctx, s.Cache, keys[:n]...)
		keys = keys[n:]
	}
}

// ListCategories 分类变化极少，走缓存
func (s *DishService) ListCategories(ctx context.Context) ([]model.DishCategory, error) {
	return cached(ctx, s.Cache, "categories", keyCategories, ttlCategories, func() ([]model.DishCategory, bool, error) {
		list, err := s.Categories.List(ctx)
		return list, err == nil, err
	})
}
