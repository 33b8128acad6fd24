package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-canteenadmin/internal/domain/model"
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/metrics"
	"go-canteenadmin/internal/pkg/cache"
	"go-canteenadmin/internal/query"
	"go-canteenadmin/internal/repository/dao"
	"go-canteenadmin/internal/repository/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MenuService struct {
	Gateway   *database.Gateway
	Menus     *dao.MenuDAO
	Dishes    *dao.DishDAO
	Templates *dao.MenuTemplateDAO
	Cache     cache.Cache
	Events    Publisher
	Logger    *logging.Logger
}

func NewMenuService(gw *database.Gateway, m *dao.MenuDAO, d *dao.DishDAO, t *dao.MenuTemplateDAO, ch cache.Cache, ev Publisher, l *logging.Logger) *MenuService {
	return &MenuService{Gateway: gw, Menus: m, Dishes: d, Templates: t, Cache: ch, Events: ev, Logger: l}
}

// MenuView 单个菜单 + 有序明细；publishDate 固定 YYYY-MM-DD
type MenuView struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	PublishDate   string              `json:"publishDate"`
	MealType      model.MealType      `json:"mealType"`
	MealTypeLabel string              `json:"mealTypeLabel"`
	PublishStatus model.PublishStatus `json:"publishStatus"`
	CreatedBy     string              `json:"createdBy"`
	CreateTime    time.Time           `json:"createTime"`
	UpdateTime    time.Time           `json:"updateTime"`
	Dishes        []dao.MenuLine      `json:"dishes"`
}

func newMenuView(m model.Menu, lines []dao.MenuLine) *MenuView {
	if lines == nil {
		lines = []dao.MenuLine{}
	}
	return &MenuView{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		PublishDate:   query.FormatDate(m.PublishDate),
		MealType:      m.MealType,
		MealTypeLabel: m.MealType.Label(),
		PublishStatus: m.PublishStatus,
		CreatedBy:     m.CreatedBy,
		CreateTime:    m.CreateTime,
		UpdateTime:    m.UpdateTime,
		Dishes:        lines,
	}
}

// GetMenuByDate 不区分发布状态；日期或餐别非法、槽位为空都返回 nil, nil
func (s *MenuService) GetMenuByDate(ctx context.Context, date, mealType string) (*MenuView, error) {
	day, ok := query.ParseDate(date)
	if !ok {
		return nil, nil
	}
	meal, ok := model.ParseMealType(mealType)
	if !ok {
		return nil, nil
	}
	return cached(ctx, s.Cache, "menu_by_date", menuKey(query.FormatDate(day), string(meal)), ttlMenu, func() (*MenuView, bool, error) {
		m, err := s.Menus.FindBySlot(ctx, day, meal)
		if err != nil || m == nil {
			return nil, false, err
		}
		v, err := s.view(ctx, *m)
		return v, err == nil, err
	})
}

func (s *MenuService) view(ctx context.Context, m model.Menu) (*MenuView, error) {
	lines, err := s.Menus.Lines(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return newMenuView(m, lines), nil
}

// MenuDraftInput 保存草稿的请求体；id 为空时按 (publishDate, mealType) 定位
type MenuDraftInput struct {
	ID          string          `json:"id"`
	PublishDate string          `json:"publishDate"`
	MealType    string          `json:"mealType"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Dishes      []MenuLineInput `json:"dishes"`
}

// MenuLineInput price 缺省时取菜品当前价格作为快照
type MenuLineInput struct {
	DishID string              `json:"dishId"`
	Price  decimal.NullDecimal `json:"price"`
	Sort   *int                `json:"sort"`
}

type draft struct {
	id          string
	date        time.Time
	meal        model.MealType
	name        string
	description string
	lines       []MenuLineInput
}

func parseDraft(in MenuDraftInput) (draft, error) {
	d := draft{id: strings.TrimSpace(in.ID), description: strings.TrimSpace(in.Description)}
	var ok bool
	if d.date, ok = query.ParseDate(in.PublishDate); !ok {
		return d, invalidf("publishDate must be YYYY-MM-DD")
	}
	if d.meal, ok = model.ParseMealType(in.MealType); !ok {
		return d, invalidf("mealType must be one of breakfast, lunch, dinner")
	}
	d.name = strings.TrimSpace(in.Name)
	if d.name == "" {
		d.name = query.FormatDate(d.date) + " " + d.meal.Label()
	}
	// 重复 dishId 保留第一次出现
	seen := make(map[string]struct{}, len(in.Dishes))
	for _, l := range in.Dishes {
		l.DishID = strings.TrimSpace(l.DishID)
		if l.DishID == "" {
			return d, invalidf("dishId is required for every line")
		}
		if l.Price.Valid && l.Price.Decimal.IsNegative() {
			return d, invalidf("price of dish %s must not be negative", l.DishID)
		}
		if _, dup := seen[l.DishID]; dup {
			continue
		}
		seen[l.DishID] = struct{}{}
		d.lines = append(d.lines, l)
	}
	return d, nil
}

// SaveMenuDraft 以 (日期, 餐别) 为键的事务性 upsert。
// 槽位先加锁再判断归属；明细整体替换；任一步失败整体回滚。
func (s *MenuService) SaveMenuDraft(ctx context.Context, in MenuDraftInput, actorID string) (*MenuView, error) {
	d, err := parseDraft(in)
	if err != nil {
		metrics.MenuSaveTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	var menuID string
	err = retrySlotContention(ctx, maxSaveAttempts, func() error {
		return s.Gateway.Transaction(ctx, "menu.save_draft", func(tx *gorm.DB) error {
			id, err := s.saveDraftTx(ctx, tx, d, actorID)
			menuID = id
			return err
		})
	})
	if err != nil {
		metrics.MenuSaveTotal.WithLabelValues(saveResult(err)).Inc()
		return nil, err
	}
	metrics.MenuSaveTotal.WithLabelValues("ok").Inc()
	invalidate(ctx, s.Cache, menuKey(query.FormatDate(d.date), string(d.meal)))

	m, err := s.Menus.Get(ctx, menuID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	v, err := s.view(ctx, *m)
	if err != nil {
		return nil, err
	}
	emit(ctx, s.Events, s.Logger, Event{Type: EventMenuSaved, EntityID: m.ID, ActorID: actorID, Payload: v})
	return v, nil
}

func (s *MenuService) saveDraftTx(ctx context.Context, tx *gorm.DB, d draft, actorID string) (string, error) {
	menus := s.Menus.WithTx(tx)
	slot, err := menus.LockSlot(ctx, d.date, d.meal)
	if err != nil {
		return "", err
	}
	var target *model.Menu
	if d.id != "" {
		for i := range slot {
			if slot[i].ID != d.id {
				return "", ErrMenuConflict
			}
		}
		cur, err := menus.GetForUpdate(ctx, d.id)
		if err != nil {
			return "", err
		}
		if cur == nil || cur.Status != model.RecordActive {
			return "", ErrNotFound
		}
		if !cur.PublishDate.Equal(d.date) || cur.MealType != d.meal {
			return "", invalidf("publishDate and mealType of an existing menu cannot change")
		}
		target = cur
	} else if len(slot) > 0 {
		target = &slot[0]
	}
	if target != nil && target.PublishStatus != model.PublishDraft {
		return "", ErrMenuNotEditable
	}

	now := time.Now().UTC()
	if target == nil {
		id, err := uuid.NewV7()
		if err != nil {
			return "", err
		}
		target = &model.Menu{
			ID:            id.String(),
			PublishDate:   d.date,
			MealType:      d.meal,
			PublishStatus: model.PublishDraft,
			Status:        model.RecordActive,
			SlotActive:    model.ActiveSlot(),
			CreatedBy:     actorID,
			CreateTime:    now,
		}
		target.Name, target.Description, target.UpdateTime = d.name, d.description, now
		if err := menus.Create(ctx, target); err != nil {
			return "", err
		}
	} else {
		target.Name, target.Description, target.UpdateTime = d.name, d.description, now
		if err := menus.UpdateHeader(ctx, target); err != nil {
			return "", err
		}
	}

	lines, err := s.buildLines(ctx, s.Dishes.WithTx(tx), target.ID, d.lines)
	if err != nil {
		return "", err
	}
	if err := menus.ReplaceLines(ctx, target.ID, lines); err != nil {
		return "", err
	}
	return target.ID, nil
}

func (s *MenuService) buildLines(ctx context.Context, dishes *dao.DishDAO, menuID string, in []MenuLineInput) ([]model.MenuDish, error) {
	ids := make([]string, 0, len(in))
	for _, l := range in {
		ids = append(ids, l.DishID)
	}
	found, err := dishes.FindUsable(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.MenuDish, 0, len(in))
	for i, l := range in {
		dish, ok := found[l.DishID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDishUnavailable, l.DishID)
		}
		price := dish.Price
		if l.Price.Valid {
			price = l.Price.Decimal
		}
		sort := i + 1
		if l.Sort != nil {
			sort = *l.Sort
		}
		out = append(out, model.MenuDish{
			MenuID: menuID,
			DishID: l.DishID,
			Price:  price.Round(2),
			Sort:   sort,
			Status: model.RecordActive,
		})
	}
	return out, nil
}

// maxSaveAttempts 同一槽位并发首存的整体重试次数
const maxSaveAttempts = 3

// retrySlotContention 后到的事务撞上 uniq_menu_slot 或死锁时整体重试；
// 重试时能看到先到者已提交的菜单，转为对它的更新。次数用完报 ErrMenuConflict
func retrySlotContention(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !slotContended(err) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("%w: %v", ErrMenuConflict, err)
}

func slotContended(err error) bool {
	return database.IsDuplicateKey(err) || database.IsTxConflict(err)
}

func saveResult(err error) string {
	switch {
	case errors.Is(err, ErrMenuConflict):
		return "conflict"
	case errors.Is(err, ErrMenuNotEditable):
		return "not_editable"
	case errors.Is(err, ErrDishUnavailable), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound):
		return "invalid"
	}
	return "error"
}

// MenuSummary 历史列表项
type MenuSummary struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	PublishDate   string              `json:"publishDate"`
	MealType      model.MealType      `json:"mealType"`
	MealTypeLabel string              `json:"mealTypeLabel"`
	PublishStatus model.PublishStatus `json:"publishStatus"`
	DishCount     int64               `json:"dishCount"`
	CreatorName   string              `json:"creatorName"`
	UpdateTime    time.Time           `json:"updateTime"`
}

type MenuHistoryResult struct {
	List       []MenuSummary    `json:"list"`
	Pagination query.Pagination `json:"pagination"`
}

// GetMenuHistory 所有过滤条件可选，空过滤即全部历史
func (s *MenuService) GetMenuHistory(ctx context.Context, p query.MenuHistoryParams) (*MenuHistoryResult, error) {
	f := query.NormalizeMenuHistory(p)
	rows, total, err := s.Menus.History(ctx, f)
	if err != nil {
		return nil, err
	}
	list := make([]MenuSummary, 0, len(rows))
	for _, r := range rows {
		list = append(list, MenuSummary{
			ID:            r.ID,
			Name:          r.Name,
			PublishDate:   query.FormatDate(r.PublishDate),
			MealType:      r.MealType,
			MealTypeLabel: r.MealType.Label(),
			PublishStatus: r.PublishStatus,
			DishCount:     r.DishCount,
			CreatorName:   r.CreatorName,
			UpdateTime:    r.UpdateTime,
		})
	}
	return &MenuHistoryResult{List: list, Pagination: f.Page.Meta(total)}, nil
}

type TemplateDish struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type TemplateView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	MealType model.MealType `json:"mealType"`
	Sort     int            `json:"sort"`
	Dishes   []TemplateDish `json:"dishes"`
}

// GetMenuTemplates 只读；模板里已删除的菜品直接略过
func (s *MenuService) GetMenuTemplates(ctx context.Context) ([]TemplateView, error) {
	return cached(ctx, s.Cache, "menu_templates", keyTemplates, ttlTemplates, func() ([]TemplateView, bool, error) {
		tpls, err := s.Templates.List(ctx)
		if err != nil {
			return nil, false, err
		}
		var ids []string
		for _, t := range tpls {
			ids = append(ids, t.DishIDs...)
		}
		dishes, err := s.Dishes.FindUsable(ctx, ids)
		if err != nil {
			return nil, false, err
		}
		out := make([]TemplateView, 0, len(tpls))
		for _, t := range tpls {
			v := TemplateView{ID: t.ID, Name: t.Name, MealType: t.MealType, Sort: t.Sort, Dishes: []TemplateDish{}}
			for _, id := range t.DishIDs {
				if d, ok := dishes[id]; ok {
					v.Dishes = append(v.Dishes, TemplateDish{ID: d.ID, Name: d.Name, Price: d.Price})
				}
			}
			out = append(out, v)
		}
		return out, true, nil
	})
}

// PublishMenu draft -> published；空菜单不允许发布
func (s *MenuService) PublishMenu(ctx context.Context, id, actorID string) error {
	return s.transit(ctx, id, actorID, model.PublishPublished, EventMenuPublished)
}

// ArchiveMenu published -> archived
func (s *MenuService) ArchiveMenu(ctx context.Context, id, actorID string) error {
	return s.transit(ctx, id, actorID, model.PublishArchived, EventMenuArchived)
}

func (s *MenuService) transit(ctx context.Context, id, actorID string, to model.PublishStatus, event string) error {
	m, err := s.Menus.Get(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotFound
	}
	if !m.PublishStatus.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.PublishStatus, to)
	}
	if to == model.PublishPublished {
		lines, err := s.Menus.Lines(ctx, id)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return invalidf("menu has no dishes")
		}
	}
	ok, err := s.Menus.TransitPublish(ctx, id, m.PublishStatus, to)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: menu changed concurrently", ErrInvalidTransition)
	}
	invalidate(ctx, s.Cache, menuKey(query.FormatDate(m.PublishDate), string(m.MealType)))
	emit(ctx, s.Events, s.Logger, Event{Type: event, EntityID: id, ActorID: actorID})
	if s.Logger != nil {
		s.Logger.WithContext(ctx).Info("menu_status_changed", zap.String("menu_id", id), zap.String("to", string(to)))
	}
	return nil
}

// DeleteMenu 软删除菜单及明细；幂等
func (s *MenuService) DeleteMenu(ctx context.Context, id, actorID string) (bool, error) {
	m, err := s.Menus.Get(ctx, id)
	if err != nil || m == nil {
		return false, err
	}
	changed, err := s.Menus.SoftDelete(ctx, id)
	if err != nil {
		return false, err
	}
	if changed {
		invalidate(ctx, s.Cache, menuKey(query.FormatDate(m.PublishDate), string(m.MealType)))
		emit(ctx, s.Events, s.Logger, Event{Type: EventMenuDeleted, EntityID: id, ActorID: actorID})
	}
	return changed, nil
}
