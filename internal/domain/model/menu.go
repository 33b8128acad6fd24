package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Menu 某一天某一餐的菜单；(publish_date, meal_type) 在未删除记录中唯一，
// 由 uniq_menu_slot 在库里兜底：未删除时 slot_active = 1，删除后置 NULL，NULL 不参与唯一比较
type Menu struct {
	ID            string        `gorm:"primaryKey;column:_id;size:36" json:"id"`
	Name          string        `gorm:"column:name;size:100" json:"name"`
	Description   string        `gorm:"column:description;size:500" json:"description"`
	PublishDate   time.Time     `gorm:"column:publish_date;type:date;uniqueIndex:uniq_menu_slot,priority:1" json:"publishDate"`
	MealType      MealType      `gorm:"column:meal_type;size:16;uniqueIndex:uniq_menu_slot,priority:2" json:"mealType"`
	PublishStatus PublishStatus `gorm:"column:publish_status;size:16;not null" json:"publishStatus"`
	Status        RecordStatus  `gorm:"column:status;size:16;not null;default:active" json:"-"`
	SlotActive    *int8         `gorm:"column:slot_active;uniqueIndex:uniq_menu_slot,priority:3" json:"-"`
	CreatedBy     string        `gorm:"column:created_by;size:36" json:"createdBy"`
	CreateTime    time.Time     `gorm:"column:create_time" json:"createTime"`
	UpdateTime    time.Time     `gorm:"column:update_time" json:"updateTime"`
}

func (Menu) TableName() string { return "menus" }

// ActiveSlot 新建未删除菜单时 slot_active 的取值
func ActiveSlot() *int8 {
	one := int8(1)
	return &one
}

// MenuDish 菜单明细；price 是保存时的快照，与菜品实时价格无关
type MenuDish struct {
	MenuID string          `gorm:"primaryKey;column:menu_id;size:36" json:"menuId"`
	DishID string          `gorm:"primaryKey;column:dish_id;size:36" json:"dishId"`
	Price  decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	Sort   int             `gorm:"column:sort" json:"sort"`
	Status RecordStatus    `gorm:"column:status;size:16;not null;default:active" json:"-"`
}

func (MenuDish) TableName() string { return "menu_dishes" }

// MenuTemplate 可复用的菜品组合，只读
type MenuTemplate struct {
	ID       string       `gorm:"primaryKey;column:_id;size:36" json:"id"`
	Name     string       `gorm:"column:name;size:100" json:"name"`
	MealType MealType     `gorm:"column:meal_type;size:16" json:"mealType"`
	DishIDs  StringList   `gorm:"column:dish_ids;type:json" json:"dishIds"`
	Sort     int          `gorm:"column:sort" json:"sort"`
	Status   RecordStatus `gorm:"column:status;size:16;not null;default:active" json:"-"`
}

func (MenuTemplate) TableName() string { return "menu_templates" }
