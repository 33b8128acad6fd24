package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dish 对应 dishes 表
type Dish struct {
	ID           string              `gorm:"primaryKey;column:_id;size:36" json:"id"`
	Name         string              `gorm:"column:name;size:100;not null" json:"name"`
	Description  string              `gorm:"column:description;size:1000" json:"description"`
	Price        decimal.Decimal     `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	CategoryID   string              `gorm:"column:category_id;size:36;index" json:"categoryId"`
	MealTypes    MealTypes           `gorm:"column:meal_types;type:json" json:"mealTypes"`
	Tags         Tags                `gorm:"column:tags;type:json" json:"tags"`
	Status       DishStatus          `gorm:"column:status;size:16;index;not null" json:"status"`
	Calories     decimal.NullDecimal `gorm:"column:calories;type:decimal(10,2)" json:"calories"`
	Protein      decimal.NullDecimal `gorm:"column:protein;type:decimal(10,2)" json:"protein"`
	Fat          decimal.NullDecimal `gorm:"column:fat;type:decimal(10,2)" json:"fat"`
	Carbohydrate decimal.NullDecimal `gorm:"column:carbohydrate;type:decimal(10,2)" json:"carbohydrate"`
	CreatedBy    string              `gorm:"column:created_by;size:36" json:"createdBy"`
	UpdatedBy    string              `gorm:"column:updated_by;size:36" json:"updatedBy"`
	CreateTime   time.Time           `gorm:"column:create_time" json:"createTime"`
	UpdateTime   time.Time           `gorm:"column:update_time" json:"updateTime"`
}

func (Dish) TableName() string { return "dishes" }

// DishCategory 对应 dish_categories 表
type DishCategory struct {
	ID     string       `gorm:"primaryKey;column:_id;size:36" json:"id"`
	Name   string       `gorm:"column:name;size:50;not null" json:"name"`
	Sort   int          `gorm:"column:sort" json:"sort"`
	Status RecordStatus `gorm:"column:status;size:16;not null;default:active" json:"status"`
}

func (DishCategory) TableName() string { return "dish_categories" }
