package model

// OperationLog 管理端操作日志，由 oplog consumer 从 Kafka 落库
type OperationLog struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ActionName string `gorm:"column:action_name;size:100" json:"actionName"`
	UserID     string `gorm:"column:user_id;size:36;index" json:"userId"`
	Path       string `gorm:"column:path;size:200" json:"path"`
	Method     string `gorm:"column:method;size:10" json:"method"`
	Status     int    `gorm:"column:status" json:"status"`
	LatencyMs  int64  `gorm:"column:latency_ms" json:"latencyMs"`
	IP         string `gorm:"column:ip;size:64" json:"ip"`
	Body       string `gorm:"column:body;size:2000" json:"body"`
	CreateTime int64  `gorm:"column:create_time;index" json:"createTime"`
}

func (OperationLog) TableName() string { return "operation_logs" }

// All 返回需要迁移的全部模型，migrate 命令与测试共用
func All() []interface{} {
	return []interface{}{
		&Dish{}, &DishCategory{}, &Menu{}, &MenuDish{}, &MenuTemplate{},
		&User{}, &Department{}, &OperationLog{},
	}
}
