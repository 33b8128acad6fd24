package query

import (
	"strings"

	"go-canteenadmin/internal/domain/model"
)

// Dialect 决定少数无法跨库统一的谓词写法（JSON 成员判断、大小写无关匹配）
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DialectOf 由 gorm Dialector.Name() 得到；未知值按 MySQL 处理
func DialectOf(name string) Dialect {
	switch strings.ToLower(name) {
	case "postgres", "pgx":
		return Postgres
	case "sqlite", "sqlite3":
		return SQLite
	}
	return MySQL
}

// JSONContains 渲染 "column 的 JSON 数组包含某个字符串" 谓词，占位符恰好一个。
// 必须是真正的数组成员判断，不能用 LIKE：'["lunch","dinner"]' LIKE '%din%' 会误中。
func (d Dialect) JSONContains(column string) string {
	switch d {
	case Postgres:
		return "CAST(" + column + " AS jsonb) @> jsonb_build_array(CAST(? AS text))"
	case SQLite:
		return "EXISTS (SELECT 1 FROM json_each(" + column + ") je WHERE je.value = ?)"
	}
	return "JSON_CONTAINS(" + column + ", JSON_QUOTE(?))"
}

// ContainsFold 大小写无关子串匹配，参数需用 LikeArg 生成
func (d Dialect) ContainsFold(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '!'"
}

// MealOrder 餐别排序表达式 breakfast < lunch < dinner
func (d Dialect) MealOrder(column string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for _, m := range model.AllMealTypes {
		b.WriteString(" WHEN '")
		b.WriteString(string(m))
		b.WriteString("' THEN ")
		b.WriteByte(byte('0' + m.Order()))
	}
	b.WriteString(" ELSE 9 END")
	return b.String()
}

// LikeArg 转义通配符后包成 %kw%，统一转小写配合 ContainsFold。
// 转义符用 '!'：反斜杠在 MySQL / PostgreSQL 字面量里的含义不一致
func LikeArg(kw string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return "%" + r.Replace(strings.ToLower(kw)) + "%"
}
