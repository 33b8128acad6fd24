package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Builder 逐条追加谓词，每个片段与它的绑定参数在同一次调用里追加，
// 保证 SQL 文本与参数顺序永远一致；值只走参数，不拼进 SQL。
type Builder struct {
	dialect Dialect
	exprs   []string
	args    []interface{}
	err     error
}

func NewBuilder(d Dialect) *Builder { return &Builder{dialect: d} }

func (b *Builder) Dialect() Dialect { return b.dialect }

// Where 追加一个谓词片段；占位符数量与参数数量不一致时记录错误，后续 Apply 会让查询失败
func (b *Builder) Where(expr string, args ...interface{}) *Builder {
	if n := strings.Count(expr, "?"); n != len(args) {
		if b.err == nil {
			b.err = fmt.Errorf("query: predicate %q has %d placeholders but %d args", expr, n, len(args))
		}
		return b
	}
	b.exprs = append(b.exprs, "("+expr+")")
	b.args = append(b.args, args...)
	return b
}

// Never 追加恒假谓词（非法枚举值等场景：结果为空而不是报错）
func (b *Builder) Never() *Builder { return b.Where("1 = 0") }

func (b *Builder) Empty() bool { return len(b.exprs) == 0 }

func (b *Builder) Err() error { return b.err }

// SQL 以 AND 连接全部片段；为空时返回空串
func (b *Builder) SQL() string { return strings.Join(b.exprs, " AND ") }

// Args 返回参数副本
func (b *Builder) Args() []interface{} {
	out := make([]interface{}, len(b.args))
	copy(out, b.args)
	return out
}

// Apply 把谓词挂到 gorm 链上；count 与 data 查询调用同一个 Builder 的 Apply，谓词完全一致
func (b *Builder) Apply(db *gorm.DB) *gorm.DB {
	if b.err != nil {
		_ = db.AddError(b.err)
		return db
	}
	if b.Empty() {
		return db
	}
	return db.Where(b.SQL(), b.Args()...)
}
