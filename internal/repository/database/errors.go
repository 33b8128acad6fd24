package database

import (
	"errors"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrTimeout 取连接或执行超过了有界等待时间
var ErrTimeout = errors.New("persistence: operation timed out")

const (
	mysqlDuplicateEntry = 1062
	mysqlDeadlock       = 1213
	pgUniqueViolation   = "23505"
	pgSerialization     = "40001"
	pgDeadlock          = "40P01"
)

// IsDuplicateKey 唯一约束冲突；与普通持久化错误区分，便于上层给出可操作的提示
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return true
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsTxConflict 死锁或串行化失败，事务已被数据库回滚，整体重试是安全的
func IsTxConflict(err error) bool {
	if err == nil {
		return false
	}
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDeadlock
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == pgSerialization || pe.Code == pgDeadlock
	}
	return false
}

// IsNotFound gorm First/Take 的未命中
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
