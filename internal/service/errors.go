package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput 写入参数不合法，包装后带上具体字段
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound 写操作的目标不存在；读操作用 nil 结果表示不存在
	ErrNotFound = errors.New("not found")

	ErrMenuConflict      = errors.New("another menu already owns this date and meal")
	ErrMenuNotEditable   = errors.New("menu is no longer a draft")
	ErrInvalidTransition = errors.New("publish status transition not allowed")
	ErrDishUnavailable   = errors.New("dish does not exist or has been deleted")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
