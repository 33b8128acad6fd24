package admin

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go-canteenadmin/internal/repository/database"
	"go-canteenadmin/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: name is required", service.ErrInvalidInput), http.StatusBadRequest},
		{service.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("save: %w", service.ErrMenuConflict), http.StatusConflict},
		{service.ErrMenuNotEditable, http.StatusConflict},
		{service.ErrInvalidTransition, http.StatusConflict},
		{fmt.Errorf("%w: d-1", service.ErrDishUnavailable), http.StatusConflict},
		{fmt.Errorf("list dishes: %w", fmt.Errorf("%w: context deadline exceeded", database.ErrTimeout)), http.StatusServiceUnavailable},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got, msg := statusOf(tc.err)
		assert.Equal(t, tc.want, got, tc.err.Error())
		if got == http.StatusInternalServerError {
			assert.NotContains(t, msg, "connection refused")
		}
	}
}
