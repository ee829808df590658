package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aibekzh/fleet-dispatch/internal/adapter/http/handler"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"

	"github.com/stretchr/testify/assert"
)

func TestGetCode(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{types.ErrInvalidCoordinates, http.StatusBadRequest},
		{types.ErrInvalidCancelReason, http.StatusBadRequest},
		{types.ErrShiftNotFound, http.StatusNotFound},
		{types.ErrOrderNotFound, http.StatusNotFound},
		{types.ErrDriverNotFound, http.StatusNotFound},
		{types.ErrRouteNotFound, http.StatusNotFound},
		{types.ErrOrderNotInShift, http.StatusNotFound},
		{types.ErrShiftAlreadyActive, http.StatusConflict},
		{types.ErrInvalidTransition, http.StatusConflict},
		{types.ErrNoPendingOrders, http.StatusConflict},
		{types.ErrNoAvailableVehicles, http.StatusConflict},
		{&types.ShiftIncompleteError{OrderIDs: []string{"a"}}, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, handler.GetCode(tc.err), "error %v", tc.err)
	}
}

func TestGetCodeUnwrapsWrappedErrors(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), types.ErrShiftAlreadyActive)
	assert.Equal(t, http.StatusConflict, handler.GetCode(wrapped))
}
