package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoPendingOrders     = errors.New("no pending orders to assign")
	ErrNoAvailableVehicles = errors.New("no available vehicles")
	ErrNoCapacity          = errors.New("no vehicle capacity for pending orders")

	ErrShiftAlreadyActive  = errors.New("driver already has an active shift")
	ErrShiftNotFound       = errors.New("active shift not found")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrInvalidCancelReason = errors.New("invalid cancellation reason")
	ErrOrderNotInShift     = errors.New("order does not belong to the active shift route")

	ErrOrderNotFound   = errors.New("order not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrDriverNotFound  = errors.New("driver not found")
	ErrRouteNotFound   = errors.New("no route assigned to vehicle")

	ErrInvalidCoordinates = errors.New("coordinates out of range")
)

// ShiftIncompleteError is returned when a shift is asked to end while some of
// its stops are not yet Delivered or Cancelled. It carries the blocking order
// ids so the caller can report them.
type ShiftIncompleteError struct {
	OrderIDs []string
}

func (e *ShiftIncompleteError) Error() string {
	return fmt.Sprintf("shift has unresolved orders: %s", strings.Join(e.OrderIDs, ", "))
}

// PersistenceError marks a failed write for a single entity. Assignment keeps
// going past these and reports them per vehicle.
type PersistenceError struct {
	Entity string
	ID     string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s %s: %v", e.Entity, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
