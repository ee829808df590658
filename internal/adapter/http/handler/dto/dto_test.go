package dto_test

import (
	"testing"

	"github.com/aibekzh/fleet-dispatch/internal/adapter/http/handler/dto"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"
	"github.com/aibekzh/fleet-dispatch/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func reasonPtr(r types.CancelReason) *types.CancelReason { return &r }

func TestCreateOrderRequestValidate(t *testing.T) {
	cases := []struct {
		name  string
		req   dto.CreateOrderRequest
		valid bool
	}{
		{"address only", dto.CreateOrderRequest{Address: "Mangilik El 55"}, true},
		{"address with coordinates", dto.CreateOrderRequest{Address: "Mangilik El 55", Latitude: f64(51.1), Longitude: f64(71.4)}, true},
		{"missing address", dto.CreateOrderRequest{}, false},
		{"latitude without longitude", dto.CreateOrderRequest{Address: "x", Latitude: f64(51.1)}, false},
		{"longitude without latitude", dto.CreateOrderRequest{Address: "x", Longitude: f64(71.4)}, false},
		{"latitude out of range", dto.CreateOrderRequest{Address: "x", Latitude: f64(91), Longitude: f64(0)}, false},
		{"longitude out of range", dto.CreateOrderRequest{Address: "x", Latitude: f64(0), Longitude: f64(-181)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := validator.New()
			tc.req.Validate(v)
			assert.Equal(t, tc.valid, v.Valid(), "errors: %v", v.Errors)
		})
	}
}

func TestCreateOrderRequestGeo(t *testing.T) {
	withCoords := dto.CreateOrderRequest{Address: "x", Latitude: f64(51.1), Longitude: f64(71.4)}
	geo := withCoords.Geo()
	require.NotNil(t, geo)
	assert.Equal(t, 51.1, geo.Lat)
	assert.Equal(t, 71.4, geo.Lng)

	addressOnly := dto.CreateOrderRequest{Address: "x"}
	assert.Nil(t, addressOnly.Geo())
}

func TestStartShiftRequestValidate(t *testing.T) {
	v := validator.New()
	(&dto.StartShiftRequest{VehicleID: uuid.MustNew()}).Validate(v)
	assert.True(t, v.Valid())

	v = validator.New()
	(&dto.StartShiftRequest{}).Validate(v)
	assert.False(t, v.Valid())
	assert.Contains(t, v.Errors, "vehicle_id")
}

func TestTransitionOrderRequestValidate(t *testing.T) {
	cases := []struct {
		name  string
		req   dto.TransitionOrderRequest
		valid bool
	}{
		{"en route", dto.TransitionOrderRequest{Status: types.OrderEnRoute}, true},
		{"delivered", dto.TransitionOrderRequest{Status: types.OrderDelivered}, true},
		{"cancelled with reason", dto.TransitionOrderRequest{Status: types.OrderCancelled, Reason: reasonPtr(types.CancelPackageDamaged)}, true},
		{"cancelled without reason", dto.TransitionOrderRequest{Status: types.OrderCancelled}, false},
		{"cancelled with reserved reason", dto.TransitionOrderRequest{Status: types.OrderCancelled, Reason: reasonPtr(types.CancelShiftForceEnded)}, false},
		{"reason on delivery", dto.TransitionOrderRequest{Status: types.OrderDelivered, Reason: reasonPtr(types.CancelPackageDamaged)}, false},
		{"pending not allowed", dto.TransitionOrderRequest{Status: types.OrderPending}, false},
		{"unknown status", dto.TransitionOrderRequest{Status: "TELEPORTED"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := validator.New()
			tc.req.Validate(v)
			assert.Equal(t, tc.valid, v.Valid(), "errors: %v", v.Errors)
		})
	}
}
