package types

// Enum for order delivery status
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderEnRoute   OrderStatus = "EN_ROUTE"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Enum for shift status
type ShiftStatus string

const (
	ShiftActive ShiftStatus = "ACTIVE"
	ShiftEnded  ShiftStatus = "ENDED"
)

// Enum for cancellation reasons. CancelShiftForceEnded is reserved for the
// administrative force-end path and cannot be supplied by a driver.
type CancelReason string

const (
	CancelRecipientUnavailable CancelReason = "RECIPIENT_UNAVAILABLE"
	CancelRecipientRefused     CancelReason = "RECIPIENT_REFUSED"
	CancelAddressIncorrect     CancelReason = "ADDRESS_INCORRECT"
	CancelPackageDamaged       CancelReason = "PACKAGE_DAMAGED"
	CancelShiftForceEnded      CancelReason = "SHIFT_FORCE_ENDED"
)

func (r CancelReason) String() string {
	return string(r)
}

// ValidDriverReason reports whether the reason is one a driver may supply.
func (r CancelReason) ValidDriverReason() bool {
	switch r {
	case CancelRecipientUnavailable, CancelRecipientRefused,
		CancelAddressIncorrect, CancelPackageDamaged:
		return true
	default:
		return false
	}
}

// Enum for user roles
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RoleDriver     UserRole = "DRIVER"
	RoleDispatcher UserRole = "DISPATCHER"
)
