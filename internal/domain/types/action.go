package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionExternalServiceFailed     = "external_service_failed"

	ActionRunAssignment   = "run_assignment"
	ActionStartShift      = "start_shift"
	ActionEndShift        = "end_shift"
	ActionForceEndShift   = "force_end_shift"
	ActionTransitionOrder = "transition_order"
	ActionReportLocation  = "report_location"

	ActionPublishRouteAssigned = "publish_route_assigned"
	ActionPublishOrderStatus   = "publish_order_status"
	ActionPublishShiftEvent    = "publish_shift_event"
	ActionPublishLocation      = "publish_location"
)
