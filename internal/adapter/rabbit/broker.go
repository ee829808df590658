package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aibekzh/fleet-dispatch/internal/domain/models"
	"github.com/aibekzh/fleet-dispatch/internal/domain/types"
	"github.com/aibekzh/fleet-dispatch/pkg/logger"
	wrap "github.com/aibekzh/fleet-dispatch/pkg/logger/wrapper"
	"github.com/aibekzh/fleet-dispatch/pkg/metrics"
	"github.com/aibekzh/fleet-dispatch/pkg/rabbit"
)

const (
	ExchangeDispatchTopic  = "dispatch_topic"
	ExchangeLocationFanout = "location_fanout"
)

// DispatchBroker publishes dispatch lifecycle events. Route assignments,
// order transitions and shift events go to the dispatch topic exchange;
// location updates go to a fanout exchange for dashboard-style consumers
// outside this process.
type DispatchBroker struct {
	client        *rabbit.RabbitMQ
	exchangeTypes map[string]string

	serviceName string
	l           logger.Logger
}

func NewDispatchBroker(client *rabbit.RabbitMQ, serviceName string, l logger.Logger) *DispatchBroker {
	return &DispatchBroker{
		client: client,
		exchangeTypes: map[string]string{
			ExchangeDispatchTopic:  "topic",
			ExchangeLocationFanout: "fanout",
		},
		serviceName: serviceName,
		l:           l,
	}
}

// Setup declares the exchanges this broker publishes to. Safe to call on
// every startup, declarations are idempotent.
func (r *DispatchBroker) Setup(ctx context.Context) error {
	const op = "DispatchBroker.Setup"

	for exchange, kind := range r.exchangeTypes {
		if err := r.client.Channel.ExchangeDeclare(exchange, kind, true, false, false, false, nil); err != nil {
			return wrap.Error(ctx, fmt.Errorf("%s: declare exchange %q failed: %w", op, exchange, err))
		}
	}

	return nil
}

func (r *DispatchBroker) publish(ctx context.Context, exchange, routingKey string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		Timestamp:     time.Now(),
		CorrelationId: wrap.GetRequestID(ctx),
	}

	err = retry(5, time.Second*2,
		func() error {
			return r.client.Channel.PublishWithContext(
				ctx,
				exchange,
				routingKey,
				false,
				false,
				pub,
			)
		})
	metrics.RecordRabbitMQPublish(r.serviceName, exchange, err)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

func (r *DispatchBroker) PublishRouteAssigned(ctx context.Context, msg models.RouteAssignedMessage) error {
	ctx = wrap.WithAction(ctx, types.ActionPublishRouteAssigned)
	key := fmt.Sprintf("route.assigned.%s", msg.VehicleID)

	if err := r.publish(ctx, ExchangeDispatchTopic, key, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

func (r *DispatchBroker) PublishOrderStatus(ctx context.Context, msg models.OrderStatusMessage) error {
	ctx = wrap.WithAction(ctx, types.ActionPublishOrderStatus)
	key := fmt.Sprintf("order.status.%s", msg.OrderID)

	if err := r.publish(ctx, ExchangeDispatchTopic, key, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

func (r *DispatchBroker) PublishShiftEvent(ctx context.Context, msg models.ShiftEventMessage) error {
	ctx = wrap.WithAction(ctx, types.ActionPublishShiftEvent)
	key := fmt.Sprintf("shift.%s.%s", msg.Event, msg.DriverID)

	if err := r.publish(ctx, ExchangeDispatchTopic, key, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

func (r *DispatchBroker) PublishLocation(ctx context.Context, msg models.LocationFanoutMessage) error {
	ctx = wrap.WithAction(ctx, types.ActionPublishLocation)
	key := "" // fanout ignores routing keys

	if err := r.publish(ctx, ExchangeLocationFanout, key, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}
