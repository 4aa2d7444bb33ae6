package notify

import (
	"context"
	"time"

	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/pkg/hub"
	"github.com/ds124wfegd/lensmaster/pkg/kafka"
	"github.com/ds124wfegd/lensmaster/pkg/rabbitmq"
)

const EventOrderCreated = "order.created"

// OrderEvent is the payload published to message brokers.
type OrderEvent struct {
	Event      string       `json:"event"`
	Order      entity.Order `json:"order"`
	Currency   string       `json:"currency"`
	OccurredAt time.Time    `json:"occurred_at"`
}

func newOrderEvent(order *entity.Order, currency string) OrderEvent {
	return OrderEvent{
		Event:      EventOrderCreated,
		Order:      *order,
		Currency:   currency,
		OccurredAt: time.Now().UTC(),
	}
}

type RabbitSink struct {
	pub      rabbitmq.Publisher
	currency string
}

func NewRabbitSink(pub rabbitmq.Publisher, currency string) *RabbitSink {
	return &RabbitSink{pub: pub, currency: currency}
}

func (s *RabbitSink) Accept(ctx context.Context, order *entity.Order) error {
	return s.pub.Publish(ctx, newOrderEvent(order, s.currency))
}

// KafkaSink writes order events keyed by order id so one order stays on one partition.
type KafkaSink struct {
	producer kafka.Producer
	currency string
}

func NewKafkaSink(producer kafka.Producer, currency string) *KafkaSink {
	return &KafkaSink{producer: producer, currency: currency}
}

func (s *KafkaSink) Accept(ctx context.Context, order *entity.Order) error {
	return s.producer.SendMessage(ctx, order.ID, newOrderEvent(order, s.currency))
}

// StreamSink pushes orders to connected WebSocket clients.
type StreamSink struct {
	hub *hub.Hub
}

func NewStreamSink(h *hub.Hub) *StreamSink {
	return &StreamSink{hub: h}
}

func (s *StreamSink) Accept(_ context.Context, order *entity.Order) error {
	return s.hub.Publish(hub.NewMessage(hub.TypeOrderCreated, order))
}
