// Package notify delivers created orders to the collaborators that display or announce them.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/ds124wfegd/lensmaster/internal/entity"

	"github.com/sirupsen/logrus"
)

// OrderSink receives every order right after it is created.
type OrderSink interface {
	Accept(ctx context.Context, order *entity.Order) error
}

// NamedSink tags a sink with the name it was configured under.
type NamedSink struct {
	Name string
	Sink OrderSink
}

// MultiSink hands the order to every sink in order. A failing sink does not stop the rest.
type MultiSink struct {
	sinks []NamedSink
}

func NewMultiSink(sinks ...NamedSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Accept(ctx context.Context, order *entity.Order) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Sink.Accept(ctx, order); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Names() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name
	}
	return names
}

type LogSink struct {
	currency string
}

func NewLogSink(currency string) *LogSink {
	return &LogSink{currency: currency}
}

func (s *LogSink) Accept(_ context.Context, order *entity.Order) error {
	logrus.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"customer_name": order.CustomerName,
		"camera_name":   order.CameraName,
		"start_date":    order.StartDate,
		"end_date":      order.EndDate,
		"duration_days": order.DurationDays,
		"total_price":   order.TotalPrice,
		"currency":      s.currency,
		"status":        order.Status,
	}).Info("Order created")
	return nil
}
