package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ds124wfegd/lensmaster/internal/billing"
	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCatalog = entity.Catalog{
	{ID: "sony-a7iv", Name: "Sony A7 IV", Description: "Full-frame Mirrorless Camera"},
	{ID: "canon-r5", Name: "Canon EOS R5", Description: "8K Video Professional Body"},
	{ID: "nikon-z9", Name: "Nikon Z9", Description: "Flagship Speed & Performance"},
}

type fakeSink struct {
	orders []*entity.Order
	err    error
}

func (f *fakeSink) Accept(_ context.Context, order *entity.Order) error {
	f.orders = append(f.orders, order)
	return f.err
}

func newBookingService(sink notify.OrderSink, feed *notify.Feed) BookingService {
	return NewBookingService(
		billing.NewCalculator(testCatalog, 400),
		sink,
		feed,
		notify.NewWhatsAppSink("8767160204", "₹"),
		"₹",
	)
}

func TestPlaceOrder(t *testing.T) {
	sink := &fakeSink{}
	svc := newBookingService(sink, nil)

	order, err := svc.PlaceOrder(context.Background(), &entity.BookingRequest{
		CustomerName: "Jane Doe",
		CameraID:     "canon-r5",
		StartDate:    "2024-07-01",
		EndDate:      "2024-07-04",
	})
	require.NoError(t, err)

	assert.Equal(t, "Canon EOS R5", order.CameraName)
	assert.Equal(t, 3, order.DurationDays)
	assert.Equal(t, int64(1200), order.TotalPrice)
	assert.Equal(t, entity.OrderStatusPending, order.Status)

	require.Len(t, sink.orders, 1)
	assert.Same(t, order, sink.orders[0])
}

func TestPlaceOrderRejectsInvalidInput(t *testing.T) {
	sink := &fakeSink{}
	svc := newBookingService(sink, nil)

	tests := []struct {
		name string
		req  entity.BookingRequest
	}{
		{name: "blank name", req: entity.BookingRequest{CameraID: "canon-r5", StartDate: "2024-07-01", EndDate: "2024-07-04"}},
		{name: "missing end", req: entity.BookingRequest{CustomerName: "Jane", StartDate: "2024-07-01"}},
		{name: "garbage start", req: entity.BookingRequest{CustomerName: "Jane", StartDate: "soon", EndDate: "2024-07-04"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), &tt.req)
			assert.ErrorIs(t, err, entity.ErrInvalidInput)
		})
	}
	assert.Empty(t, sink.orders)
}

func TestPlaceOrderSurvivesSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("telegram down")}
	svc := newBookingService(sink, nil)

	order, err := svc.PlaceOrder(context.Background(), &entity.BookingRequest{
		CustomerName: "John",
		CameraID:     "unknown-cam",
		StartDate:    "2024-03-10",
		EndDate:      "2024-03-10",
	})
	require.NoError(t, err)
	assert.Equal(t, billing.FallbackCameraName, order.CameraName)
	assert.Equal(t, 1, order.DurationDays)
	assert.Equal(t, int64(400), order.TotalPrice)
}

func TestRecentOrdersFromFeed(t *testing.T) {
	feed := notify.NewFeed(10)
	svc := newBookingService(feed, feed)

	assert.Empty(t, svc.RecentOrders(context.Background(), 5))

	for _, name := range []string{"A", "B"} {
		_, err := svc.PlaceOrder(context.Background(), &entity.BookingRequest{
			CustomerName: name, CameraID: "nikon-z9", StartDate: "2024-07-01", EndDate: "2024-07-02",
		})
		require.NoError(t, err)
	}

	recent := svc.RecentOrders(context.Background(), 5)
	require.Len(t, recent, 2)
	assert.Equal(t, "B", recent[0].CustomerName)

	noFeed := newBookingService(nil, nil)
	assert.NotNil(t, noFeed.RecentOrders(context.Background(), 5))
}

func TestQuote(t *testing.T) {
	svc := newBookingService(nil, nil)

	q, err := svc.Quote(context.Background(), "2024-07-04", "2024-07-01")
	require.NoError(t, err)
	assert.Equal(t, &billing.Quote{DurationDays: 3, DailyRate: 400, TotalPrice: 1200}, q)

	_, err = svc.Quote(context.Background(), "", "2024-07-01")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestCatalogPricingAndContactLink(t *testing.T) {
	svc := newBookingService(nil, nil)

	assert.Equal(t, testCatalog, svc.Catalog(context.Background()))
	assert.Equal(t, Pricing{DailyRate: 400, Currency: "₹"}, svc.Pricing(context.Background()))

	link := svc.ContactLink(&entity.Order{ID: "x", CustomerName: "Jane", CameraName: "Nikon Z9", DurationDays: 1, TotalPrice: 400, Status: entity.OrderStatusPending})
	assert.Contains(t, link, "https://wa.me/8767160204?text=")

	bare := NewBookingService(billing.NewCalculator(testCatalog, 400), nil, nil, nil, "₹")
	assert.Equal(t, "", bare.ContactLink(&entity.Order{}))
}

func TestCamera(t *testing.T) {
	svc := newBookingService(nil, nil)

	got, err := svc.Camera(context.Background(), "nikon-z9")
	require.NoError(t, err)
	assert.Equal(t, "Nikon Z9", got.Name)

	_, err = svc.Camera(context.Background(), "leica-m11")
	assert.ErrorIs(t, err, entity.ErrCameraNotFound)
}
