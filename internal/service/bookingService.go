package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/lensmaster/internal/billing"
	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/internal/notify"

	"github.com/sirupsen/logrus"
)

type bookingService struct {
	calc     *billing.Calculator
	sink     notify.OrderSink
	feed     *notify.Feed
	whatsapp *notify.WhatsAppSink
	currency string
}

// NewBookingService создает новый экземпляр BookingService.
// feed and whatsapp are optional.
func NewBookingService(
	calc *billing.Calculator,
	sink notify.OrderSink,
	feed *notify.Feed,
	whatsapp *notify.WhatsAppSink,
	currency string,
) BookingService {
	return &bookingService{
		calc:     calc,
		sink:     sink,
		feed:     feed,
		whatsapp: whatsapp,
		currency: currency,
	}
}

func (s *bookingService) Catalog(_ context.Context) entity.Catalog {
	return s.calc.Catalog()
}

func (s *bookingService) Camera(_ context.Context, id string) (*entity.CameraModel, error) {
	m, ok := s.calc.Catalog().Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrCameraNotFound, id)
	}
	return &m, nil
}

func (s *bookingService) Pricing(_ context.Context) Pricing {
	return Pricing{DailyRate: s.calc.DailyRate(), Currency: s.currency}
}

func (s *bookingService) Quote(_ context.Context, startDate, endDate string) (*billing.Quote, error) {
	if _, err := entity.ParseDate(startDate); err != nil {
		return nil, fmt.Errorf("%w: start date: %v", entity.ErrInvalidInput, err)
	}
	if _, err := entity.ParseDate(endDate); err != nil {
		return nil, fmt.Errorf("%w: end date: %v", entity.ErrInvalidInput, err)
	}
	q := s.calc.Quote(startDate, endDate)
	return &q, nil
}

// PlaceOrder prices the request and hands the order to the sinks. A sink failure
// is logged; the order already exists and is still returned.
func (s *bookingService) PlaceOrder(ctx context.Context, req *entity.BookingRequest) (*entity.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, ok := s.calc.Catalog().Find(req.CameraID); !ok {
		logrus.WithField("camera_id", req.CameraID).Warn("Unknown camera requested, using fallback name")
	}

	order := s.calc.CreateOrder(*req)

	if s.sink != nil {
		if err := s.sink.Accept(ctx, order); err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Error("Order sink delivery failed")
		}
	}

	return order, nil
}

func (s *bookingService) RecentOrders(_ context.Context, limit int) []entity.Order {
	if s.feed == nil {
		return []entity.Order{}
	}
	return s.feed.Recent(limit)
}

func (s *bookingService) ContactLink(order *entity.Order) string {
	if s.whatsapp == nil {
		return ""
	}
	return s.whatsapp.Link(order)
}
