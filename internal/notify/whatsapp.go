package notify

import (
	"context"

	"github.com/ds124wfegd/lensmaster/internal/entity"

	"github.com/sirupsen/logrus"
)

// WhatsAppSink prepares the owner's click-to-chat link. Nothing is sent; the link
// is logged and returned to the customer's browser by the API.
type WhatsAppSink struct {
	phone    string
	currency string
}

func NewWhatsAppSink(phone, currency string) *WhatsAppSink {
	return &WhatsAppSink{phone: phone, currency: currency}
}

func (s *WhatsAppSink) Link(order *entity.Order) string {
	return WhatsAppLink(s.phone, FormatOrderMessage(order, s.currency))
}

func (s *WhatsAppSink) Accept(_ context.Context, order *entity.Order) error {
	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"url":      s.Link(order),
	}).Info("WhatsApp notification link prepared")
	return nil
}
