package notify

import (
	"fmt"
	"strings"

	"github.com/ds124wfegd/lensmaster/config"
	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/pkg/hub"
	"github.com/ds124wfegd/lensmaster/pkg/kafka"
	"github.com/ds124wfegd/lensmaster/pkg/queue"
	"github.com/ds124wfegd/lensmaster/pkg/rabbitmq"
)

const (
	SinkLog      = "log"
	SinkFeed     = "feed"
	SinkWhatsApp = "whatsapp"
	SinkTelegram = "telegram"
	SinkQueue    = "queue"
	SinkRabbit   = "rabbit"
	SinkKafka    = "kafka"
	SinkStream   = "stream"
)

// Deps carries the already connected backends. A nil field makes its sink unavailable.
type Deps struct {
	Feed     *Feed
	Telegram Messenger
	Queue    queue.Queue
	Rabbit   rabbitmq.Publisher
	Kafka    kafka.Producer
	Hub      *hub.Hub
}

// BuildSinks assembles the sinks listed in notify.sinks, in that order.
func BuildSinks(cfg *config.Config, deps Deps) (*MultiSink, error) {
	currency := cfg.Billing.Currency
	var sinks []NamedSink

	for _, raw := range cfg.Notify.Sinks {
		name := strings.ToLower(strings.TrimSpace(raw))

		var sink OrderSink
		switch name {
		case SinkLog:
			sink = NewLogSink(currency)
		case SinkFeed:
			if deps.Feed != nil {
				sink = deps.Feed
			}
		case SinkWhatsApp:
			if cfg.WhatsApp.Phone != "" {
				sink = NewWhatsAppSink(cfg.WhatsApp.Phone, currency)
			}
		case SinkTelegram:
			if deps.Telegram != nil && cfg.Telegram.ChatID != "" {
				sink = NewTelegramSink(deps.Telegram, cfg.Telegram.ChatID, currency)
			}
		case SinkQueue:
			if deps.Queue != nil {
				sink = NewQueueSink(deps.Queue)
			}
		case SinkRabbit:
			if deps.Rabbit != nil {
				sink = NewRabbitSink(deps.Rabbit, currency)
			}
		case SinkKafka:
			if deps.Kafka != nil {
				sink = NewKafkaSink(deps.Kafka, currency)
			}
		case SinkStream:
			if deps.Hub != nil {
				sink = NewStreamSink(deps.Hub)
			}
		default:
			return nil, fmt.Errorf("%w: %q", entity.ErrUnknownSink, raw)
		}

		if sink == nil {
			return nil, fmt.Errorf("%w: %s is enabled but not configured", entity.ErrSinkUnavailable, name)
		}
		sinks = append(sinks, NamedSink{Name: name, Sink: sink})
	}

	return NewMultiSink(sinks...), nil
}
