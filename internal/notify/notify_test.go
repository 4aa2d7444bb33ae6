package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/ds124wfegd/lensmaster/config"
	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *entity.Order {
	return &entity.Order{
		ID:           "3f2c7a9e-0000-4000-8000-000000000001",
		CustomerName: "Jane Doe",
		CameraName:   "Canon EOS R5",
		StartDate:    "2024-07-01",
		EndDate:      "2024-07-04",
		DurationDays: 3,
		TotalPrice:   1200,
		Status:       entity.OrderStatusPending,
	}
}

type recordingSink struct {
	mu     sync.Mutex
	orders []*entity.Order
	err    error
}

func (r *recordingSink) Accept(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order)
	return r.err
}

type fakeMessenger struct {
	chatID string
	texts  []string
	err    error
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID, text string) error {
	if f.err != nil {
		return f.err
	}
	f.chatID = chatID
	f.texts = append(f.texts, text)
	return nil
}

type fakeQueue struct {
	tasks []*queue.Task
	err   error
}

func (f *fakeQueue) Publish(_ context.Context, task *queue.Task) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeQueue) Subscribe(context.Context, queue.Handler) error { return nil }
func (f *fakeQueue) Close() error { return nil }

type fakePublisher struct {
	messages []interface{}
}

func (f *fakePublisher) Publish(_ context.Context, message interface{}) error {
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeProducer struct {
	keys     []string
	messages []interface{}
}

func (f *fakeProducer) SendMessage(_ context.Context, key string, message interface{}) error {
	f.keys = append(f.keys, key)
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestFormatOrderMessage(t *testing.T) {
	msg := FormatOrderMessage(sampleOrder(), "₹")
	assert.Equal(t, "*LensMaster Order!*\n*Customer:* Jane Doe\n*Gear:* Canon EOS R5\n*Duration:* 3 Days\n*Total:* ₹1200\n*Status:* Pending", msg)
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("8767160204", "*LensMaster Order!*\n*Customer:* Jane Doe")
	require.True(t, strings.HasPrefix(link, "https://wa.me/8767160204?text="))

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "*LensMaster Order!*\n*Customer:* Jane Doe", u.Query().Get("text"))
	assert.Contains(t, link, "%0A")
}

func TestWhatsAppSink(t *testing.T) {
	sink := NewWhatsAppSink("8767160204", "₹")
	order := sampleOrder()

	u, err := url.Parse(sink.Link(order))
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/8767160204", u.Path)
	assert.Equal(t, FormatOrderMessage(order, "₹"), u.Query().Get("text"))

	feed := NewFeed(5)
	multi := NewMultiSink(NamedSink{Name: SinkFeed, Sink: feed}, NamedSink{Name: SinkWhatsApp, Sink: sink})
	require.NoError(t, multi.Accept(context.Background(), order))
	assert.Equal(t, []entity.Order{*order}, feed.Recent(5), "feed keeps the order unchanged")
}

func TestMultiSinkContinuesPastFailures(t *testing.T) {
	first := &recordingSink{err: errors.New("down")}
	second := &recordingSink{}
	m := NewMultiSink(NamedSink{Name: "a", Sink: first}, NamedSink{Name: "b", Sink: second})

	err := m.Accept(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a sink: down")
	assert.Len(t, first.orders, 1)
	assert.Len(t, second.orders, 1)
	assert.Equal(t, []string{"a", "b"}, m.Names())

	assert.NoError(t, NewMultiSink().Accept(context.Background(), sampleOrder()))
}

func TestFeedNewestFirstAndBounded(t *testing.T) {
	feed := NewFeed(2)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		o := sampleOrder()
		o.ID = id
		require.NoError(t, feed.Accept(ctx, o))
	}

	recent := feed.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "3", recent[0].ID)
	assert.Equal(t, "2", recent[1].ID)

	assert.Len(t, feed.Recent(1), 1)
	assert.Len(t, feed.Recent(10), 2)

	recent[0].CustomerName = "changed"
	assert.Equal(t, "Jane Doe", feed.Recent(1)[0].CustomerName)
}

func TestFeedStoresCopy(t *testing.T) {
	feed := NewFeed(5)
	o := sampleOrder()
	require.NoError(t, feed.Accept(context.Background(), o))
	o.Status = entity.OrderStatusConfirmed
	assert.Equal(t, entity.OrderStatusPending, feed.Recent(1)[0].Status)
}

func TestTelegramSink(t *testing.T) {
	bot := &fakeMessenger{}
	sink := NewTelegramSink(bot, "42", "₹")

	require.NoError(t, sink.Accept(context.Background(), sampleOrder()))
	assert.Equal(t, "42", bot.chatID)
	require.Len(t, bot.texts, 1)
	assert.Contains(t, bot.texts[0], "*Total:* ₹1200")

	failing := NewTelegramSink(&fakeMessenger{err: errors.New("401")}, "42", "₹")
	assert.Error(t, failing.Accept(context.Background(), sampleOrder()))
}

func TestBrokerSinks(t *testing.T) {
	pub := &fakePublisher{}
	require.NoError(t, NewRabbitSink(pub, "₹").Accept(context.Background(), sampleOrder()))
	require.Len(t, pub.messages, 1)
	ev := pub.messages[0].(OrderEvent)
	assert.Equal(t, EventOrderCreated, ev.Event)
	assert.Equal(t, int64(1200), ev.Order.TotalPrice)

	prod := &fakeProducer{}
	require.NoError(t, NewKafkaSink(prod, "₹").Accept(context.Background(), sampleOrder()))
	assert.Equal(t, []string{sampleOrder().ID}, prod.keys)

	raw, err := json.Marshal(prod.messages[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"customer_name":"Jane Doe"`)
}

func TestQueueSinkRoundTrip(t *testing.T) {
	q := &fakeQueue{}
	require.NoError(t, NewQueueSink(q).Accept(context.Background(), sampleOrder()))
	require.Len(t, q.tasks, 1)
	assert.Equal(t, queue.TaskTypeNotifyOrder, q.tasks[0].Type)

	// the task travels through Redis as JSON
	raw, err := json.Marshal(q.tasks[0])
	require.NoError(t, err)
	var task queue.Task
	require.NoError(t, json.Unmarshal(raw, &task))

	bot := &fakeMessenger{}
	h := NewTaskHandler(bot, "42", "₹")
	require.NoError(t, h.HandleTask(context.Background(), &task))
	require.Len(t, bot.texts, 1)
	assert.Equal(t, FormatOrderMessage(sampleOrder(), "₹"), bot.texts[0])
}

func TestQueueSinkPublishError(t *testing.T) {
	err := NewQueueSink(&fakeQueue{err: errors.New("redis down")}).Accept(context.Background(), sampleOrder())
	assert.ErrorContains(t, err, "redis down")
}

func TestTaskHandlerFailures(t *testing.T) {
	h := NewTaskHandler(&fakeMessenger{}, "42", "₹")

	err := h.HandleTask(context.Background(), &queue.Task{ID: "t", Type: "bogus"})
	assert.ErrorIs(t, err, queue.ErrPermanent)

	err = h.HandleTask(context.Background(), &queue.Task{ID: "t", Type: queue.TaskTypeNotifyOrder, Data: map[string]interface{}{}})
	assert.ErrorIs(t, err, queue.ErrPermanent)

	transient := NewTaskHandler(&fakeMessenger{err: errors.New("502")}, "42", "₹")
	err = transient.HandleTask(context.Background(), queue.NewTask(queue.TaskTypeNotifyOrder, orderToData(sampleOrder())))
	require.Error(t, err)
	assert.NotErrorIs(t, err, queue.ErrPermanent)
}

func TestBuildSinks(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			Billing:  config.BillingConfig{DailyRate: 400, Currency: "₹"},
			Telegram: config.TelegramConfig{ChatID: "42"},
			WhatsApp: config.WhatsAppConfig{Phone: "8767160204"},
		}
	}
	deps := Deps{
		Feed:     NewFeed(5),
		Telegram: &fakeMessenger{},
		Queue:    &fakeQueue{},
		Rabbit:   &fakePublisher{},
		Kafka:    &fakeProducer{},
	}

	tests := []struct {
		name    string
		sinks   []string
		deps    Deps
		want    []string
		wantErr error
	}{
		{name: "defaults", sinks: []string{"log", "feed"}, deps: deps, want: []string{"log", "feed"}},
		{name: "all configured", sinks: []string{"log", "feed", "whatsapp", "telegram", "queue", "rabbit", "kafka"}, deps: deps,
			want: []string{"log", "feed", "whatsapp", "telegram", "queue", "rabbit", "kafka"}},
		{name: "case and spaces", sinks: []string{" LOG "}, deps: deps, want: []string{"log"}},
		{name: "unknown", sinks: []string{"pigeon"}, deps: deps, wantErr: entity.ErrUnknownSink},
		{name: "missing backend", sinks: []string{"kafka"}, deps: Deps{}, wantErr: entity.ErrSinkUnavailable},
		{name: "stream without hub", sinks: []string{"stream"}, deps: deps, wantErr: entity.ErrSinkUnavailable},
		{name: "none", sinks: nil, deps: deps, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			cfg.Notify.Sinks = tt.sinks

			m, err := BuildSinks(cfg, tt.deps)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Names())
		})
	}
}
