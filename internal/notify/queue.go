package notify

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/lensmaster/internal/entity"
	"github.com/ds124wfegd/lensmaster/pkg/queue"

	"github.com/sirupsen/logrus"
)

// QueueSink defers the owner notification to the task queue, which retries
// delivery and dead-letters it when the messenger keeps failing.
type QueueSink struct {
	queue queue.Queue
}

func NewQueueSink(q queue.Queue) *QueueSink {
	return &QueueSink{queue: q}
}

func (s *QueueSink) Accept(ctx context.Context, order *entity.Order) error {
	task := queue.NewTask(queue.TaskTypeNotifyOrder, orderToData(order))
	if err := s.queue.Publish(ctx, task); err != nil {
		return fmt.Errorf("enqueue notification for order %s: %w", order.ID, err)
	}
	return nil
}

// TaskHandler consumes notify_order tasks and sends them through the messenger.
type TaskHandler struct {
	bot      Messenger
	chatID   string
	currency string
}

func NewTaskHandler(bot Messenger, chatID, currency string) *TaskHandler {
	return &TaskHandler{bot: bot, chatID: chatID, currency: currency}
}

func (h *TaskHandler) HandleTask(ctx context.Context, task *queue.Task) error {
	logrus.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"task_type":   task.Type,
		"attempt":     task.Attempts,
		"max_retries": task.MaxRetries,
	}).Debug("Handling task")

	switch task.Type {
	case queue.TaskTypeNotifyOrder:
		return h.handleNotifyOrder(ctx, task)
	default:
		return fmt.Errorf("unknown task type %q: %w", task.Type, queue.ErrPermanent)
	}
}

func (h *TaskHandler) handleNotifyOrder(ctx context.Context, task *queue.Task) error {
	order, err := orderFromData(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, queue.ErrPermanent)
	}
	if err := h.bot.SendMessage(ctx, h.chatID, FormatOrderMessage(order, h.currency)); err != nil {
		return fmt.Errorf("notify order %s: %w", order.ID, err)
	}
	logrus.WithField("order_id", order.ID).Info("Order notification delivered")
	return nil
}

func orderToData(order *entity.Order) map[string]interface{} {
	return map[string]interface{}{
		"order_id":      order.ID,
		"customer_name": order.CustomerName,
		"camera_name":   order.CameraName,
		"start_date":    order.StartDate,
		"end_date":      order.EndDate,
		"duration_days": order.DurationDays,
		"total_price":   order.TotalPrice,
		"status":        string(order.Status),
	}
}

func orderFromData(task *queue.Task) (*entity.Order, error) {
	id := task.GetString("order_id")
	if id == "" {
		return nil, fmt.Errorf("task %s has no order_id", task.ID)
	}
	return &entity.Order{
		ID:           id,
		CustomerName: task.GetString("customer_name"),
		CameraName:   task.GetString("camera_name"),
		StartDate:    task.GetString("start_date"),
		EndDate:      task.GetString("end_date"),
		DurationDays: int(task.GetInt("duration_days")),
		TotalPrice:   task.GetInt("total_price"),
		Status:       entity.OrderStatus(task.GetString("status")),
	}, nil
}
