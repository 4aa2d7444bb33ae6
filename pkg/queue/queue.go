package queue

import (
	"context"
)

// Handler processes one task. A non-nil error makes the task eligible for retry.
type Handler func(ctx context.Context, task *Task) error

// Queue интерфейс очереди
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}

// StatsProvider is implemented by queues that can report their sizes.
type StatsProvider interface {
	GetQueueStats(ctx context.Context) (*QueueStats, error)
}
