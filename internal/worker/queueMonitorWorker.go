package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ds124wfegd/lensmaster/pkg/queue"

	"github.com/sirupsen/logrus"
)

// QueueMonitorWorker periodically logs the notification queue backlog.
type QueueMonitorWorker struct {
	stats    queue.StatsProvider
	interval time.Duration
	runs     atomic.Int64
}

func NewQueueMonitorWorker(stats queue.StatsProvider, interval time.Duration) *QueueMonitorWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &QueueMonitorWorker{
		stats:    stats,
		interval: interval,
	}
}

func (w *QueueMonitorWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Queue monitor worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Queue monitor worker stopped")
			return
		case <-ticker.C:
			w.collect(ctx)
		}
	}
}

func (w *QueueMonitorWorker) collect(ctx context.Context) {
	w.runs.Add(1)

	stats, err := w.stats.GetQueueStats(ctx)
	if err != nil {
		logrus.Errorf("Failed to collect queue stats: %v", err)
		return
	}

	entry := logrus.WithFields(logrus.Fields{
		"main_queue":       stats.MainQueue,
		"delayed_queue":    stats.DelayedQueue,
		"processing_queue": stats.ProcessingQueue,
		"dlq":              stats.DLQ,
	})

	if stats.DLQ > 0 {
		entry.Warn("Notification queue has dead-lettered tasks")
		return
	}
	entry.Info("Notification queue stats")
}

// GetStats возвращает статистику работы воркера
func (w *QueueMonitorWorker) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"worker_type": "queue_monitor",
		"interval":    w.interval.String(),
		"runs":        w.runs.Load(),
	}
}
