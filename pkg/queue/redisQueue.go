package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ds124wfegd/lensmaster/config"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxRetries   = 3
	defaultBaseDelay    = 5 * time.Second
	defaultPollTimeout  = 5 * time.Second
	defaultDelayedCheck = 10 * time.Second

	delayedBatch = 100
)

// moveDelayedScript moves ready tasks from the delayed set to the main list in one
// step. A task is pushed only by the caller whose ZREM removed it, so several
// consumers on the same prefix never enqueue it twice.
var moveDelayedScript = redis.NewScript(`
local ready = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
local moved = 0
for _, task in ipairs(ready) do
	if redis.call('ZREM', KEYS[1], task) == 1 then
		redis.call('LPUSH', KEYS[2], task)
		moved = moved + 1
	end
end
return moved
`)

// RedisQueue implements Queue on a list for ready tasks and a sorted set for delayed ones.
type RedisQueue struct {
	client          *redis.Client
	mainQueue       string
	delayedQueue    string
	processingQueue string
	dlq             string
	maxRetries      int
	pollTimeout     time.Duration
	delayedCheck    time.Duration
	retryManager    *RetryManager
	dlqHandler      DLQHandler
	stopChan        chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

// Keys returns the Redis key names used for a queue prefix.
func Keys(prefix string) (main, delayed, processing, dlq string) {
	return prefix + ":tasks", prefix + ":tasks:delayed", prefix + ":tasks:processing", prefix + ":dlq"
}

// NewRedisQueue builds a queue on an existing client. The caller owns the client.
func NewRedisQueue(client *redis.Client, cfg *config.QueueConfig) *RedisQueue {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "lensmaster"
	}
	mainQueue, delayedQueue, processingQueue, dlq := Keys(prefix)

	q := &RedisQueue{
		client:          client,
		mainQueue:       mainQueue,
		delayedQueue:    delayedQueue,
		processingQueue: processingQueue,
		dlq:             dlq,
		maxRetries:      orInt(cfg.MaxRetries, defaultMaxRetries),
		pollTimeout:     orDuration(cfg.PollTimeout, defaultPollTimeout),
		delayedCheck:    orDuration(cfg.DelayedCheck, defaultDelayedCheck),
		retryManager:    NewRetryManager(orDuration(cfg.BaseDelay, defaultBaseDelay)),
		dlqHandler:      NewDefaultDLQHandler(client, dlq, mainQueue),
		stopChan:        make(chan struct{}),
	}

	logrus.WithFields(logrus.Fields{
		"main":    mainQueue,
		"delayed": delayedQueue,
		"dlq":     dlq,
	}).Info("RedisQueue initialized")

	return q
}

func (r *RedisQueue) DLQ() DLQHandler {
	return r.dlqHandler
}

// Publish sends a task to the queue
func (r *RedisQueue) Publish(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := r.prepareTask(task); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	return r.enqueue(ctx, task)
}

func (r *RedisQueue) enqueue(ctx context.Context, task *Task) error {
	taskData, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if task.ExecuteAt.After(time.Now()) {
		if err := r.client.ZAdd(ctx, r.delayedQueue, &redis.Z{
			Score:  toScore(task.ExecuteAt),
			Member: taskData,
		}).Err(); err != nil {
			return fmt.Errorf("failed to publish delayed task: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"task_id":    task.ID,
			"execute_at": task.ExecuteAt.Format(time.RFC3339),
		}).Debug("Task scheduled")
		return nil
	}

	if err := r.client.LPush(ctx, r.mainQueue, taskData).Err(); err != nil {
		return fmt.Errorf("failed to publish immediate task: %w", err)
	}
	logrus.WithField("task_id", task.ID).Debug("Task published to main queue")
	return nil
}

// Subscribe starts consuming tasks in the background until ctx is done or Close is called.
func (r *RedisQueue) Subscribe(ctx context.Context, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(2)
	go r.processDelayedTasks(ctx)
	go r.processMainQueue(ctx, handler)

	logrus.Info("RedisQueue subscriber started")
	return nil
}

func (r *RedisQueue) processMainQueue(ctx context.Context, handler Handler) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		default:
		}

		if err := r.processOne(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Error("Error processing queue")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			}
		}
	}
}

func (r *RedisQueue) processOne(ctx context.Context, handler Handler) error {
	taskData, err := r.client.BRPopLPush(ctx, r.mainQueue, r.processingQueue, r.pollTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to move task to processing queue: %w", err)
	}

	defer func() {
		if err := r.client.LRem(context.Background(), r.processingQueue, 1, taskData).Err(); err != nil {
			logrus.WithError(err).Warn("Failed to remove task from processing queue")
		}
	}()

	var task Task
	if err := json.Unmarshal([]byte(taskData), &task); err != nil {
		corrupted := &Task{
			ID:        "corrupted_" + strconv.FormatInt(time.Now().UnixNano(), 10),
			Type:      "corrupted",
			Data:      map[string]interface{}{"raw_data": taskData},
			CreatedAt: time.Now(),
		}
		r.dlqHandler.HandleFailedTask(ctx, corrupted, fmt.Errorf("invalid task format: %w", err))
		return nil
	}

	task.Attempts++
	log := logrus.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
		"attempt":   task.Attempts,
	})

	handleErr := handler(ctx, &task)
	if handleErr == nil {
		log.Info("Task completed")
		return nil
	}

	if retry, delay := r.retryManager.ShouldRetry(&task, handleErr); retry {
		task.ExecuteAt = time.Now().Add(delay)
		log.WithError(handleErr).WithField("retry_in", delay.String()).Warn("Task failed, retrying")
		if err := r.enqueue(ctx, &task); err != nil {
			r.dlqHandler.HandleFailedTask(ctx, &task, fmt.Errorf("requeue failed: %v: %w", err, handleErr))
		}
		return nil
	}

	log.WithError(handleErr).Error("Task failed permanently")
	r.dlqHandler.HandleFailedTask(ctx, &task, handleErr)
	return nil
}

func (r *RedisQueue) processDelayedTasks(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.delayedCheck)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			if _, err := r.moveReadyDelayedTasks(ctx); err != nil && ctx.Err() == nil {
				logrus.WithError(err).Error("Failed to process delayed tasks")
			}
		}
	}
}

// moveReadyDelayedTasks moves tasks whose execute_at has passed onto the main queue
// and returns how many it moved.
func (r *RedisQueue) moveReadyDelayedTasks(ctx context.Context) (int64, error) {
	until := strconv.FormatFloat(toScore(time.Now()), 'f', -1, 64)

	moved, err := moveDelayedScript.Run(ctx, r.client,
		[]string{r.delayedQueue, r.mainQueue},
		until, delayedBatch,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to move delayed tasks: %w", err)
	}

	if moved > 0 {
		logrus.WithField("count", moved).Debug("Moved delayed tasks to main queue")
	}
	return moved, nil
}

func (r *RedisQueue) prepareTask(task *Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if task.MaxRetries == 0 {
		task.MaxRetries = r.maxRetries
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if task.ExecuteAt.IsZero() {
		task.ExecuteAt = task.CreatedAt
	}
	return nil
}

// GetQueueStats returns current queue statistics
func (r *RedisQueue) GetQueueStats(ctx context.Context) (*QueueStats, error) {
	pipe := r.client.Pipeline()

	mainLen := pipe.LLen(ctx, r.mainQueue)
	delayedLen := pipe.ZCard(ctx, r.delayedQueue)
	processingLen := pipe.LLen(ctx, r.processingQueue)
	dlqLen := pipe.ZCard(ctx, r.dlq)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}

	return &QueueStats{
		MainQueue:       mainLen.Val(),
		DelayedQueue:    delayedLen.Val(),
		ProcessingQueue: processingLen.Val(),
		DLQ:             dlqLen.Val(),
		Timestamp:       time.Now(),
	}, nil
}

// Close stops the consumers and waits for them. The Redis client stays open.
func (r *RedisQueue) Close() error {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()

	logrus.Info("RedisQueue closed")
	return nil
}

func (r *RedisQueue) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// QueueStats contains statistics about queue state
type QueueStats struct {
	MainQueue       int64     `json:"main_queue"`
	DelayedQueue    int64     `json:"delayed_queue"`
	ProcessingQueue int64     `json:"processing_queue"`
	DLQ             int64     `json:"dlq"`
	Timestamp       time.Time `json:"timestamp"`
}

func toScore(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
