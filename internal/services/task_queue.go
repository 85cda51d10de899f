package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/usawrapco/wrapforge/internal/config"
	"github.com/usawrapco/wrapforge/pkg/logger"
)

const (
	TaskTypePipelineStats = "pipeline:stats"
)

// StatsTask carries one dispatch outcome to the aggregate-stats updater.
// The hand-off is fire-and-forget by design: the detail ledger row is the
// source of truth, this only feeds the derived counters.
type StatsTask struct {
	OrgID        string  `json:"org_id"`
	PipelineStep string  `json:"pipeline_step"`
	Cost         float64 `json:"cost"`
	LatencyMs    int64   `json:"latency_ms"`
	Success      bool    `json:"success"`
}

// TaskQueue defines the interface for stats task processing
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *StatsTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global task queue instance
var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskQueue] Redis unavailable, falling back to in-process mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] In-process queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

// GetTaskQueue returns the global task queue instance
func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue creates a new Redis-based async queue
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	_, err := inspector.Queues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds a stats task to the async queue
func (q *AsyncQueue) Enqueue(task *StatsTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypePipelineStats, payload)
	_, err = q.client.Enqueue(t,
		asynq.Queue("stats"),
		asynq.MaxRetry(2),
	)
	return err
}

// IsAsync returns true for async queue
func (q *AsyncQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client
func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue without Redis: tasks run on a detached
// goroutine so the dispatch path never waits on the stats write. Errors go
// to the log instead of the caller.
type SyncQueue struct {
	processor func(context.Context, *StatsTask) error
	wg        sync.WaitGroup
}

// NewSyncQueue creates a new in-process queue
func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function applied to enqueued tasks
func (q *SyncQueue) SetProcessor(processor func(context.Context, *StatsTask) error) {
	q.processor = processor
}

// Enqueue hands the task to a goroutine and returns immediately.
func (q *SyncQueue) Enqueue(task *StatsTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] no processor set, stats task for %s/%s dropped", task.OrgID, task.PipelineStep)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Errorf("[SyncQueue] stats update failed for %s/%s: %v", task.OrgID, task.PipelineStep, err)
		}
	}()

	return nil
}

// IsAsync returns false for the in-process queue
func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight stats updates to finish.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
