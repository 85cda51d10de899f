package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/usawrapco/wrapforge/internal/config"
	"github.com/usawrapco/wrapforge/pkg/logger"
)

// Worker consumes stats tasks from the Redis queue when async mode is on.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *StatsTask) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

var (
	globalWorker *Worker
	workerOnce   sync.Once
)

// InitWorker creates the singleton worker. Returns nil when Redis is
// disabled.
func InitWorker(cfg *config.RedisConfig) *Worker {
	workerOnce.Do(func() {
		globalWorker = NewWorker(cfg)
	})
	return globalWorker
}

// NewWorker creates a new worker instance
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"stats": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Errorf("[Worker] error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function applied to stats tasks
func (w *Worker) SetProcessor(processor func(context.Context, *StatsTask) error) {
	w.processor = processor
}

// Start begins processing tasks
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypePipelineStats, w.handleStatsTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] starting stats worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] server error: %v", err)
		}
	}()

	return nil
}

func (w *Worker) handleStatsTask(ctx context.Context, t *asynq.Task) error {
	if w.processor == nil {
		logger.Warnf("[Worker] no processor set, dropping task")
		return nil
	}

	var task StatsTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		return err
	}
	return w.processor(ctx, &task)
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.server.Shutdown()
	w.wg.Wait()
	w.running = false
}
