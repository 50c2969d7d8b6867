package queue

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RedisOpt builds the asynq connection options from the Redis config
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Worker runs the asynq server for the commission task types
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewWorker creates a worker serving handlers
func NewWorker(redisOpt asynq.RedisConnOpt, cfg config.QueueConfig, handlers *Handlers, logger *zap.Logger) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:    concurrency,
		Queues:         Queues,
		RetryDelayFunc: asynq.DefaultRetryDelayFunc,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error("Task failed", zap.String("task_type", task.Type()), zap.Error(err))
		}),
		Logger:   zapAsynqLogger{logger.Sugar().Named("asynq")},
		LogLevel: asynq.WarnLevel,
	})

	mux := asynq.NewServeMux()
	handlers.Register(mux)

	return &Worker{server: server, mux: mux, logger: logger}
}

// Start begins processing in background goroutines
func (w *Worker) Start() error {
	w.logger.Info("Starting task worker")
	return w.server.Start(w.mux)
}

// Shutdown waits for in-flight tasks and stops the worker
func (w *Worker) Shutdown() {
	w.server.Shutdown()
	w.logger.Info("Task worker stopped")
}

// zapAsynqLogger adapts zap to asynq.Logger
type zapAsynqLogger struct {
	s *zap.SugaredLogger
}

func (l zapAsynqLogger) Debug(args ...any) { l.s.Debug(args...) }
func (l zapAsynqLogger) Info(args ...any)  { l.s.Info(args...) }
func (l zapAsynqLogger) Warn(args ...any)  { l.s.Warn(args...) }
func (l zapAsynqLogger) Error(args ...any) { l.s.Error(args...) }
func (l zapAsynqLogger) Fatal(args ...any) { l.s.Fatal(args...) }
