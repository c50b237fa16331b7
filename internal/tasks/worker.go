package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"authd/internal/config"
	"authd/internal/logging"

	"github.com/hibiken/asynq"
)

// NewServer creates the asynq worker server. Workers fetch from the default
// queue only and acknowledge a task after its handler returns; tasks left
// active by a crashed worker are requeued by the broker.
func NewServer(redisCfg config.RedisConfig, workerCfg config.WorkerConfig, logger *slog.Logger) *asynq.Server {
	return asynq.NewServer(RedisOpt(redisCfg), asynq.Config{
		Concurrency: workerCfg.Concurrency,
		Queues: map[string]int{
			DefaultQueue: 1,
		},
		StrictPriority:  true,
		ShutdownTimeout: 30 * time.Second,
		BaseContext: func() context.Context {
			return logging.IntoContext(context.Background(), logger)
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error("task failed",
				"type", task.Type(),
				"retry", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
		Logger:   &asynqLogger{logger: logger},
		LogLevel: asynq.InfoLevel,
	})
}

// NewServeMux returns a mux with the handlers registered and each task logged
func NewServeMux(h *Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(loggingMiddleware)
	h.Register(mux)
	return mux
}

func loggingMiddleware(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		id, _ := asynq.GetTaskID(ctx)
		logger := logging.FromContext(ctx).With("task_id", id, "type", t.Type())

		err := next.ProcessTask(logging.IntoContext(ctx, logger), t)
		logger.Debug("task processed", "duration", time.Since(start), "ok", err == nil)
		return err
	})
}

// asynqLogger adapts slog to the asynq logger interface
type asynqLogger struct {
	logger *slog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
