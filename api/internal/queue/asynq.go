package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"image-translator/api/internal/extraction"
	"image-translator/api/internal/logging"
)

// Publisher enqueues TextEdited events; it implements extraction.Notifier.
type Publisher struct {
	client *asynq.Client
	queue  string
}

func NewPublisher(redisURL, queueName string) (*Publisher, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if queueName == "" {
		queueName = DefaultQueue
	}
	return &Publisher{client: asynq.NewClient(redisOpt), queue: queueName}, nil
}

func (p *Publisher) TextEdited(ctx context.Context, ev extraction.TextEdited) error {
	task, err := NewTextEditedTask(ev)
	if err != nil {
		return err
	}
	_, err = p.client.EnqueueContext(ctx, task, asynq.Queue(p.queue), asynq.MaxRetry(maxRetry))
	return err
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

type WorkerConfig struct {
	RedisURL    string
	QueueName   string
	Concurrency int
}

// Worker consumes TextEdited tasks and runs reconciliation.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	cfg    WorkerConfig
	log    *logging.Logger
}

func NewWorker(cfg WorkerConfig, rec Reconciler, src Source, log *logging.Logger) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if rec == nil {
		return nil, fmt.Errorf("Reconciler is required")
	}
	if src == nil {
		return nil, fmt.Errorf("Source is required")
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultQueue
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if log == nil {
		log = logging.Nop()
	}
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{cfg.QueueName: 10, "default": 1},
		// 5s, 10s, 20s, capped at a minute
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			delay := time.Duration(5*(1<<uint(n))) * time.Second
			if delay > time.Minute {
				delay = time.Minute
			}
			return delay
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("task processing failed", "type", task.Type(), "payload", string(task.Payload()), "err", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.Handle(TypeTextEdited, NewHandler(rec, src, log))

	return &Worker{server: server, mux: mux, cfg: cfg, log: log}, nil
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	w.log.Info("starting reconciliation worker", "queue", w.cfg.QueueName, "concurrency", w.cfg.Concurrency)
	return w.server.Start(w.mux)
}

func (w *Worker) Stop() {
	w.log.Info("stopping reconciliation worker")
	w.server.Shutdown()
}
