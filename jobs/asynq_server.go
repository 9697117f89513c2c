package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/stallbook/stallbook/internal/audit"
	jobmetrics "github.com/stallbook/stallbook/internal/jobs"
	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

// Worker wraps the Asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Concurrency int
	Handlers    []TaskHandler
	// Metrics, when set, instruments every registered handler.
	Metrics *jobmetrics.Metrics
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueAudit:   3,
			QueueDefault: 1,
		},
		Logger: slogAdapter{cfg.Logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			cfg.Logger.Warn("task failed", slog.String("type", task.Type()), slog.Any("error", err))
		}),
	})
	mux := asynq.NewServeMux()
	registered := 0
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, cfg.Metrics.Wrap(h.Type, h.Handler))
		registered++
	}
	if registered == 0 {
		return nil, errors.New("worker: no task handlers")
	}
	return &Worker{server: srv, mux: mux, logger: cfg.Logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// Write enqueues the entry, making Client an audit.Sink. An entry that was
// already enqueued is treated as delivered.
func (c *Client) Write(ctx context.Context, entry shared.AuditEntry) error {
	task, err := NewAuditRecordTask(entry)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

var _ audit.Sink = (*Client)(nil)

// QueueInspector is the subset of *asynq.Inspector used by Handler.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

type queueHealth struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Retry   int    `json:"retry"`
	Failed  int    `json:"archived"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.OK(w, http.StatusOK, []queueHealth{}, "queue inspector disabled")
		return
	}
	out := make([]queueHealth, 0, 2)
	for _, queue := range []string{QueueAudit, QueueDefault} {
		info, err := h.inspector.GetQueueInfo(queue)
		if err != nil {
			if errors.Is(err, asynq.ErrQueueNotFound) {
				out = append(out, queueHealth{Queue: queue})
				continue
			}
			h.logger.Warn("jobs health", slog.String("queue", queue), slog.Any("error", err))
			httpx.Error(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "queue inspector unavailable")
			return
		}
		out = append(out, queueHealth{Queue: info.Queue, Pending: info.Pending, Retry: info.Retry, Failed: info.Archived})
	}
	httpx.OK(w, http.StatusOK, out, "")
}

// slogAdapter routes asynq's internal logging into slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Debug(args ...interface{}) { a.logger.Debug("asynq", slog.Any("msg", args)) }
func (a slogAdapter) Info(args ...interface{})  { a.logger.Info("asynq", slog.Any("msg", args)) }
func (a slogAdapter) Warn(args ...interface{})  { a.logger.Warn("asynq", slog.Any("msg", args)) }
func (a slogAdapter) Error(args ...interface{}) { a.logger.Error("asynq", slog.Any("msg", args)) }
func (a slogAdapter) Fatal(args ...interface{}) { a.logger.Error("asynq fatal", slog.Any("msg", args)) }
