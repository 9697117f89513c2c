package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stallbook/stallbook/internal/shared"
)

// Sink persists or forwards one audit entry.
type Sink interface {
	Write(ctx context.Context, entry shared.AuditEntry) error
}

// Observer receives dispatcher outcomes for metrics.
type Observer interface {
	AuditDropped()
	AuditWritten(sink string, ok bool)
}

// DispatcherConfig collects dispatcher dependencies.
type DispatcherConfig struct {
	Sink         Sink
	SinkName     string
	Buffer       int
	WriteTimeout time.Duration
	Logger       *slog.Logger
	Observer     Observer
}

// Dispatcher hands audit entries to a background goroutine through a bounded
// channel. Record never blocks: a full buffer drops the entry.
type Dispatcher struct {
	sink         Sink
	sinkName     string
	queue        chan shared.AuditEntry
	writeTimeout time.Duration
	logger       *slog.Logger
	observer     Observer
	now          func() time.Time
}

// NewDispatcher constructs a Dispatcher. Call Run to start draining.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SinkName == "" {
		cfg.SinkName = "inline"
	}
	return &Dispatcher{
		sink:         cfg.Sink,
		sinkName:     cfg.SinkName,
		queue:        make(chan shared.AuditEntry, cfg.Buffer),
		writeTimeout: cfg.WriteTimeout,
		logger:       cfg.Logger,
		observer:     cfg.Observer,
		now:          time.Now,
	}
}

// Record implements shared.AuditRecorder.
func (d *Dispatcher) Record(ctx context.Context, entry shared.AuditEntry) {
	if d == nil {
		return
	}
	if entry.Origin == "" {
		entry.Origin = shared.OriginFromContext(ctx)
	}
	if entry.EventID == uuid.Nil {
		entry.EventID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = d.now().UTC()
	}
	select {
	case d.queue <- entry:
	default:
		d.logger.Warn("audit buffer full, entry dropped",
			slog.String("action", entry.Action),
			slog.String("entity", entry.Entity),
			slog.String("event_id", entry.EventID.String()))
		if d.observer != nil {
			d.observer.AuditDropped()
		}
	}
}

// Run drains the buffer until ctx is cancelled, then flushes what is left.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case entry := <-d.queue:
			d.write(entry)
		case <-ctx.Done():
			d.flush()
			return
		}
	}
}

func (d *Dispatcher) flush() {
	for {
		select {
		case entry := <-d.queue:
			d.write(entry)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(entry shared.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
	defer cancel()
	err := d.sink.Write(ctx, entry)
	if err != nil {
		d.logger.Error("audit write failed",
			slog.String("sink", d.sinkName),
			slog.String("action", entry.Action),
			slog.String("event_id", entry.EventID.String()),
			slog.Any("error", err))
	}
	if d.observer != nil {
		d.observer.AuditWritten(d.sinkName, err == nil)
	}
}

var _ shared.AuditRecorder = (*Dispatcher)(nil)
