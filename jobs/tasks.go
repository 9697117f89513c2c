package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stallbook/stallbook/internal/audit"
	"github.com/stallbook/stallbook/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueAudit carries audit trail writes.
	QueueAudit = "audit"
	// TaskAuditRecord persists one audit entry.
	TaskAuditRecord = "audit:record"

	auditRetention = 24 * time.Hour
	auditMaxRetry  = 10
)

// NewAuditRecordTask constructs an Asynq task. The event id doubles as the
// task id so a duplicate enqueue is rejected by the broker.
func NewAuditRecordTask(entry shared.AuditEntry) (*asynq.Task, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data,
		asynq.TaskID(entry.EventID.String()),
		asynq.Queue(QueueAudit),
		asynq.MaxRetry(auditMaxRetry),
		asynq.Retention(auditRetention),
	), nil
}

// AuditRecordHandler writes queued audit entries into the store.
type AuditRecordHandler struct {
	sink audit.Sink
}

// NewAuditRecordHandler wires the handler to the persistent sink.
func NewAuditRecordHandler(sink audit.Sink) *AuditRecordHandler {
	return &AuditRecordHandler{sink: sink}
}

// Handle processes TaskAuditRecord tasks.
func (h *AuditRecordHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var entry shared.AuditEntry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		return fmt.Errorf("decode audit entry: %v: %w", err, asynq.SkipRetry)
	}
	if entry.Action == "" || entry.Entity == "" {
		return fmt.Errorf("audit entry missing action/entity: %w", asynq.SkipRetry)
	}
	return h.sink.Write(ctx, entry)
}
