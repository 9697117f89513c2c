package shared

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit action kinds.
const (
	ActionCreate        = "CREATE"
	ActionUpdate        = "UPDATE"
	ActionDelete        = "DELETE"
	ActionPurchase      = "PURCHASE"
	ActionSale          = "SALE"
	ActionExport        = "EXPORT"
	ActionBackupCreate  = "BACKUP_CREATE"
	ActionBackupRestore = "BACKUP_RESTORE"
)

// Audit entity kinds.
const (
	EntityProduct    = "product"
	EntityPurchase   = "purchase"
	EntitySale       = "sale"
	EntityInvestment = "investment"
	EntityFairReport = "fair_report"
	EntityBackup     = "backup"
	EntityExport     = "export"
)

// AuditEntry is one state-changing action handed to the audit trail.
type AuditEntry struct {
	EventID     uuid.UUID       `json:"event_id"`
	UserID      *int64          `json:"user_id,omitempty"`
	Action      string          `json:"action"`
	Entity      string          `json:"entity"`
	EntityID    *int64          `json:"entity_id,omitempty"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
	Origin      string          `json:"origin,omitempty"`
	Description string          `json:"description"`
	At          time.Time       `json:"at"`
}

// AuditRecorder accepts entries without ever failing the caller.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// NopAuditRecorder discards every entry.
type NopAuditRecorder struct{}

// Record implements AuditRecorder.
func (NopAuditRecorder) Record(context.Context, AuditEntry) {}

// AuditState marshals v for the before/after columns. Values that cannot be
// encoded are recorded as absent.
func AuditState(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
