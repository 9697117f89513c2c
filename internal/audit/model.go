package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stallbook/stallbook/internal/shared"
)

// Record adalah baris audit_records yang sudah tersimpan.
type Record struct {
	ID          int64           `json:"id"`
	EventID     uuid.UUID       `json:"event_id"`
	UserID      *int64          `json:"user_id,omitempty"`
	Action      string          `json:"action"`
	Entity      string          `json:"entity"`
	EntityID    *int64          `json:"entity_id,omitempty"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
	Origin      *string         `json:"origin,omitempty"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Filters membatasi daftar audit. Page.Limit <= 0 berarti tanpa paging.
type Filters struct {
	Entity string
	Action string
	Period *shared.Period
	Page   shared.PageRequest
}

// ActionCount menghitung jumlah record per aksi.
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// Summary merangkum aktivitas bulan berjalan.
type Summary struct {
	Month   int           `json:"month"`
	Year    int           `json:"year"`
	Total   int           `json:"total"`
	Actions []ActionCount `json:"actions"`
}

// Backup event kinds.
const (
	BackupCreated  = "created"
	BackupRestored = "restored"
)

// BackupEvent adalah satu entri riwayat backup.
type BackupEvent struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Origin      *string   `json:"origin,omitempty"`
	At          time.Time `json:"at"`
}
