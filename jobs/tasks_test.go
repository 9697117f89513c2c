package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

type captureSink struct {
	entries []shared.AuditEntry
	err     error
}

func (s *captureSink) Write(_ context.Context, entry shared.AuditEntry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func TestAuditRecordTaskRoundTrip(t *testing.T) {
	entry := shared.AuditEntry{
		EventID:     uuid.New(),
		UserID:      shared.Int64Ptr(3),
		Action:      shared.ActionBackupRestore,
		Entity:      shared.EntityBackup,
		After:       json.RawMessage(`{"restored_at":"2024-05-01T10:00:00Z"}`),
		Description: "backup restored",
	}
	task, err := NewAuditRecordTask(entry)
	require.NoError(t, err)
	require.Equal(t, TaskAuditRecord, task.Type())

	sink := &captureSink{}
	require.NoError(t, NewAuditRecordHandler(sink).Handle(context.Background(), task))
	require.Len(t, sink.entries, 1)
	require.Equal(t, entry.EventID, sink.entries[0].EventID)
	require.JSONEq(t, string(entry.After), string(sink.entries[0].After))
}

func TestAuditRecordHandlerSkipsBadPayload(t *testing.T) {
	h := NewAuditRecordHandler(&captureSink{})

	err := h.Handle(context.Background(), asynq.NewTask(TaskAuditRecord, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = h.Handle(context.Background(), asynq.NewTask(TaskAuditRecord, []byte(`{"action":""}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestAuditRecordHandlerRetriesSinkFailure(t *testing.T) {
	boom := errors.New("db down")
	task, err := NewAuditRecordTask(shared.AuditEntry{EventID: uuid.New(), Action: "SALE", Entity: "sale"})
	require.NoError(t, err)

	err = NewAuditRecordHandler(&captureSink{err: boom}).Handle(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

type stubInspector struct {
	infos map[string]*asynq.QueueInfo
	err   error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	if info, ok := s.infos[queue]; ok {
		return info, nil
	}
	return nil, asynq.ErrQueueNotFound
}

func TestHealthEndpoint(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(stubInspector{infos: map[string]*asynq.QueueInfo{
		QueueAudit: {Queue: QueueAudit, Pending: 4},
	}}, nil).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		httpx.Envelope
		Data []queueHealth `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 2)
	require.Equal(t, 4, env.Data[0].Pending)
	require.Equal(t, QueueDefault, env.Data[1].Queue)

	r = chi.NewRouter()
	r.Route("/jobs", NewHandler(stubInspector{err: errors.New("redis down")}, nil).MountRoutes)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	require.Error(t, err)

	w, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Handlers: []TaskHandler{
			{Type: TaskAuditRecord, Handler: NewAuditRecordHandler(&captureSink{}).Handle},
			{Type: "ignored"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, w)
}
