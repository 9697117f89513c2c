package backup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stallbook/stallbook/internal/audit"
	"github.com/stallbook/stallbook/internal/platform/httpx"
	"github.com/stallbook/stallbook/internal/shared"
)

type stubHistory struct {
	limit int
}

func (s *stubHistory) BackupHistory(_ context.Context, _ int64, limit int) ([]audit.BackupEvent, error) {
	s.limit = limit
	return []audit.BackupEvent{{ID: 3, Kind: audit.BackupRestored, Description: "backup restored"}}, nil
}

func newTestHandler(h *harness, history HistorySource, maxBytes int64) http.Handler {
	handler := NewHandler(quietLogger(), h.builder, h.restorer, history, maxBytes)
	handler.now = func() time.Time { return time.UnixMilli(1715000000000) }
	r := chi.NewRouter()
	r.Route("/backup", handler.MountRoutes)
	return r
}

func do(router http.Handler, method, target, body string, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID > 0 {
		req = req.WithContext(shared.ContextWithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) httpx.Envelope {
	t.Helper()
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHandleExportSendsAttachment(t *testing.T) {
	h := newHarness()
	h.store.seed(1, sampleGraph())

	rec := do(newTestHandler(h, &stubHistory{}, 0), http.MethodPost, "/backup/export", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename=backup_1_1715000000000.json`, rec.Header().Get("Content-Disposition"))

	var doc Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, FormatVersion, doc.Version)
	require.Equal(t, sampleGraph().products[0].Name, doc.Data.Products[0].Name)
	require.Len(t, doc.Data.FairReportItems, 2)
}

func TestHandleRestoreRoundTripsExport(t *testing.T) {
	h := newHarness()
	h.store.seed(1, sampleGraph())
	router := newTestHandler(h, &stubHistory{}, 0)

	exported := do(router, http.MethodPost, "/backup/export", "", 1)
	require.Equal(t, http.StatusOK, exported.Code)

	rec := do(router, http.MethodPost, "/backup/restore", exported.Body.String(), 1)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Success bool          `json:"success"`
		Data    RestoreResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, Counts{Products: 2, Purchases: 2, Sales: 2, Investments: 1, FairReports: 1, FairReportItems: 2}, body.Data.Counts)
}

func TestHandleRestoreRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		maxBytes int64
		status   int
		code     string
	}{
		{"not json", "{not json", 0, http.StatusBadRequest, CodeInvalidFormat},
		{"missing version", `{"data":{}}`, 0, http.StatusBadRequest, CodeInvalidFormat},
		{"unsupported version", `{"version":"9.9","data":{}}`, 0, http.StatusBadRequest, CodeInvalidFormat},
		{"missing data", `{"version":"1.0"}`, 0, http.StatusBadRequest, CodeInvalidFormat},
		{"too large", `{"version":"1.0","data":{"products":[]}}`, 8, http.StatusRequestEntityTooLarge, CodeTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			h.store.seed(1, sampleGraph())

			rec := do(newTestHandler(h, &stubHistory{}, tc.maxBytes), http.MethodPost, "/backup/restore", tc.body, 1)
			require.Equal(t, tc.status, rec.Code)
			env := envelope(t, rec)
			require.False(t, env.Success)
			require.Equal(t, tc.code, env.Code)
			require.Zero(t, h.store.txBegun)
			require.Len(t, h.store.graph(1).products, 2)
		})
	}
}

func TestHandleRestoreFailureIsInternal(t *testing.T) {
	h := newHarness()
	h.store.seed(1, sampleGraph())
	h.store.failOn = "sale"

	rec := do(newTestHandler(h, &stubHistory{}, 0), http.MethodPost, "/backup/restore",
		`{"version":"1.0","data":{"sales":[{"id":1,"quantity":1}]}}`, 1)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env := envelope(t, rec)
	require.Equal(t, CodeRestoreError, env.Code)
	require.NotContains(t, env.Message, "injected")
}

func TestHandleHistory(t *testing.T) {
	h := newHarness()
	history := &stubHistory{}
	router := newTestHandler(h, history, 0)

	rec := do(router, http.MethodGet, "/backup/history?limit=3", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, history.limit)

	rec = do(router, http.MethodGet, "/backup/history?limit=abc", "", 1)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlersRequireUser(t *testing.T) {
	h := newHarness()
	rec := do(newTestHandler(h, &stubHistory{}, 0), http.MethodPost, "/backup/export", "", 0)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
