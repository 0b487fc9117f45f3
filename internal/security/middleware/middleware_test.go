package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurtureapp/nurture-api/internal/security/audit"
	"github.com/nurtureapp/nurture-api/internal/security/ratelimit"
)

func newAuditMux(buf *bytes.Buffer) http.Handler {
	auditLog := audit.NewLogger(slog.New(slog.NewJSONHandler(buf, nil)))

	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	mux.HandleFunc("DELETE /plants/{id}", ok)
	mux.HandleFunc("PUT /plants/{id}", ok)
	mux.HandleFunc("DELETE /plants/{id}/reminders/{rid}", ok)
	mux.HandleFunc("DELETE /devices/{token}", ok)
	mux.HandleFunc("GET /plants", ok)

	return AuditMiddleware(auditLog)(mux)
}

func lastAuditRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestAuditMiddlewareResolvesPlantID(t *testing.T) {
	var buf bytes.Buffer
	handler := newAuditMux(&buf)

	req := httptest.NewRequest(http.MethodDelete, "/plants/plant-42", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	record := lastAuditRecord(t, &buf)
	assert.Equal(t, "delete", record["action"])
	assert.Equal(t, "plant", record["resource"])
	assert.Equal(t, "plant-42", record["resource_id"])
	assert.Equal(t, "completed", record["status"])
}

func TestAuditMiddlewareResolvesReminderID(t *testing.T) {
	var buf bytes.Buffer
	handler := newAuditMux(&buf)

	req := httptest.NewRequest(http.MethodDelete, "/plants/plant-42/reminders/rem-7", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	record := lastAuditRecord(t, &buf)
	assert.Equal(t, "reminder", record["resource"])
	assert.Equal(t, "rem-7", record["resource_id"])
}

func TestAuditMiddlewareResolvesDeviceToken(t *testing.T) {
	var buf bytes.Buffer
	handler := newAuditMux(&buf)

	req := httptest.NewRequest(http.MethodDelete, "/devices/tok-123", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	record := lastAuditRecord(t, &buf)
	assert.Equal(t, "device", record["resource"])
	assert.Equal(t, "tok-123", record["resource_id"])
}

func TestAuditMiddlewareSkipsReads(t *testing.T) {
	var buf bytes.Buffer
	handler := newAuditMux(&buf)

	req := httptest.NewRequest(http.MethodGet, "/plants", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Zero(t, buf.Len())
}

func TestRateLimitIdentifyChargesBothBudgets(t *testing.T) {
	limiter := ratelimit.NewLimiter(2, time.Minute)
	defer limiter.Stop()

	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := RateLimitMiddleware(limiter, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	as := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req = req.WithContext(context.WithValue(req.Context(), UserContextKey{}, "user-1"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// An identify call consumes a slot from the general allowance too, so
	// after one identify only one general request remains.
	assert.Equal(t, http.StatusOK, as(http.MethodPost, "/identify"))
	assert.Equal(t, http.StatusOK, as(http.MethodGet, "/plants"))
	assert.Equal(t, http.StatusTooManyRequests, as(http.MethodGet, "/plants"))
}
