package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/crucial707/irrigation-dashboard/internal/monitor"
	"github.com/crucial707/irrigation-dashboard/internal/repo"
	"github.com/crucial707/irrigation-dashboard/internal/sensor"
	"github.com/crucial707/irrigation-dashboard/internal/store"
	"github.com/go-chi/chi/v5"
)

// requestWithChiURLParams builds a request with chi URL params set (for handlers that use chi.URLParam).
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var scheduleCols = []string{"id", "soil_type", "vegetation", "start_date", "end_date", "windows", "created_at"}

// newMockStore returns a store backed by a sqlmock database, loaded with the given rows.
func newMockStore(t *testing.T, rows *sqlmock.Rows) (*store.ScheduleStore, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if rows == nil {
		rows = sqlmock.NewRows(scheduleCols)
	}
	mock.ExpectQuery(`SELECT id, soil_type, vegetation, start_date, end_date, windows, created_at FROM schedules`).
		WillReturnRows(rows)

	s := store.New(repo.NewScheduleRepo(db), quietLogger())
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return s, db, mock
}

type fixedStatus monitor.Status

func (f fixedStatus) Status() monitor.Status { return monitor.Status(f) }

type fixedReading struct {
	reading sensor.Reading
	ok      bool
}

func (f fixedReading) Latest() (sensor.Reading, bool) { return f.reading, f.ok }

type staticSchedules []models.Schedule

func (s staticSchedules) List() []models.Schedule { return s }

type auditCall struct {
	action, resourceType, resourceID, details string
}

type recordingAuditor struct {
	calls []auditCall
	err   error
}

func (a *recordingAuditor) Log(_ context.Context, action, resourceType, resourceID, details string) error {
	a.calls = append(a.calls, auditCall{action, resourceType, resourceID, details})
	return a.err
}

var june2024 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
