package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/go-chi/chi/v5"
)

// fakeAPI is a minimal stand-in for cmd/api that records write calls.
type fakeAPI struct {
	mu        sync.Mutex
	theme     string
	schedules []models.Schedule
	posted    []map[string]interface{}
	decisions []string
	deleted   []string
	noSensor  bool
}

func (f *fakeAPI) handler() http.Handler {
	r := chi.NewRouter()
	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	r.Get("/settings/theme", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, 200, map[string]string{"theme": f.theme})
	})
	r.Post("/settings/theme/toggle", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.theme == "dark" {
			f.theme = "light"
		} else {
			f.theme = "dark"
		}
		writeJSON(w, 200, map[string]string{"theme": f.theme})
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "watering"})
	})
	r.Get("/sensor", func(w http.ResponseWriter, r *http.Request) {
		if f.noSensor {
			writeJSON(w, 503, map[string]string{"error": "no sensor reading yet"})
			return
		}
		writeJSON(w, 200, map[string]float64{"water_level": 42, "humidity": 61, "temperature": 27.5, "soil_moisture": 33})
	})
	r.Get("/suggestion", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"water_amount_ml": 800, "duration_minutes": 48, "source": "predictor"})
	})
	r.Get("/timeline", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []models.TimelinePoint{{Date: models.MustDate("2024-06-01"), Hour: 6, ScheduleID: "a", SoilType: models.SoilRed, Vegetation: models.VegetationRice}})
	})
	r.Get("/schedules", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, 200, f.schedules)
	})
	r.Post("/schedules", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.posted = append(f.posted, body)
		if body["vegetation"] == "Corn" {
			writeJSON(w, 400, map[string]interface{}{"error": "validation failed", "fields": map[string]string{"end_date": "must not be before start date"}})
			return
		}
		writeJSON(w, 201, map[string]string{"id": "new"})
	})
	r.Delete("/schedules/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := chi.URLParam(r, "id")
		if id == "missing" {
			writeJSON(w, 404, map[string]string{"error": "schedule not found"})
			return
		}
		f.deleted = append(f.deleted, id)
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/suggestion/{decision}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.decisions = append(f.decisions, chi.URLParam(r, "decision"))
		writeJSON(w, 200, map[string]string{"action": chi.URLParam(r, "decision")})
	})
	return r
}

func newTestWeb(t *testing.T) (*fakeAPI, http.Handler) {
	t.Helper()
	api := &fakeAPI{theme: "light"}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return api, newRouter(srv.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHome(t *testing.T) {
	_, h := newTestWeb(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Currently Watering", "42.0%", "27.5", "800 ml", "48 minutes", "01-06-2024", "06:00", `data-theme="light"`} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
}

func TestHome_SensorOffline(t *testing.T) {
	api, h := newTestWeb(t)
	api.noSensor = true
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if !strings.Contains(rr.Body.String(), "Sensor offline") {
		t.Error("sensor error not shown")
	}
}

func TestSchedulesPage_ActiveBadge(t *testing.T) {
	api, h := newTestWeb(t)
	api.schedules = []models.Schedule{
		{ID: "future", SoilType: models.SoilClay, Vegetation: models.VegetationWheat,
			StartDate: models.MustDate("2024-01-01"), EndDate: models.MustDate("2999-01-01"),
			Windows: []models.Window{models.NewWindow(6, 9)}},
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/schedules", nil))
	body := rr.Body.String()
	for _, want := range []string{"Active", "06:00 - 09:00", "/schedules/future/delete", "Red Soil", "Peanuts"} {
		if !strings.Contains(body, want) {
			t.Errorf("schedules page missing %q", want)
		}
	}
}

func TestScheduleCreate_OverlapRejectedLocally(t *testing.T) {
	api, h := newTestWeb(t)
	form := url.Values{
		"soil_type":    {"Red Soil"},
		"vegetation":   {"Rice"},
		"start_date":   {"2024-06-01"},
		"end_date":     {"2024-06-30"},
		"window_start": {"6", "10"},
		"window_end":   {"12", "14"},
		"action":       {"save"},
	}
	rr := postForm(h, "/schedules", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "overlaps with another irrigation window") {
		t.Errorf("overlap error not shown: %s", rr.Body.String())
	}
	if len(api.posted) != 0 {
		t.Error("invalid schedule was sent to the API")
	}
}

func TestScheduleCreate_InvertedWindow(t *testing.T) {
	api, h := newTestWeb(t)
	form := url.Values{
		"soil_type": {"Red Soil"}, "vegetation": {"Rice"},
		"start_date": {"2024-06-01"}, "end_date": {"2024-06-30"},
		"window_start": {"12"}, "window_end": {"6"},
	}
	rr := postForm(h, "/schedules", form)
	if !strings.Contains(rr.Body.String(), "end hour must be greater than start hour") {
		t.Errorf("range error not shown")
	}
	if len(api.posted) != 0 {
		t.Error("invalid schedule was sent to the API")
	}
}

func TestScheduleCreate_Success(t *testing.T) {
	api, h := newTestWeb(t)
	form := url.Values{
		"soil_type": {"Sandy Soil"}, "vegetation": {"Peanuts"},
		"start_date": {"2024-06-01"}, "end_date": {"2024-06-30"},
		"window_start": {"6", "12"}, "window_end": {"12", "18"},
		"action": {"save"},
	}
	rr := postForm(h, "/schedules", form)
	if rr.Code != http.StatusFound || !strings.HasPrefix(rr.Header().Get("Location"), "/schedules?msg=") {
		t.Fatalf("expected redirect, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if len(api.posted) != 1 {
		t.Fatalf("posted = %v", api.posted)
	}
	windows, _ := api.posted[0]["windows"].([]interface{})
	if len(windows) != 2 {
		t.Errorf("windows = %v", api.posted[0]["windows"])
	}
}

func TestScheduleCreate_APIValidation(t *testing.T) {
	_, h := newTestWeb(t)
	form := url.Values{
		"soil_type": {"Clay Soil"}, "vegetation": {"Corn"},
		"start_date": {"2024-06-30"}, "end_date": {"2024-06-01"},
		"window_start": {"1"}, "window_end": {"2"},
	}
	rr := postForm(h, "/schedules", form)
	body := rr.Body.String()
	if !strings.Contains(body, "Failed to save schedule") || !strings.Contains(body, "must not be before start date") {
		t.Errorf("API validation not shown: %s", body)
	}
}

func TestScheduleCreate_AddRemoveWindow(t *testing.T) {
	api, h := newTestWeb(t)
	form := url.Values{"window_start": {"6"}, "window_end": {"8"}, "action": {"add_window"}}
	rr := postForm(h, "/schedules", form)
	if n := strings.Count(rr.Body.String(), `name="window_start"`); n != 2 {
		t.Errorf("after add: %d rows", n)
	}

	form = url.Values{"window_start": {"6", "9"}, "window_end": {"8", "10"}, "action": {"remove_window:0"}}
	rr = postForm(h, "/schedules", form)
	body := rr.Body.String()
	if n := strings.Count(body, `name="window_start"`); n != 1 || !strings.Contains(body, `value="9"`) {
		t.Errorf("after remove: %d rows", n)
	}
	if len(api.posted) != 0 {
		t.Error("row editing must not call the API")
	}
}

func TestScheduleDelete(t *testing.T) {
	api, h := newTestWeb(t)
	rr := postForm(h, "/schedules/abc/delete", url.Values{})
	if rr.Code != http.StatusFound || len(api.deleted) != 1 || api.deleted[0] != "abc" {
		t.Errorf("delete: %d %v", rr.Code, api.deleted)
	}

	rr = postForm(h, "/schedules/missing/delete", url.Values{})
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "schedule not found") {
		t.Errorf("failed delete not shown: %d", rr.Code)
	}
}

func TestSuggestionDecision(t *testing.T) {
	api, h := newTestWeb(t)
	rr := postForm(h, "/suggestion/accept", url.Values{"water_amount_ml": {"800"}, "duration_minutes": {"48"}})
	if rr.Code != http.StatusFound || !strings.Contains(rr.Header().Get("Location"), url.QueryEscape("Accepted: 800ml for 48 minutes")) {
		t.Errorf("accept redirect: %d %q", rr.Code, rr.Header().Get("Location"))
	}
	postForm(h, "/suggestion/reject", url.Values{})
	if len(api.decisions) != 2 || api.decisions[0] != "accept" || api.decisions[1] != "reject" {
		t.Errorf("decisions = %v", api.decisions)
	}

	rr = postForm(h, "/suggestion/maybe", url.Values{})
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown decision: %d", rr.Code)
	}
}

func TestThemeToggle(t *testing.T) {
	_, h := newTestWeb(t)
	rr := postForm(h, "/settings/theme", url.Values{})
	if rr.Code != http.StatusFound {
		t.Fatalf("toggle: %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/settings", nil))
	body := rr.Body.String()
	if !strings.Contains(body, `data-theme="dark"`) || !strings.Contains(body, "Currently enabled") {
		t.Errorf("dark theme not rendered")
	}
}

func TestAboutAndHealth(t *testing.T) {
	_, h := newTestWeb(t)
	for _, path := range []string{"/about", "/health"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: %d", path, rr.Code)
		}
	}
}
