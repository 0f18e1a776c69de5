package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/irrigation"
	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/crucial707/irrigation-dashboard/internal/monitor"
	"github.com/crucial707/irrigation-dashboard/internal/sensor"
)

// ScheduleSource is the read side of the schedule store.
type ScheduleSource interface {
	List() []models.Schedule
}

// StatusSource reports the latest watering status.
type StatusSource interface {
	Status() monitor.Status
}

// ReadingSource reports the latest sensor reading.
type ReadingSource interface {
	Latest() (sensor.Reading, bool)
}

// DashboardHandler serves the read-only views of the home page.
type DashboardHandler struct {
	Schedules ScheduleSource
	Status    StatusSource
	Sensor    ReadingSource
	Now       func() time.Time
}

func (h *DashboardHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Timeline returns one point per scheduled hour of every schedule that has not ended.
// Query: now (RFC 3339, optional) evaluates the timeline at another instant.
func (h *DashboardHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	if v := r.URL.Query().Get("now"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			JSONValidationError(w, "validation failed", map[string]string{"now": "must be an RFC 3339 timestamp"}, http.StatusBadRequest)
			return
		}
		now = t
	}
	writeJSON(w, http.StatusOK, irrigation.Timeline(h.Schedules.List(), now))
}

// GetStatus returns {"status": "watering"|"offline", "watering": bool, "checked_at": ...}.
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st := h.Status.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     st.Label(),
		"watering":   st.Watering,
		"checked_at": st.CheckedAt,
	})
}

// GetSensor returns the most recent sensor reading, or 503 until the first poll succeeds.
func (h *DashboardHandler) GetSensor(w http.ResponseWriter, r *http.Request) {
	reading, ok := h.Sensor.Latest()
	if !ok {
		JSONError(w, "no sensor reading yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"water_level":   reading.WaterLevel,
		"humidity":      reading.Humidity,
		"temperature":   reading.Temperature,
		"soil_moisture": reading.SoilMoisture,
		"read_at":       reading.At,
	})
}
