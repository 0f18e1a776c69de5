package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/crucial707/irrigation-dashboard/internal/suggest"
)

// Suggester produces a watering suggestion for the given conditions.
type Suggester interface {
	Suggest(ctx context.Context, in suggest.Input) (suggest.Suggestion, error)
}

// SuggestionHandler serves the watering suggestion and records the user's decision.
type SuggestionHandler struct {
	Schedules ScheduleSource
	Sensor    ReadingSource
	Suggester Suggester
	Audit     Auditor
	Log       *slog.Logger
	Now       func() time.Time
}

func (h *SuggestionHandler) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

// GetSuggestion asks the predictor and falls back to the default suggestion when it
// is unavailable or no sensor reading exists yet.
func (h *SuggestionHandler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.current(r.Context()))
}

func (h *SuggestionHandler) current(ctx context.Context) suggest.Suggestion {
	reading, ok := h.Sensor.Latest()
	if !ok || h.Suggester == nil {
		return suggest.Default()
	}
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	in := suggest.BuildInput(reading.SensorReading, h.Schedules.List(), now)
	s, err := h.Suggester.Suggest(ctx, in)
	if err != nil {
		if errors.Is(err, suggest.ErrPredictor) {
			h.logger().Warn("predictor failed, using default suggestion", "error", err)
		} else {
			h.logger().Error("suggestion failed", "error", err)
		}
		return suggest.Default()
	}
	return s
}

// AcceptSuggestion records that the suggestion was accepted.
// Body (optional): {"water_amount_ml", "duration_minutes"}; without it the current suggestion is recorded.
func (h *SuggestionHandler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.AuditAccept)
}

// RejectSuggestion records that the suggestion was rejected.
func (h *SuggestionHandler) RejectSuggestion(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.AuditReject)
}

func (h *SuggestionHandler) decide(w http.ResponseWriter, r *http.Request, action string) {
	var s suggest.Suggestion
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if s.WaterAmountML < 0 || s.DurationMinutes < 0 {
		JSONValidationError(w, "validation failed", map[string]string{"water_amount_ml": "must not be negative"}, http.StatusBadRequest)
		return
	}
	if s.WaterAmountML == 0 && s.DurationMinutes == 0 {
		s = h.current(r.Context())
	}

	details := fmt.Sprintf("%dml for %d minutes", s.WaterAmountML, s.DurationMinutes)
	if h.Audit != nil {
		if err := h.Audit.Log(r.Context(), action, models.ResourceSuggestion, "", details); err != nil {
			h.logger().Error("audit log failed", "action", action, "error", err)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"action":     action,
		"suggestion": s,
	})
}
