package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/crucial707/irrigation-dashboard/internal/irrigation"
	"github.com/crucial707/irrigation-dashboard/internal/metrics"
	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/crucial707/irrigation-dashboard/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Auditor records user actions. Failures are logged, never returned to the client.
type Auditor interface {
	Log(ctx context.Context, action, resourceType, resourceID, details string) error
}

// ScheduleFinder reads a single schedule from the database.
type ScheduleFinder interface {
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
}

// ScheduleHandler serves the shared schedule collection.
// Finder is optional; when set, GetSchedule falls back to it for ids the store does not hold.
type ScheduleHandler struct {
	Store  *store.ScheduleStore
	Finder ScheduleFinder
	Audit  Auditor
	Log    *slog.Logger
}

var validate = newValidator()

// newValidator treats a zero models.Date as empty so "required" applies to dates.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		d, ok := field.Interface().(models.Date)
		if !ok || d.IsZero() {
			return ""
		}
		return d.String()
	}, models.Date{})
	return v
}

type windowInput struct {
	StartHour *int `json:"start_hour" validate:"required,min=0,max=23"`
	EndHour   *int `json:"end_hour" validate:"required,min=0,max=23"`
}

type scheduleInput struct {
	SoilType   string        `json:"soil_type" validate:"required,oneof='Red Soil' 'Black Soil' 'Alluvial Soil' 'Sandy Soil' 'Clay Soil'"`
	Vegetation string        `json:"vegetation" validate:"required,oneof=Rice Wheat Maize Corn Peanuts"`
	StartDate  models.Date   `json:"start_date" validate:"required"`
	EndDate    models.Date   `json:"end_date" validate:"required"`
	Windows    []windowInput `json:"windows" validate:"required,min=1,dive"`
}

func (in scheduleInput) schedule() models.Schedule {
	s := models.Schedule{
		SoilType:   models.SoilType(in.SoilType),
		Vegetation: models.Vegetation(in.Vegetation),
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Windows:    make([]models.Window, len(in.Windows)),
	}
	for i, w := range in.Windows {
		s.Windows[i] = models.Window{StartHour: w.StartHour, EndHour: w.EndHour}
	}
	return s
}

// ListSchedules returns the current collection, newest first.
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.List())
}

// GetSchedule returns one schedule by id.
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s, ok := h.Store.Get(id); ok {
		writeJSON(w, http.StatusOK, s)
		return
	}
	if h.Finder == nil || store.IsTemp(id) {
		JSONError(w, "schedule not found", http.StatusNotFound)
		return
	}

	s, err := h.Finder.GetByID(r.Context(), id)
	if err != nil {
		h.logger().Error("schedule lookup failed", "id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if s == nil {
		JSONError(w, "schedule not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreateSchedule validates and persists a new schedule.
// Body: {"soil_type","vegetation","start_date","end_date","windows":[{"start_hour","end_hour"}]}.
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var input scheduleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		JSONValidationError(w, "validation failed", validationFields(err), http.StatusBadRequest)
		return
	}

	sched := input.schedule()
	if err := irrigation.ValidateSchedule(sched); err != nil {
		var verr *irrigation.ValidationError
		if errors.As(err, &verr) {
			JSONValidationError(w, "validation failed", verr.Fields, http.StatusBadRequest)
			return
		}
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := h.Store.Create(r.Context(), sched)
	if err != nil {
		h.storeFailure(w, "create", err)
		return
	}
	h.audit(r.Context(), models.AuditCreate, saved.ID,
		fmt.Sprintf("%s / %s, %s to %s", saved.SoilType, saved.Vegetation, saved.StartDate, saved.EndDate))

	writeJSON(w, http.StatusCreated, saved)
}

// DeleteSchedule removes a schedule. The store restores it when the backend fails.
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if store.IsTemp(id) {
		JSONError(w, "schedule is still being saved", http.StatusConflict)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			JSONError(w, "schedule not found", http.StatusNotFound)
			return
		}
		h.storeFailure(w, "delete", err)
		return
	}
	h.audit(r.Context(), models.AuditDelete, id, "")
	w.WriteHeader(http.StatusNoContent)
}

// RefreshSchedules reloads the collection from the database.
func (h *ScheduleHandler) RefreshSchedules(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Refresh(r.Context()); err != nil {
		h.storeFailure(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.List())
}

func (h *ScheduleHandler) storeFailure(w http.ResponseWriter, op string, err error) {
	metrics.IncStoreErrors(op)
	h.logger().Error("schedule store failure", "op", op, "error", err)
	var serr *store.StoreError
	if errors.As(err, &serr) {
		JSONError(w, "failed to "+op+" schedule", http.StatusBadGateway)
		return
	}
	JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
}

func (h *ScheduleHandler) audit(ctx context.Context, action, id, details string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Log(ctx, action, models.ResourceSchedule, id, details); err != nil {
		h.logger().Warn("audit log failed", "action", action, "id", id, "error", err)
	}
}

func (h *ScheduleHandler) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

// validationFields maps validator errors to the JSON field names clients send.
func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := jsonPath(fe.Namespace())
		if _, ok := fields[key]; ok {
			continue
		}
		switch fe.Tag() {
		case "required":
			fields[key] = "required"
		case "oneof":
			fields[key] = "must be one of " + strings.ReplaceAll(fe.Param(), "'", "")
		case "min", "max":
			fields[key] = fe.Tag() + " " + fe.Param()
		default:
			fields[key] = "invalid"
		}
	}
	return fields
}

var fieldNames = map[string]string{
	"SoilType":   "soil_type",
	"Vegetation": "vegetation",
	"StartDate":  "start_date",
	"EndDate":    "end_date",
	"Windows":    "windows",
	"StartHour":  "start_hour",
	"EndHour":    "end_hour",
}

// jsonPath turns "scheduleInput.Windows[0].StartHour" into "windows[0].start_hour".
func jsonPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		name, idx, _ := strings.Cut(p, "[")
		if n, ok := fieldNames[name]; ok {
			name = n
		}
		if idx != "" {
			name += "[" + idx
		}
		parts[i] = name
	}
	return strings.Join(parts, ".")
}
