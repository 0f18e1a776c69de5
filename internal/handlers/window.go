package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crucial707/irrigation-dashboard/internal/irrigation"
	"github.com/crucial707/irrigation-dashboard/internal/models"
)

// ValidateWindowEdit checks a single hour edit against the other windows of a draft schedule.
// Body: {"windows": [...], "index": 0, "field": "start_hour", "value": 6}. A null value clears the field.
func ValidateWindowEdit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Windows []models.Window `json:"windows"`
		Index   *int            `json:"index"`
		Field   string          `json:"field"`
		Value   *int            `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	fields := make(map[string]string)
	if input.Index == nil {
		fields["index"] = "required"
	}
	field, err := irrigation.ParseField(input.Field)
	if err != nil {
		fields["field"] = "must be start_hour or end_hour"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	updated, err := irrigation.ValidateWindowEdit(input.Windows, *input.Index, field, input.Value)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]interface{}{"windows": updated})
	case errors.Is(err, irrigation.ErrInvalidRange):
		JSONCodeError(w, err.Error(), "invalid_range", http.StatusUnprocessableEntity)
	case errors.Is(err, irrigation.ErrOverlap):
		JSONCodeError(w, err.Error(), "overlap", http.StatusUnprocessableEntity)
	default:
		JSONError(w, err.Error(), http.StatusBadRequest)
	}
}
