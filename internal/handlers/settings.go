package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/crucial707/irrigation-dashboard/internal/settings"
)

// GetTheme returns {"theme": "light"|"dark"}.
func GetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]settings.Theme{"theme": settings.Current()})
}

// SetTheme sets the theme. Body: {"theme": "dark"}.
func SetTheme(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	t, err := settings.ParseTheme(input.Theme)
	if err != nil {
		JSONValidationError(w, "validation failed", map[string]string{"theme": "must be light or dark"}, http.StatusBadRequest)
		return
	}
	settings.Set(t)
	writeJSON(w, http.StatusOK, map[string]settings.Theme{"theme": t})
}

// ToggleTheme flips the theme.
func ToggleTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]settings.Theme{"theme": settings.Toggle()})
}
