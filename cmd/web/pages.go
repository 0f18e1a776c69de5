package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/irrigation"
	"github.com/crucial707/irrigation-dashboard/internal/models"
	"github.com/go-chi/chi/v5"
)

type sensorView struct {
	WaterLevel   float64 `json:"water_level"`
	Humidity     float64 `json:"humidity"`
	Temperature  float64 `json:"temperature"`
	SoilMoisture float64 `json:"soil_moisture"`
}

type suggestionView struct {
	WaterAmountML   int    `json:"water_amount_ml"`
	DurationMinutes int    `json:"duration_minutes"`
	Source          string `json:"source"`
}

func home(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]interface{}{"Message": r.URL.Query().Get("msg")}

		var status struct {
			Status string `json:"status"`
		}
		if err := getJSON(apiBase, "/status", &status); err != nil {
			data["StatusError"] = err.Error()
		}
		data["Watering"] = status.Status == "watering"

		var sensor sensorView
		if err := getJSON(apiBase, "/sensor", &sensor); err != nil {
			data["SensorError"] = "Sensor offline: " + err.Error()
		} else {
			data["Sensor"] = sensor
		}

		var suggestion suggestionView
		if err := getJSON(apiBase, "/suggestion", &suggestion); err != nil {
			suggestion = suggestionView{WaterAmountML: 500, DurationMinutes: 30, Source: "default"}
		}
		data["Suggestion"] = suggestion

		var timeline []models.TimelinePoint
		if err := getJSON(apiBase, "/timeline", &timeline); err != nil {
			data["TimelineError"] = err.Error()
		}
		data["Timeline"] = timeline

		render(w, apiBase, "home.html", data)
	}
}

func suggestionDecision(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decision := chi.URLParam(r, "decision")
		if decision != "accept" && decision != "reject" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		amount, _ := strconv.Atoi(r.FormValue("water_amount_ml"))
		minutes, _ := strconv.Atoi(r.FormValue("duration_minutes"))
		body, _ := json.Marshal(map[string]int{"water_amount_ml": amount, "duration_minutes": minutes})

		msg := "Suggestion rejected"
		if decision == "accept" {
			msg = "Accepted: " + strconv.Itoa(amount) + "ml for " + strconv.Itoa(minutes) + " minutes"
		}
		data, status, err := apiPost(apiBase, "/suggestion/"+decision, body)
		switch {
		case err != nil:
			msg = "Cannot reach API: " + err.Error()
		case status != http.StatusOK:
			msg = "Failed to record decision: " + errorMessage(data)
		}
		http.Redirect(w, r, "/?msg="+url.QueryEscape(msg), http.StatusFound)
	}
}

type scheduleView struct {
	models.Schedule
	Active bool
}

// loadSchedules fetches the collection and marks the schedules that have not ended yet.
func loadSchedules(apiBase string, now time.Time) ([]scheduleView, error) {
	var list []models.Schedule
	if err := getJSON(apiBase, "/schedules", &list); err != nil {
		return nil, err
	}
	out := make([]scheduleView, len(list))
	for i, s := range list {
		out[i] = scheduleView{Schedule: s, Active: irrigation.Active(s, now)}
	}
	return out, nil
}

func schedulesPage(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderSchedules(w, apiBase, newScheduleForm(), r.URL.Query().Get("msg"), "")
	}
}

func renderSchedules(w http.ResponseWriter, apiBase string, form scheduleForm, msg, errMsg string) {
	data := map[string]interface{}{
		"Form":        form,
		"SoilTypes":   models.SoilTypes,
		"Vegetations": models.Vegetations,
		"Message":     msg,
		"Error":       errMsg,
	}
	list, err := loadSchedules(apiBase, time.Now())
	if err != nil {
		data["ListError"] = "Failed to load schedules: " + err.Error()
	}
	data["Schedules"] = list
	render(w, apiBase, "schedules.html", data)
}

func scheduleCreate(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		form := parseScheduleForm(r)

		action := r.FormValue("action")
		switch {
		case action == "add_window":
			form.addWindow()
			renderSchedules(w, apiBase, form, "", "")
			return
		case strings.HasPrefix(action, "remove_window:"):
			i, _ := strconv.Atoi(strings.TrimPrefix(action, "remove_window:"))
			form.removeWindow(i)
			renderSchedules(w, apiBase, form, "", "")
			return
		}

		if form.SoilType == "" || form.Vegetation == "" || form.StartDate == "" || form.EndDate == "" {
			form.windows()
			renderSchedules(w, apiBase, form, "", "Please fill in all required fields")
			return
		}
		windows, ok := form.windows()
		if !ok {
			renderSchedules(w, apiBase, form, "", "Please fix the irrigation windows")
			return
		}

		body, _ := json.Marshal(form.payload(windows))
		data, status, err := apiPost(apiBase, "/schedules", body)
		if err != nil {
			renderSchedules(w, apiBase, form, "", "Cannot reach API: "+err.Error())
			return
		}
		if status != http.StatusCreated {
			apiErr := decodeAPIError(status, data)
			form.Errors = apiErr.Fields
			renderSchedules(w, apiBase, form, "", "Failed to save schedule: "+apiErr.Message)
			return
		}
		http.Redirect(w, r, "/schedules?msg="+url.QueryEscape("Schedule saved"), http.StatusFound)
	}
}

func scheduleDelete(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		data, status, err := apiDelete(apiBase, "/schedules/"+url.PathEscape(id))
		if err != nil {
			renderSchedules(w, apiBase, newScheduleForm(), "", "Cannot reach API: "+err.Error())
			return
		}
		if status != http.StatusNoContent {
			renderSchedules(w, apiBase, newScheduleForm(), "", "Failed to delete schedule: "+errorMessage(data))
			return
		}
		http.Redirect(w, r, "/schedules?msg="+url.QueryEscape("Schedule deleted"), http.StatusFound)
	}
}

func settingsPage(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, apiBase, "settings.html", map[string]interface{}{"Error": r.URL.Query().Get("error")})
	}
}

func themeToggle(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, status, err := apiPost(apiBase, "/settings/theme/toggle", nil)
		if err != nil {
			http.Redirect(w, r, "/settings?error="+url.QueryEscape("Cannot reach API: "+err.Error()), http.StatusFound)
			return
		}
		if status != http.StatusOK {
			http.Redirect(w, r, "/settings?error="+url.QueryEscape(errorMessage(data)), http.StatusFound)
			return
		}
		http.Redirect(w, r, "/settings", http.StatusFound)
	}
}

func about(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, apiBase, "about.html", nil)
	}
}
