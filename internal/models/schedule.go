package models

import (
	"errors"
	"time"
)

// ErrScheduleNotFound is returned when no schedule has the requested id.
var ErrScheduleNotFound = errors.New("schedule not found")

// SoilType is the soil a schedule irrigates.
type SoilType string

const (
	SoilRed      SoilType = "Red Soil"
	SoilBlack    SoilType = "Black Soil"
	SoilAlluvial SoilType = "Alluvial Soil"
	SoilSandy    SoilType = "Sandy Soil"
	SoilClay     SoilType = "Clay Soil"
)

// SoilTypes lists the soil types offered by the dashboard, in display order.
var SoilTypes = []SoilType{SoilRed, SoilBlack, SoilAlluvial, SoilSandy, SoilClay}

func (s SoilType) Valid() bool {
	for _, t := range SoilTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Vegetation is the crop planted under a schedule.
type Vegetation string

const (
	VegetationRice    Vegetation = "Rice"
	VegetationWheat   Vegetation = "Wheat"
	VegetationMaize   Vegetation = "Maize"
	VegetationCorn    Vegetation = "Corn"
	VegetationPeanuts Vegetation = "Peanuts"
)

var Vegetations = []Vegetation{VegetationRice, VegetationWheat, VegetationMaize, VegetationCorn, VegetationPeanuts}

func (v Vegetation) Valid() bool {
	for _, t := range Vegetations {
		if v == t {
			return true
		}
	}
	return false
}

// Window is an hour-of-day interval [StartHour, EndHour) during which irrigation runs.
// A nil bound means the value has not been entered yet.
type Window struct {
	StartHour *int `json:"start_hour"`
	EndHour   *int `json:"end_hour"`
}

// Hour returns a pointer to h, for building windows.
func Hour(h int) *int { return &h }

// NewWindow returns a fully set window.
func NewWindow(start, end int) Window {
	return Window{StartHour: Hour(start), EndHour: Hour(end)}
}

// Complete reports whether both bounds are set.
func (w Window) Complete() bool {
	return w.StartHour != nil && w.EndHour != nil
}

// Bounds returns the start and end hour. Only meaningful when Complete.
func (w Window) Bounds() (start, end int) {
	if w.StartHour != nil {
		start = *w.StartHour
	}
	if w.EndHour != nil {
		end = *w.EndHour
	}
	return start, end
}

// Duration returns the number of hours covered by a complete window.
func (w Window) Duration() int {
	if !w.Complete() {
		return 0
	}
	start, end := w.Bounds()
	return end - start
}

// Schedule is a dated, multi-window irrigation plan for one soil/vegetation combination.
type Schedule struct {
	ID         string     `json:"id"`
	SoilType   SoilType   `json:"soil_type"`
	Vegetation Vegetation `json:"vegetation"`
	StartDate  Date       `json:"start_date"`
	EndDate    Date       `json:"end_date"`
	Windows    []Window   `json:"windows"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TimelinePoint is one (date, hour) sample of an expanded schedule window.
type TimelinePoint struct {
	Date       Date       `json:"date"`
	Hour       int        `json:"hour"`
	ScheduleID string     `json:"schedule_id"`
	SoilType   SoilType   `json:"soil_type"`
	Vegetation Vegetation `json:"vegetation"`
}
