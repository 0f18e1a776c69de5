package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/crucial707/irrigation-dashboard/internal/irrigation"
	"github.com/crucial707/irrigation-dashboard/internal/models"
)

// windowRow is one irrigation window row of the create form as the user typed it.
type windowRow struct {
	Start string
	End   string
	Error string
}

// scheduleForm is the create-schedule form state, re-rendered on every round trip.
type scheduleForm struct {
	SoilType   string
	Vegetation string
	StartDate  string
	EndDate    string
	Windows    []windowRow
	Errors     map[string]string
}

func newScheduleForm() scheduleForm {
	return scheduleForm{Windows: []windowRow{{}}, Errors: map[string]string{}}
}

// parseScheduleForm reads the posted form. Window rows come as parallel window_start
// and window_end values.
func parseScheduleForm(r *http.Request) scheduleForm {
	f := scheduleForm{
		SoilType:   strings.TrimSpace(r.FormValue("soil_type")),
		Vegetation: strings.TrimSpace(r.FormValue("vegetation")),
		StartDate:  strings.TrimSpace(r.FormValue("start_date")),
		EndDate:    strings.TrimSpace(r.FormValue("end_date")),
		Errors:     map[string]string{},
	}
	starts, ends := r.Form["window_start"], r.Form["window_end"]
	n := max(len(starts), len(ends))
	for i := 0; i < n; i++ {
		var row windowRow
		if i < len(starts) {
			row.Start = strings.TrimSpace(starts[i])
		}
		if i < len(ends) {
			row.End = strings.TrimSpace(ends[i])
		}
		f.Windows = append(f.Windows, row)
	}
	if len(f.Windows) == 0 {
		f.Windows = []windowRow{{}}
	}
	return f
}

func (f *scheduleForm) addWindow() {
	f.Windows = append(f.Windows, windowRow{})
}

func (f *scheduleForm) removeWindow(i int) {
	if i < 0 || i >= len(f.Windows) || len(f.Windows) == 1 {
		return
	}
	f.Windows = append(f.Windows[:i], f.Windows[i+1:]...)
}

// windows replays every typed hour as a single edit through irrigation.ValidateWindowEdit,
// in row order, so each row is checked against the rows before it. Rejected edits leave
// the field unset and put the reason on the row.
func (f *scheduleForm) windows() ([]models.Window, bool) {
	list := make([]models.Window, len(f.Windows))
	ok := true
	for i := range f.Windows {
		row := &f.Windows[i]
		row.Error = ""
		for _, edit := range []struct {
			field irrigation.Field
			raw   string
		}{
			{irrigation.FieldStartHour, row.Start},
			{irrigation.FieldEndHour, row.End},
		} {
			value, err := parseHour(edit.raw)
			if err != nil {
				row.Error = err.Error()
				ok = false
				continue
			}
			updated, err := irrigation.ValidateWindowEdit(list, i, edit.field, value)
			if err != nil {
				row.Error = editMessage(err)
				ok = false
				continue
			}
			list = updated
		}
		if row.Error == "" && !list[i].Complete() {
			row.Error = "start and end hour are required"
			ok = false
		}
	}
	return list, ok
}

func parseHour(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, errors.New("hour must be a whole number")
	}
	return models.Hour(n), nil
}

func editMessage(err error) string {
	switch {
	case errors.Is(err, irrigation.ErrOverlap):
		return irrigation.ErrOverlap.Error()
	case errors.Is(err, irrigation.ErrInvalidRange):
		_, msg, found := strings.Cut(err.Error(), ": ")
		if found {
			return msg
		}
		return err.Error()
	case errors.Is(err, irrigation.ErrHourRange):
		return irrigation.ErrHourRange.Error()
	}
	return err.Error()
}

// payload builds the API body for a validated form.
func (f *scheduleForm) payload(windows []models.Window) map[string]interface{} {
	return map[string]interface{}{
		"soil_type":  f.SoilType,
		"vegetation": f.Vegetation,
		"start_date": f.StartDate,
		"end_date":   f.EndDate,
		"windows":    windows,
	}
}
