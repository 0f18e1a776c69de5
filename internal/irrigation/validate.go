// Package irrigation holds the pure decision logic of the dashboard: window edit
// validation, schedule validation, the "is watering now" gate and timeline expansion.
// Nothing in here performs I/O or keeps state.
package irrigation

import (
	"fmt"
	"slices"

	"github.com/crucial707/irrigation-dashboard/internal/models"
)

// Field names one bound of a window.
type Field string

const (
	FieldStartHour Field = "start_hour"
	FieldEndHour   Field = "end_hour"
)

// ParseField accepts the JSON names as well as the camelCase names used by browser forms.
func ParseField(s string) (Field, error) {
	switch s {
	case "start_hour", "startHour":
		return FieldStartHour, nil
	case "end_hour", "endHour":
		return FieldEndHour, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
}

// ValidateWindowEdit decides whether setting field of existing[index] to value is allowed.
//
// A nil value, or an edit that leaves the counterpart bound unset, is always accepted so
// partial input is possible mid-entry. Otherwise the edited window must satisfy start < end
// and must not overlap any other complete window in the list.
//
// On success the returned list is a copy of existing with only that one field replaced.
// existing is never modified.
func ValidateWindowEdit(existing []models.Window, index int, field Field, value *int) ([]models.Window, error) {
	if index < 0 || index >= len(existing) {
		return nil, fmt.Errorf("%w: %d", ErrWindowIndex, index)
	}
	if field != FieldStartHour && field != FieldEndHour {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	if value != nil && (*value < 0 || *value > 23) {
		return nil, ErrHourRange
	}

	edited := existing[index]
	var v *int
	if value != nil {
		v = models.Hour(*value)
	}
	if field == FieldStartHour {
		edited.StartHour = v
	} else {
		edited.EndHour = v
	}

	updated := slices.Clone(existing)
	updated[index] = edited

	if value == nil || !edited.Complete() {
		return updated, nil
	}

	start, end := edited.Bounds()
	if field == FieldEndHour && end <= start {
		return nil, fmt.Errorf("%w: end hour must be greater than start hour", ErrInvalidRange)
	}
	if field == FieldStartHour && start >= end {
		return nil, fmt.Errorf("%w: start hour must be less than end hour", ErrInvalidRange)
	}

	for i, other := range existing {
		if i == index {
			continue
		}
		if Overlaps(edited, other) {
			return nil, fmt.Errorf("%w (window %d)", ErrOverlap, i+1)
		}
	}
	return updated, nil
}

// Overlaps reports whether two complete windows share at least one hour.
// Windows are half-open, so [6,12) and [12,18) do not overlap.
// Incomplete windows never overlap anything.
func Overlaps(a, b models.Window) bool {
	if !a.Complete() || !b.Complete() {
		return false
	}
	aStart, aEnd := a.Bounds()
	bStart, bEnd := b.Bounds()
	return aStart < bEnd && aEnd > bStart
}

// ValidateSchedule checks a schedule before it is persisted.
// It returns a *ValidationError listing every offending field, or nil.
func ValidateSchedule(s models.Schedule) error {
	verr := &ValidationError{}

	switch {
	case s.SoilType == "":
		verr.add("soil_type", "required")
	case !s.SoilType.Valid():
		verr.add("soil_type", "unknown soil type")
	}
	switch {
	case s.Vegetation == "":
		verr.add("vegetation", "required")
	case !s.Vegetation.Valid():
		verr.add("vegetation", "unknown vegetation")
	}

	if s.StartDate.IsZero() {
		verr.add("start_date", "required")
	}
	if s.EndDate.IsZero() {
		verr.add("end_date", "required")
	}
	if !s.StartDate.IsZero() && !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate) {
		verr.add("end_date", "must not be before start date")
	}

	if len(s.Windows) == 0 {
		verr.add("windows", "at least one irrigation window is required")
	}
	for i, w := range s.Windows {
		key := fmt.Sprintf("windows[%d]", i)
		if !w.Complete() {
			verr.add(key, "start and end hour are required")
			continue
		}
		start, end := w.Bounds()
		if start < 0 || start > 23 || end < 0 || end > 23 {
			verr.add(key, ErrHourRange.Error())
			continue
		}
		if start >= end {
			verr.add(key, "end hour must be greater than start hour")
			continue
		}
		for j := 0; j < i; j++ {
			if Overlaps(w, s.Windows[j]) {
				verr.add(key, fmt.Sprintf("overlaps window %d", j+1))
				break
			}
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
