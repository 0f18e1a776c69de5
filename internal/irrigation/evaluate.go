package irrigation

import (
	"iter"
	"slices"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/models"
)

// IsWatering reports whether any schedule is active at now: now's date lies in
// [StartDate, EndDate] and now's hour lies in one of its windows (start <= hour < end).
// Date and hour are both read in now's location.
func IsWatering(schedules []models.Schedule, now time.Time) bool {
	today := models.DateOf(now)
	hour := now.Hour()
	for _, s := range schedules {
		if today.Before(s.StartDate) || today.After(s.EndDate) {
			continue
		}
		if windowAt(s.Windows, hour) {
			return true
		}
	}
	return false
}

func windowAt(windows []models.Window, hour int) bool {
	for _, w := range windows {
		if !w.Complete() {
			continue
		}
		start, end := w.Bounds()
		if start <= hour && hour < end {
			return true
		}
	}
	return false
}

// Active reports whether a schedule has not ended yet at now.
// This drives the "Active" badge, which ignores start date and time of day.
func Active(s models.Schedule, now time.Time) bool {
	return !s.EndDate.Before(models.DateOf(now))
}

// ExpandTimeline returns the timeline points of every schedule that has not ended at now.
//
// Each complete window contributes one point per hour in [start, end), all stamped with
// the schedule's start date; multi-day schedules are not repeated per day. Points are
// ordered by date, then hour. Nothing is computed until the sequence is ranged over,
// and every range re-evaluates from the given schedules.
func ExpandTimeline(schedules []models.Schedule, now time.Time) iter.Seq[models.TimelinePoint] {
	return func(yield func(models.TimelinePoint) bool) {
		today := models.DateOf(now)
		var points []models.TimelinePoint
		for _, s := range schedules {
			if s.EndDate.Before(today) {
				continue
			}
			for _, w := range s.Windows {
				if !w.Complete() {
					continue
				}
				start, end := w.Bounds()
				for hour := start; hour < end; hour++ {
					points = append(points, models.TimelinePoint{
						Date:       s.StartDate,
						Hour:       hour,
						ScheduleID: s.ID,
						SoilType:   s.SoilType,
						Vegetation: s.Vegetation,
					})
				}
			}
		}

		slices.SortStableFunc(points, func(a, b models.TimelinePoint) int {
			if c := a.Date.Compare(b.Date); c != 0 {
				return c
			}
			return a.Hour - b.Hour
		})

		for _, p := range points {
			if !yield(p) {
				return
			}
		}
	}
}

// Timeline collects ExpandTimeline into a slice. It never returns nil.
func Timeline(schedules []models.Schedule, now time.Time) []models.TimelinePoint {
	points := slices.Collect(ExpandTimeline(schedules, now))
	if points == nil {
		points = []models.TimelinePoint{}
	}
	return points
}
