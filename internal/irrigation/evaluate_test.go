package irrigation

import (
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/crucial707/irrigation-dashboard/internal/models"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func juneSchedule() models.Schedule {
	return models.Schedule{
		ID:         "s1",
		SoilType:   models.SoilBlack,
		Vegetation: models.VegetationMaize,
		StartDate:  models.MustDate("2024-06-01"),
		EndDate:    models.MustDate("2024-06-30"),
		Windows:    []models.Window{models.NewWindow(6, 12)},
	}
}

func TestIsWatering(t *testing.T) {
	schedules := []models.Schedule{juneSchedule()}
	tests := []struct {
		now  string
		want bool
	}{
		{"2024-06-01T10:00", true},
		{"2024-06-01T06:00", true},
		{"2024-06-01T12:00", false},
		{"2024-06-01T05:59", false},
		{"2024-06-30T11:59", true},
		{"2024-07-01T10:00", false},
		{"2024-05-31T10:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.now, func(t *testing.T) {
			if got := IsWatering(schedules, at(tt.now)); got != tt.want {
				t.Errorf("IsWatering at %s = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestIsWatering_Empty(t *testing.T) {
	for _, now := range []time.Time{at("2024-06-01T10:00"), time.Now(), {}} {
		if IsWatering(nil, now) {
			t.Errorf("IsWatering(nil, %v) = true", now)
		}
	}
}

func TestIsWatering_AnyScheduleActive(t *testing.T) {
	idle := juneSchedule()
	idle.Windows = []models.Window{models.NewWindow(18, 20)}
	busy := juneSchedule()
	busy.Windows = []models.Window{models.NewWindow(0, 2), models.NewWindow(9, 11)}

	if !IsWatering([]models.Schedule{idle, busy}, at("2024-06-10T10:30")) {
		t.Error("expected watering when one schedule is active")
	}
}

func TestIsWatering_UsesLocationOfNow(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 2024-06-01 04:00 UTC is 09:30 IST on the same day.
	now := time.Date(2024, 6, 1, 4, 0, 0, 0, time.UTC).In(loc)
	if !IsWatering([]models.Schedule{juneSchedule()}, now) {
		t.Error("expected hour and date to be read in now's location")
	}
}

func TestExpandTimeline_SingleWindow(t *testing.T) {
	s := juneSchedule()
	s.Windows = []models.Window{models.NewWindow(6, 9)}

	got := Timeline([]models.Schedule{s}, at("2024-06-01T00:00"))
	var hours []int
	for _, p := range got {
		if p.Date != s.StartDate || p.ScheduleID != "s1" || p.SoilType != models.SoilBlack || p.Vegetation != models.VegetationMaize {
			t.Errorf("unexpected point: %+v", p)
		}
		hours = append(hours, p.Hour)
	}
	if !reflect.DeepEqual(hours, []int{6, 7, 8}) {
		t.Errorf("hours = %v, want [6 7 8]", hours)
	}
}

func TestExpandTimeline_ExcludesEnded(t *testing.T) {
	past := juneSchedule()
	past.ID = "past"
	past.EndDate = models.MustDate("2024-06-14")
	current := juneSchedule()
	current.ID = "current"

	got := Timeline([]models.Schedule{past, current}, at("2024-06-15T08:00"))
	for _, p := range got {
		if p.ScheduleID == "past" {
			t.Fatalf("ended schedule expanded: %+v", p)
		}
	}
	if len(got) != 6 {
		t.Errorf("expected 6 points, got %d", len(got))
	}
	// Started in the past: still keyed to the original start date.
	if got[0].Date != models.MustDate("2024-06-01") {
		t.Errorf("expected original start date, got %s", got[0].Date)
	}
}

func TestExpandTimeline_EndsToday(t *testing.T) {
	s := juneSchedule()
	if got := Timeline([]models.Schedule{s}, at("2024-06-30T23:00")); len(got) != 6 {
		t.Errorf("expected schedule ending today to be expanded, got %d points", len(got))
	}
}

func TestExpandTimeline_Sorted(t *testing.T) {
	later := juneSchedule()
	later.ID = "later"
	later.StartDate = models.MustDate("2024-06-10")
	later.Windows = []models.Window{models.NewWindow(1, 3)}
	earlier := juneSchedule()
	earlier.ID = "earlier"
	earlier.Windows = []models.Window{models.NewWindow(20, 22), models.NewWindow(4, 6)}

	got := Timeline([]models.Schedule{later, earlier}, at("2024-06-01T00:00"))
	sorted := slices.IsSortedFunc(got, func(a, b models.TimelinePoint) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.Hour - b.Hour
	})
	if !sorted {
		t.Fatalf("timeline not sorted: %+v", got)
	}
	if got[0].ScheduleID != "earlier" || got[0].Hour != 4 || got[len(got)-1].ScheduleID != "later" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestExpandTimeline_Restartable(t *testing.T) {
	seq := ExpandTimeline([]models.Schedule{juneSchedule()}, at("2024-06-01T00:00"))
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if len(first) != 6 || !reflect.DeepEqual(first, second) {
		t.Errorf("sequence not restartable: %d vs %d", len(first), len(second))
	}

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("early break: got %d", n)
	}
}

func TestTimeline_EmptyIsNotNil(t *testing.T) {
	if got := Timeline(nil, time.Now()); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestActive(t *testing.T) {
	s := juneSchedule()
	if !Active(s, at("2024-05-20T10:00")) {
		t.Error("future schedule should be active")
	}
	if !Active(s, at("2024-06-30T23:59")) {
		t.Error("schedule ending today should be active")
	}
	if Active(s, at("2024-07-01T00:00")) {
		t.Error("ended schedule should not be active")
	}
}
