// Package calendar buckets reservations into a Monday-anchored week and
// computes grid positions for the console's calendar view.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"tabledesk/internal/models"
)

// Visible clock range mapped to the grid's vertical axis. Fixed by design,
// not configurable.
const (
	VisibleStartHour = 9
	VisibleEndHour   = 22
)

// DaysPerWeek is the width of the grid.
const DaysPerWeek = 7

// DayKey identifies a local calendar date, ignoring time-of-day.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDayKey derives the key for an instant in local time.
func NewDayKey(t time.Time) DayKey {
	local := t.Local()
	return DayKey{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

func (k DayKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// Time returns local midnight of the day.
func (k DayKey) Time() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.Local)
}

// WeekWindow is the 7 consecutive calendar days currently displayed.
type WeekWindow struct {
	Start time.Time
}

// StartOfWeek normalizes t to the Monday of its week at local midnight.
func StartOfWeek(t time.Time) time.Time {
	local := t.Local()
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	// Weekday() has Sunday = 0; shift so Monday = 0.
	offset := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

// NewWeekWindow builds the window containing t.
func NewWeekWindow(t time.Time) WeekWindow {
	return WeekWindow{Start: StartOfWeek(t)}
}

// Days returns the window's 7 day keys in order.
func (w WeekWindow) Days() [DaysPerWeek]DayKey {
	var days [DaysPerWeek]DayKey
	for i := 0; i < DaysPerWeek; i++ {
		days[i] = NewDayKey(w.Start.AddDate(0, 0, i))
	}
	return days
}

// Prev and Next navigate a whole week at a time; ThisWeek jumps back to now.
func (w WeekWindow) Prev() WeekWindow { return WeekWindow{Start: w.Start.AddDate(0, 0, -DaysPerWeek)} }
func (w WeekWindow) Next() WeekWindow { return WeekWindow{Start: w.Start.AddDate(0, 0, DaysPerWeek)} }

func ThisWeek(now time.Time) WeekWindow { return NewWeekWindow(now) }

// PositionedItem is a reservation placed on the grid. TopPercent is the
// vertical position within the visible-hour window clamped to [0,100];
// Column is the zero-based day index within the week.
type PositionedItem struct {
	Reservation models.Reservation `json:"reservation"`
	When        time.Time          `json:"when"`
	Column      int                `json:"column"`
	TopPercent  float64            `json:"top_percent"`
}

// Layout buckets records into the window's days and positions each item.
// Records without a parseable instant, or dated outside the window, are
// dropped silently. Within a bucket items are sorted ascending by instant;
// ties keep their original relative order.
func Layout(records []models.Reservation, week WeekWindow) map[DayKey][]PositionedItem {
	days := week.Days()
	column := make(map[DayKey]int, DaysPerWeek)
	for i, key := range days {
		column[key] = i
	}

	buckets := make(map[DayKey][]PositionedItem, DaysPerWeek)
	for _, r := range records {
		if !r.HasWhen() {
			continue
		}
		key := NewDayKey(r.When)
		col, ok := column[key]
		if !ok {
			continue
		}
		buckets[key] = append(buckets[key], PositionedItem{
			Reservation: r,
			When:        r.When,
			Column:      col,
			TopPercent:  verticalPercent(r.When),
		})
	}

	for key := range buckets {
		bucket := buckets[key]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].When.Before(bucket[j].When)
		})
	}
	return buckets
}

// verticalPercent interpolates time-of-day over the visible window.
// Times outside 09:00-22:00 are clamped to the nearest edge, not hidden.
func verticalPercent(t time.Time) float64 {
	local := t.Local()
	minutes := float64(local.Hour()*60 + local.Minute())
	start := float64(VisibleStartHour * 60)
	end := float64(VisibleEndHour * 60)

	percent := (minutes - start) / (end - start) * 100
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
