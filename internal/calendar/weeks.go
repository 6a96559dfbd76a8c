package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMalformedWeekKey is returned when a key does not look like YYYY-MM-Wn.
	ErrMalformedWeekKey = errors.New("malformed week key")
	// ErrWeekNotFound is returned when a well-formed key names a week the
	// month does not have, e.g. W6 of a four-week month.
	ErrWeekNotFound = errors.New("week not found")
)

var weekKeyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-W(\d+)$`)

// WeekInfo is one Sunday-to-Saturday span attributed to its owning month.
type WeekInfo struct {
	WeekNumber int        `json:"weekNumber"`
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
	Start      time.Time  `json:"startDate"`
	End        time.Time  `json:"endDate"`
	Label      string     `json:"label"`
}

func newWeekInfo(number, year int, month time.Month, start, end time.Time) WeekInfo {
	return WeekInfo{
		WeekNumber: number,
		Year:       year,
		Month:      month,
		Start:      start,
		End:        end,
		Label: fmt.Sprintf("Semana %d (%d/%02d - %d/%02d)",
			number, start.Day(), int(start.Month()), end.Day(), int(end.Month())),
	}
}

// Key returns the YYYY-MM-Wn key used by week-scoped tasks.
func (w WeekInfo) Key() string {
	return fmt.Sprintf("%04d-%02d-W%d", w.Year, int(w.Month), w.WeekNumber)
}

// Days returns the seven dates of the week, Sunday first.
func (w WeekInfo) Days() []time.Time {
	days := make([]time.Time, 0, 7)
	for d := w.Start; !d.After(w.End); d = AddDays(d, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether the calendar date of t lies within the week.
func (w WeekInfo) Contains(t time.Time) bool {
	d := Normalize(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

type yearMonth struct {
	year  int
	month time.Month
}

// WeekOwner resolves the month a span of days is attributed to. A span that
// contains the 1st of a month belongs to that month; otherwise the month with
// the most days wins, the first one seen on a tie.
func WeekOwner(start, end time.Time) (int, time.Month) {
	start, end = Normalize(start), Normalize(end)

	for d := start; !d.After(end); d = AddDays(d, 1) {
		if d.Day() == 1 {
			return d.Year(), d.Month()
		}
	}

	counts := make(map[yearMonth]int)
	var order []yearMonth
	for d := start; !d.After(end); d = AddDays(d, 1) {
		key := yearMonth{d.Year(), d.Month()}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	if len(order) == 0 {
		return start.Year(), start.Month()
	}

	owner := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[owner] {
			owner = key
		}
	}
	return owner.year, owner.month
}

// WeeksOfMonth returns the weeks owned by the month, numbered from 1 in
// chronological order.
func WeeksOfMonth(year int, month time.Month) []WeekInfo {
	last := LastOfMonth(year, month)

	var weeks []WeekInfo
	number := 0
	for start := WeekStart(FirstOfMonth(year, month)); !start.After(last); start = AddDays(start, 7) {
		end := AddDays(start, 6)
		ownerYear, ownerMonth := WeekOwner(start, end)
		if ownerYear != year || ownerMonth != month {
			continue
		}
		number++
		weeks = append(weeks, newWeekInfo(number, year, month, start, end))
	}
	return weeks
}

// WeekContaining returns the owned week that contains t.
func WeekContaining(t time.Time) WeekInfo {
	d := Normalize(t)
	start, end := WeekStart(d), WeekEnd(d)
	year, month := WeekOwner(start, end)

	for _, w := range WeeksOfMonth(year, month) {
		if w.Contains(d) {
			return w
		}
	}

	violated("no week of %s contains %s", MonthKey(year, month), ToISODate(d))
	return newWeekInfo(0, year, month, start, end)
}

// ParseWeekKey resolves a YYYY-MM-Wn key. The week is re-derived from
// WeeksOfMonth so that keys and weeks always agree.
func ParseWeekKey(key string) (WeekInfo, error) {
	m := weekKeyPattern.FindStringSubmatch(strings.TrimSpace(key))
	if m == nil {
		return WeekInfo{}, fmt.Errorf("%w: %q", ErrMalformedWeekKey, key)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	number, err := strconv.Atoi(m[3])
	if err != nil || month < 1 || month > 12 {
		return WeekInfo{}, fmt.Errorf("%w: %q", ErrMalformedWeekKey, key)
	}

	for _, w := range WeeksOfMonth(year, time.Month(month)) {
		if w.WeekNumber == number {
			return w, nil
		}
	}
	return WeekInfo{}, fmt.Errorf("%w: %s", ErrWeekNotFound, key)
}

// WeekForKeyOrFirst resolves key, falling back to the first week of the given
// month when the key is malformed or names a missing week.
func WeekForKeyOrFirst(key string, year int, month time.Month) WeekInfo {
	if w, err := ParseWeekKey(key); err == nil {
		return w
	}
	// The week holding the 1st is always owned by the month.
	return WeeksOfMonth(year, month)[0]
}
