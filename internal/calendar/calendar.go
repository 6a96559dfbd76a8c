// Package calendar holds the pure date helpers behind the planner views:
// month and week boundaries, ISO formatting and the week-of-month partition.
//
// Every date handled here is a calendar date, represented as a time.Time at
// midnight UTC. Stepping with AddDate on such values never crosses a DST
// transition, so adding n days always lands on the n-th next calendar day.
package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

var (
	// ErrMalformedDate is returned when a string is not a YYYY-MM-DD date.
	ErrMalformedDate = errors.New("malformed date")
	// ErrMalformedMonthKey is returned when a string is not a YYYY-MM month key.
	ErrMalformedMonthKey = errors.New("malformed month key")
)

var monthKeyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// Date returns the calendar date year-month-day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize drops the clock and zone of t and keeps the calendar date t shows
// in its own location.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return Normalize(time.Now().In(loc))
}

// AddDays moves t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOfMonth returns the weekday of the 1st of the month.
func FirstWeekdayOfMonth(year int, month time.Month) time.Weekday {
	return Date(year, month, 1).Weekday()
}

// FirstOfMonth and LastOfMonth bound a month.
func FirstOfMonth(year int, month time.Month) time.Time {
	return Date(year, month, 1)
}

func LastOfMonth(year int, month time.Month) time.Time {
	return Date(year, month, DaysInMonth(year, month))
}

// ToISODate formats t as YYYY-MM-DD using the date t shows in its own
// location. No zone conversion happens.
func ToISODate(t time.Time) string {
	return t.Format(isoLayout)
}

// ParseISODate parses a YYYY-MM-DD string into a calendar date.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}

// IsSameDay reports whether a and b fall on the same calendar date.
func IsSameDay(a, b time.Time) bool {
	return ToISODate(a) == ToISODate(b)
}

// WeekStart returns the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	d := Normalize(t)
	return AddDays(d, -int(d.Weekday()))
}

// WeekEnd returns the Saturday on or after t.
func WeekEnd(t time.Time) time.Time {
	d := Normalize(t)
	return AddDays(d, int(time.Saturday-d.Weekday()))
}

// GridWeeks returns every Sunday-to-Saturday week overlapping the month, in
// chronological order. It is meant for grid rendering and ignores week
// ownership: the first and last rows may belong to neighbouring months.
func GridWeeks(year int, month time.Month) [][]time.Time {
	last := LastOfMonth(year, month)

	var weeks [][]time.Time
	for start := WeekStart(FirstOfMonth(year, month)); !start.After(last); start = AddDays(start, 7) {
		week := make([]time.Time, 7)
		for i := range week {
			week[i] = AddDays(start, i)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// GridDays flattens GridWeeks into a single n*7 slice.
func GridDays(year int, month time.Month) []time.Time {
	weeks := GridWeeks(year, month)
	days := make([]time.Time, 0, len(weeks)*7)
	for _, week := range weeks {
		days = append(days, week...)
	}
	return days
}

// MonthKey formats a month as YYYY-MM.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// MonthKeyOf returns the month key of the date.
func MonthKeyOf(t time.Time) string {
	return MonthKey(t.Year(), t.Month())
}

// ParseMonthKey parses a YYYY-MM key.
func ParseMonthKey(key string) (int, time.Month, error) {
	m := monthKeyPattern.FindStringSubmatch(strings.TrimSpace(key))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedMonthKey, key)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedMonthKey, key)
	}
	return year, time.Month(month), nil
}

// ISOWeek returns the ISO-8601 week of t as YYYY-Www.
func ISOWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the Portuguese month name used in the calendar header.
func MonthName(month time.Month) string {
	if month < time.January || month > time.December {
		return ""
	}
	return monthNames[month-1]
}

// WeekdayShortNames returns the grid column headers, Sunday first.
func WeekdayShortNames() []string {
	return []string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}
}
