package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysInMonth(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
}

func TestFirstWeekdayOfMonth(t *testing.T) {
	assert.Equal(t, time.Saturday, FirstWeekdayOfMonth(2024, time.June))
	assert.Equal(t, time.Sunday, FirstWeekdayOfMonth(2024, time.December))
	assert.Equal(t, time.Wednesday, FirstWeekdayOfMonth(2024, time.May))
}

func TestToISODate_KeepsLocalCalendarDate(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	late := time.Date(2024, time.June, 10, 23, 30, 0, 0, loc)

	// 23:30 at -03:00 is already June 11 in UTC; the local date must win.
	assert.Equal(t, "2024-06-10", ToISODate(late))
	assert.Equal(t, Date(2024, time.June, 10), Normalize(late))
}

func TestParseISODate(t *testing.T) {
	got, err := ParseISODate("2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, time.June, 10), got)

	_, err = ParseISODate("10/06/2024")
	assert.ErrorIs(t, err, ErrMalformedDate)
}

func TestWeekStartEnd(t *testing.T) {
	tests := []struct {
		day   time.Time
		start time.Time
		end   time.Time
	}{
		{Date(2024, time.June, 10), Date(2024, time.June, 9), Date(2024, time.June, 15)},
		{Date(2024, time.June, 9), Date(2024, time.June, 9), Date(2024, time.June, 15)},
		{Date(2024, time.June, 15), Date(2024, time.June, 9), Date(2024, time.June, 15)},
		{Date(2025, time.January, 1), Date(2024, time.December, 29), Date(2025, time.January, 4)},
	}

	for _, tt := range tests {
		t.Run(ToISODate(tt.day), func(t *testing.T) {
			assert.Equal(t, tt.start, WeekStart(tt.day))
			assert.Equal(t, tt.end, WeekEnd(tt.day))
		})
	}
}

func TestGridWeeks(t *testing.T) {
	weeks := GridWeeks(2024, time.June)
	require.Len(t, weeks, 6)
	assert.Equal(t, Date(2024, time.May, 26), weeks[0][0])
	assert.Equal(t, Date(2024, time.July, 6), weeks[5][6])
	for _, week := range weeks {
		require.Len(t, week, 7)
		assert.Equal(t, time.Sunday, week[0].Weekday())
	}

	// February 2015 starts on a Sunday and has exactly four rows.
	assert.Len(t, GridWeeks(2015, time.February), 4)
	assert.Len(t, GridDays(2015, time.February), 28)
}

func TestMonthKeys(t *testing.T) {
	assert.Equal(t, "2024-06", MonthKey(2024, time.June))
	assert.Equal(t, "2024-12", MonthKeyOf(Date(2024, time.December, 31)))

	year, month, err := ParseMonthKey("2023-12")
	require.NoError(t, err)
	assert.Equal(t, 2023, year)
	assert.Equal(t, time.December, month)

	_, _, err = ParseMonthKey("2023-13")
	assert.ErrorIs(t, err, ErrMalformedMonthKey)
	_, _, err = ParseMonthKey("2023/01")
	assert.ErrorIs(t, err, ErrMalformedMonthKey)
}

func TestISOWeek(t *testing.T) {
	assert.Equal(t, "2023-W42", ISOWeek(Date(2023, time.October, 18)))
	assert.Equal(t, "2020-W53", ISOWeek(Date(2021, time.January, 1)))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "Janeiro", MonthName(time.January))
	assert.Equal(t, "Março", MonthName(time.March))
	assert.Equal(t, "", MonthName(0))
	assert.Len(t, WeekdayShortNames(), 7)
}
