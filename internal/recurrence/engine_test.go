package recurrence

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/calendar"
	"planner/internal/model"
)

func date(s string) time.Time {
	d, err := calendar.ParseISODate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *time.Time {
	d := date(s)
	return &d
}

func newTestEngine(buf *bytes.Buffer, opts ...Option) *Engine {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewEngine(append([]Option{WithLogger(logger)}, opts...)...)
}

func recurringTask(id, title, due string, pattern model.Pattern, interval int, days ...int) model.Task {
	return model.Task{
		ID:                 id,
		Title:              title,
		Scope:              model.ScopeDate,
		DueDate:            model.Ptr(due),
		IsRecurring:        true,
		RecurrencePattern:  model.Ptr(pattern),
		RecurrenceInterval: interval,
		RecurrenceDays:     days,
	}
}

func TestEngine_Next(t *testing.T) {
	tests := []struct {
		name   string
		rule   Rule
		anchor string
		want   string
	}{
		{"daily", Rule{Pattern: model.Daily, Interval: 3}, "2024-06-10", "2024-06-13"},
		{"daily across month", Rule{Pattern: model.Daily, Interval: 1}, "2024-06-30", "2024-07-01"},
		{"weekly plain", Rule{Pattern: model.Weekly, Interval: 2}, "2024-06-10", "2024-06-24"},
		{"weekly later weekday same week", Rule{Pattern: model.Weekly, Interval: 1, Weekdays: []time.Weekday{1, 3, 5}}, "2024-06-10", "2024-06-12"},
		{"weekly wraps to next week", Rule{Pattern: model.Weekly, Interval: 1, Weekdays: []time.Weekday{1, 3, 5}}, "2024-06-14", "2024-06-17"},
		{"weekly in-week step ignores interval", Rule{Pattern: model.Weekly, Interval: 3, Weekdays: []time.Weekday{1, 3}}, "2024-06-10", "2024-06-12"},
		{"weekly wrap honours interval", Rule{Pattern: model.Weekly, Interval: 2, Weekdays: []time.Weekday{1}}, "2024-06-10", "2024-06-24"},
		{"weekly from unselected weekday", Rule{Pattern: model.Weekly, Interval: 1, Weekdays: []time.Weekday{2}}, "2024-06-15", "2024-06-18"},
		{"weekly unsorted days", Rule{Pattern: model.Weekly, Interval: 1, Weekdays: []time.Weekday{5, 3, 3, 1}}, "2024-06-10", "2024-06-12"},
		{"monthly", Rule{Pattern: model.Monthly, Interval: 1}, "2024-06-10", "2024-07-10"},
		{"monthly overflow", Rule{Pattern: model.Monthly, Interval: 1}, "2024-01-31", "2024-03-02"},
		{"quarterly", Rule{Pattern: model.Monthly, Interval: 3}, "2024-11-15", "2025-02-15"},
		{"yearly", Rule{Pattern: model.Yearly, Interval: 1}, "2024-06-10", "2025-06-10"},
		{"yearly leap day", Rule{Pattern: model.Yearly, Interval: 1}, "2024-02-29", "2025-03-01"},
		{"zero interval is one", Rule{Pattern: model.Daily}, "2024-06-10", "2024-06-11"},
	}

	e := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Next(tt.rule, date(tt.anchor))
			require.True(t, ok)
			assert.Equal(t, tt.want, calendar.ToISODate(got))
		})
	}
}

func TestEngine_NextRespectsEndDate(t *testing.T) {
	e := NewEngine()
	rule := Rule{Pattern: model.Daily, Interval: 1, End: datePtr("2024-06-20")}

	got, ok := e.Next(rule, date("2024-06-19"))
	require.True(t, ok, "the end date itself is included")
	assert.Equal(t, "2024-06-20", calendar.ToISODate(got))

	_, ok = e.Next(rule, date("2024-06-20"))
	assert.False(t, ok)
}

func TestEngine_UnknownPattern(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEngine(&buf)

	_, ok := e.Next(Rule{Pattern: "fortnightly", Interval: 1}, date("2024-06-10"))
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "unknown recurrence pattern")
	assert.Contains(t, buf.String(), "fortnightly")
}

func TestEngine_RuleFromTask(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEngine(&buf)

	t.Run("not recurring", func(t *testing.T) {
		_, ok := e.RuleFromTask(model.Task{Title: "x"})
		assert.False(t, ok)
	})

	t.Run("missing pattern", func(t *testing.T) {
		_, ok := e.RuleFromTask(model.Task{ID: "a", IsRecurring: true})
		assert.False(t, ok)
		assert.Contains(t, buf.String(), "no pattern")
	})

	t.Run("repairs weekdays and interval", func(t *testing.T) {
		task := recurringTask("b", "x", "2024-06-10", model.Weekly, -2, 5, 9, 1, 1, -1)
		rule, ok := e.RuleFromTask(task)
		require.True(t, ok)
		assert.Equal(t, 1, rule.Interval)
		assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, rule.Weekdays)
		assert.Contains(t, buf.String(), "weekday 9 dropped")
	})

	t.Run("malformed end date", func(t *testing.T) {
		task := recurringTask("c", "x", "2024-06-10", model.Daily, 1)
		task.RecurrenceEndDate = model.Ptr("20/06/2024")
		_, ok := e.RuleFromTask(task)
		assert.False(t, ok)
	})

	t.Run("end date", func(t *testing.T) {
		task := recurringTask("d", "x", "2024-06-10", model.Daily, 1)
		task.RecurrenceEndDate = model.Ptr("2024-06-20")
		rule, ok := e.RuleFromTask(task)
		require.True(t, ok)
		require.NotNil(t, rule.End)
		assert.Equal(t, "2024-06-20", calendar.ToISODate(*rule.End))
	})
}

func TestEngine_AdvanceOne(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEngine(&buf)

	next, ok := e.AdvanceOne(recurringTask("a", "Gym", "2024-06-14", model.Weekly, 1, 1, 3, 5))
	require.True(t, ok)
	assert.Equal(t, "2024-06-17", calendar.ToISODate(next))

	_, ok = e.AdvanceOne(model.Task{ID: "b", Title: "once", DueDate: model.Ptr("2024-06-14")})
	assert.False(t, ok)

	noDue := recurringTask("c", "floating", "", model.Daily, 1)
	noDue.DueDate = nil
	_, ok = e.AdvanceOne(noDue)
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "no due date")

	ended := recurringTask("d", "ended", "2024-06-20", model.Daily, 1)
	ended.RecurrenceEndDate = model.Ptr("2024-06-20")
	_, ok = e.AdvanceOne(ended)
	assert.False(t, ok)
}

func TestEngine_Step(t *testing.T) {
	e := NewEngine()
	rule := Rule{Pattern: model.Daily, Interval: 1, End: datePtr("2024-06-10")}

	got, ok := e.Step(rule, date("2024-06-10"))
	require.True(t, ok, "Step ignores the end date")
	assert.Equal(t, "2024-06-11", calendar.ToISODate(got))
}

func TestRule_Describe(t *testing.T) {
	tests := []struct {
		rule Rule
		want string
	}{
		{Rule{Pattern: model.Daily, Interval: 1}, "every day"},
		{Rule{Pattern: model.Weekly, Interval: 2, Weekdays: []time.Weekday{3, 1}}, "every 2 weeks on Mon, Wed"},
		{Rule{Pattern: model.Monthly, Interval: 1, End: datePtr("2024-12-31")}, "every month until 2024-12-31"},
		{Rule{Pattern: "hourly"}, "unknown recurrence hourly"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.rule.Describe())
	}
}
