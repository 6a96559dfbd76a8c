package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/calendar"
	"planner/internal/model"
	"planner/internal/service"
)

func seedJune(t *testing.T, f *fixture) {
	t.Helper()
	f.create(t, model.TaskDraft{
		Title:             "Standup",
		DueDate:           model.Ptr("2024-06-03"),
		IsRecurring:       true,
		RecurrencePattern: model.Ptr(model.Daily),
	})
	f.create(t, model.TaskDraft{Title: "Dentist", DueDate: model.Ptr("2024-06-10"), DueTime: model.Ptr("09:00"), GroupID: model.Ptr(model.DefaultGroupID)})
	f.create(t, model.TaskDraft{Title: "Review", DueDate: model.Ptr("2024-06-10")})
	f.create(t, model.TaskDraft{Title: "Old <bill>", DueDate: model.Ptr("2024-06-01")})
	f.create(t, model.TaskDraft{Title: "Report", Scope: model.ScopeWeek, TargetWeek: model.Ptr("2024-06-W3")})
	f.create(t, model.TaskDraft{Title: "Budget", Scope: model.ScopeMonth, TargetMonth: model.Ptr("2024-06")})
}

func TestCalendarService_Month(t *testing.T) {
	f := newFixture(t)
	seedJune(t, f)

	view, err := f.calendar.Month(context.Background(), 2024, time.June)
	require.NoError(t, err)

	assert.Equal(t, "2024-06", view.Key)
	assert.Equal(t, "Junho", view.Name)
	assert.Len(t, view.Weeks, 5)
	require.Len(t, view.Grid, 6)
	require.Len(t, view.Goals, 1)
	assert.Equal(t, "Budget", view.Goals[0].Title)

	first := view.Grid[0][0]
	assert.Equal(t, "2024-05-26", first.Date)
	assert.False(t, first.InMonth)

	corpusChristi := view.Grid[0][4]
	assert.Equal(t, "2024-05-30", corpusChristi.Date)
	require.NotNil(t, corpusChristi.Holiday)
	assert.Equal(t, "Corpus Christi", corpusChristi.Holiday.Name)

	june2 := view.Grid[1][0]
	assert.Equal(t, "2024-06-02", june2.Date)
	assert.True(t, june2.InMonth)
	assert.Empty(t, june2.Entries, "nothing before the series starts")

	june3 := view.Grid[1][1]
	require.Len(t, june3.Entries, 1)
	assert.False(t, june3.Entries[0].IsVirtual(), "the anchor is the stored task")

	june4 := view.Grid[1][2]
	require.Len(t, june4.Entries, 1)
	assert.True(t, june4.Entries[0].IsVirtual())
	assert.Equal(t, "Standup", june4.Entries[0].Title())

	last := view.Grid[5][6]
	assert.Equal(t, "2024-07-06", last.Date)
	require.Len(t, last.Entries, 1, "projection covers the visible grid")

	_, err = f.calendar.Month(context.Background(), 2024, 13)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestCalendarService_Week(t *testing.T) {
	f := newFixture(t)
	seedJune(t, f)
	ctx := context.Background()

	view, err := f.calendar.Week(ctx, "2024-06-W3")
	require.NoError(t, err)
	require.Len(t, view.Days, 7)
	assert.Equal(t, "2024-06-09", view.Days[0].Date)
	assert.Equal(t, "2024-06-15", view.Days[6].Date)
	require.Len(t, view.Goals, 1)
	assert.Equal(t, "Report", view.Goals[0].Title)

	monday := view.Days[1]
	assert.Len(t, monday.Entries, 3, "dentist, review and the standup occurrence")

	_, err = f.calendar.Week(ctx, "2024-W24")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.calendar.Week(ctx, "2024-06-W6")
	assert.ErrorIs(t, err, calendar.ErrWeekNotFound)
}

func TestCalendarService_Day(t *testing.T) {
	f := newFixture(t)
	seedJune(t, f)
	ctx := context.Background()

	view, err := f.calendar.Day(ctx, calendar.Date(2024, time.June, 10))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", view.Date)
	assert.Nil(t, view.Holiday)
	require.Len(t, view.Timed, 1)
	assert.Equal(t, "Dentist", view.Timed[0].Title())
	require.Len(t, view.AllDay, 2)
	assert.Equal(t, "Review", view.AllDay[0].Title())
	assert.True(t, view.AllDay[1].IsVirtual())

	holidayView, err := f.calendar.Day(ctx, calendar.Date(2024, time.December, 25))
	require.NoError(t, err)
	require.NotNil(t, holidayView.Holiday)
	assert.Equal(t, "Natal", holidayView.Holiday.Name)
}

func TestDashboardService_Build(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.groupSvc.Create(ctx, "Work", "#ff0000")
	require.NoError(t, err)

	drafts := []model.TaskDraft{
		{Title: "a", GroupID: model.Ptr(model.DefaultGroupID), IsCompleted: true},
		{Title: "b", GroupID: model.Ptr(model.DefaultGroupID), IsImportant: true},
		{Title: "c", GroupID: &work.ID, IsCompleted: true, IsImportant: true},
		{Title: "d", GroupID: &work.ID},
		{Title: "e", GroupID: &work.ID},
		{Title: "f"},
		{Title: "g", GroupID: model.Ptr("ghost")},
	}
	for _, d := range drafts {
		f.create(t, d)
	}

	dash, err := f.dashboard.Build(ctx)
	require.NoError(t, err)

	require.Len(t, dash.ImportantGoals, 1)
	assert.Equal(t, "b", dash.ImportantGoals[0].Title)

	assert.Equal(t, 7, dash.Total)
	assert.Equal(t, 2, dash.Completed)
	assert.Equal(t, 29, dash.Percentage)

	require.Len(t, dash.Groups, 3, "empty groups are dropped")
	assert.Equal(t, service.GroupStats{GroupID: model.DefaultGroupID, GroupName: "Geral", Color: model.DefaultColor, Total: 2, Completed: 1, Percentage: 50}, dash.Groups[0])
	assert.Equal(t, work.ID, dash.Groups[1].GroupID)
	assert.Equal(t, 33, dash.Groups[1].Percentage)
	assert.Equal(t, service.UngroupedID, dash.Groups[2].GroupID)
	assert.Equal(t, 1, dash.Groups[2].Total)
	assert.Equal(t, 0, dash.Groups[2].Percentage)
}

func TestDashboardService_Empty(t *testing.T) {
	f := newFixture(t)

	dash, err := f.dashboard.Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dash.ImportantGoals)
	assert.Empty(t, dash.Groups)
	assert.Equal(t, 0, dash.Percentage)
}

func TestReminderService_DailySummary(t *testing.T) {
	f := newFixture(t)
	seedJune(t, f)
	reminders := service.NewReminderService(f.tasks, f.groups, f.engine, f.holidays)
	ctx := context.Background()

	text, err := reminders.DailySummary(ctx, calendar.Date(2024, time.June, 10))
	require.NoError(t, err)

	assert.Contains(t, text, "<b>Daily digest</b>")
	assert.Contains(t, text, "10.06.2024")
	assert.Contains(t, text, "Dentist <i>(Geral)</i> · 09:00")
	assert.Contains(t, text, "Standup · ♻️")
	assert.Contains(t, text, "Old &lt;bill&gt; · was due 2024-06-01")
	assert.Contains(t, text, "Semana 3 (9/06 - 15/06)")
	assert.Contains(t, text, "Report")
	assert.Contains(t, text, "Junho")
	assert.Contains(t, text, "Budget")
	assert.NotContains(t, text, "🎉")

	holidayText, err := reminders.DailySummary(ctx, calendar.Date(2024, time.May, 30))
	require.NoError(t, err)
	assert.Contains(t, holidayText, "🎉 Corpus Christi")
	assert.Contains(t, holidayText, "nothing scheduled")
}
