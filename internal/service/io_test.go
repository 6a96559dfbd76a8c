package service_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/holiday"
	"planner/internal/model"
	"planner/internal/service"
)

const legacyJSON = `{
  "groups": [
    {"id": "g1", "name": "Work", "color": "#ff0000"},
    {"id": "default", "name": "Geral", "color": "#6366f1"}
  ],
  "tasks": [
    {"id": "t1", "title": "Legacy", "isCompleted": true, "groupId": "g1",
     "createdAt": "2023-10-01T10:00:00.000Z", "dueDate": "2023-10-02", "scope": "date"},
    {"id": "t2", "title": "Weekly goal", "groupId": "", "scope": "week", "targetWeek": "2024-W24"}
  ]
}`

func TestImportService_Import(t *testing.T) {
	f := newFixture(t)
	importer := service.NewImportService(f.tasks, f.groups, nil)
	ctx := context.Background()

	result, err := importer.Import(ctx, strings.NewReader(legacyJSON))
	require.NoError(t, err)
	assert.Equal(t, service.ImportResult{GroupsAdded: 1, GroupsSkipped: 1, TasksAdded: 2}, result)

	legacy, err := f.tasks.Get(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, legacy.IsCompleted)
	assert.Equal(t, "g1", *legacy.GroupID)
	assert.Equal(t, 2023, legacy.CreatedAt.Year())

	goal, err := f.tasks.Get(ctx, "t2")
	require.NoError(t, err)
	assert.Nil(t, goal.GroupID)
	assert.Equal(t, "2024-06-W3", *goal.TargetWeek, "ISO weeks map onto the week holding their Thursday")

	again, err := importer.Import(ctx, strings.NewReader(legacyJSON))
	require.NoError(t, err)
	assert.Equal(t, service.ImportResult{GroupsSkipped: 2, TasksSkipped: 2}, again)

	_, err = importer.Import(ctx, strings.NewReader("{"))
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestImportService_ImportFile_Backup(t *testing.T) {
	f := newFixture(t)
	importer := service.NewImportService(f.tasks, f.groups, nil)

	path := filepath.Join(t.TempDir(), "tasks-data.json")
	require.NoError(t, os.WriteFile(path, []byte(legacyJSON), 0o600))

	_, err := importer.ImportFile(context.Background(), path, true)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + ".backup")
	assert.NoError(t, err)

	_, err = importer.ImportFile(context.Background(), path, false)
	assert.Error(t, err)
}

func TestExportService_Export(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exporter := service.NewExportService(f.tasks, f.groups, f.engine, f.holidays, nil)

	gym := f.create(t, model.TaskDraft{
		Title:             "Gym",
		IsImportant:       true,
		GroupID:           model.Ptr(model.DefaultGroupID),
		DueDate:           model.Ptr("2024-06-10"),
		IsRecurring:       true,
		RecurrencePattern: model.Ptr(model.Weekly),
		RecurrenceDays:    []int{1, 3, 5},
	})
	report := f.create(t, model.TaskDraft{Title: "Report, final", Scope: model.ScopeWeek, TargetWeek: model.Ptr("2024-06-W3")})

	var buf bytes.Buffer
	stamp := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, exporter.Export(ctx, &buf, []int{2024}, stamp))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	todos := map[string]*ical.Component{}
	events := 0
	for _, child := range cal.Children {
		switch child.Name {
		case ical.CompToDo:
			uid, err := child.Props.Text(ical.PropUID)
			require.NoError(t, err)
			todos[uid] = child
		case ical.CompEvent:
			events++
		}
	}
	assert.Equal(t, len(holiday.Brazil{}.ForYear(2024)), events)
	require.Len(t, todos, 2)

	gymTodo := todos[gym.ID+"@planner"]
	require.NotNil(t, gymTodo)
	summary, err := gymTodo.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Gym", summary)
	assert.Equal(t, "20240610", gymTodo.Props.Get(ical.PropDateTimeStart).Value)
	assert.Equal(t, "1", gymTodo.Props.Get(ical.PropPriority).Value)
	rrule := gymTodo.Props.Get(ical.PropRecurrenceRule)
	require.NotNil(t, rrule)
	assert.Contains(t, rrule.Value, "FREQ=WEEKLY")
	assert.Contains(t, rrule.Value, "BYDAY=MO,WE,FR")

	reportTodo := todos[report.ID+"@planner"]
	require.NotNil(t, reportTodo)
	title, err := reportTodo.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Report, final", title)
	assert.Nil(t, reportTodo.Props.Get(ical.PropDateTimeStart), "goals carry no date")
	assert.Nil(t, reportTodo.Props.Get(ical.PropRecurrenceRule))
}
