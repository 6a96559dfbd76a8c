package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"

	"planner/internal/calendar"
	"planner/internal/holiday"
	"planner/internal/model"
	"planner/internal/recurrence"
	"planner/internal/repository"
)

const productID = "-//planner//planner 1.0//EN"

// ExportService renders tasks and holidays as an iCalendar feed.
type ExportService struct {
	taskRepo  *repository.TaskRepository
	groupRepo *repository.GroupRepository
	engine    *recurrence.Engine
	holidays  holiday.Provider
	logger    *slog.Logger
}

func NewExportService(taskRepo *repository.TaskRepository, groupRepo *repository.GroupRepository, engine *recurrence.Engine, holidays holiday.Provider, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{taskRepo: taskRepo, groupRepo: groupRepo, engine: engine, holidays: holidays, logger: logger}
}

// Export writes one VTODO per stored task and one all-day VEVENT per holiday
// of the given years. stamp becomes every component's DTSTAMP.
func (s *ExportService) Export(ctx context.Context, w io.Writer, years []int, stamp time.Time) error {
	cal, err := s.Calendar(ctx, years, stamp)
	if err != nil {
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func (s *ExportService) Calendar(ctx context.Context, years []int, stamp time.Time) (*ical.Calendar, error) {
	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	groupNames := make(map[string]string, len(groups))
	for _, g := range groups {
		groupNames[g.ID] = g.Name
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")

	for _, t := range tasks {
		cal.Children = append(cal.Children, s.todo(t, groupNames, stamp))
	}
	for _, year := range years {
		for i, h := range s.holidays.ForYear(year) {
			event, err := holidayEvent(h, i, stamp)
			if err != nil {
				return nil, err
			}
			cal.Children = append(cal.Children, event)
		}
	}
	return cal, nil
}

func (s *ExportService) todo(t model.Task, groupNames map[string]string, stamp time.Time) *ical.Component {
	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, t.ID+"@planner")
	todo.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	todo.Props.SetText(ical.PropSummary, t.Title)
	if t.Description != nil {
		todo.Props.SetText(ical.PropDescription, *t.Description)
	}
	if t.GroupID != nil {
		if name, ok := groupNames[*t.GroupID]; ok {
			todo.Props.SetText(ical.PropCategories, name)
		}
	}
	if t.IsImportant {
		todo.Props.SetText(ical.PropPriority, "1")
	}
	if t.IsCompleted {
		todo.Props.SetText(ical.PropStatus, "COMPLETED")
	} else {
		todo.Props.SetText(ical.PropStatus, "NEEDS-ACTION")
	}

	due, ok := t.Due()
	if !ok || t.EffectiveScope() != model.ScopeDate {
		return todo
	}
	todo.Props.SetDate(ical.PropDateTimeStart, due)

	if !t.IsRecurring {
		return todo
	}
	rule, ok := s.engine.RuleFromTask(t)
	if !ok {
		return todo
	}
	value, err := recurrence.RRule(rule)
	if err != nil {
		s.logger.Warn("recurrence not exported", "task_id", t.ID, "error", err)
		return todo
	}
	// RRULE is a RECUR value; SetText would escape its commas.
	prop := ical.NewProp(ical.PropRecurrenceRule)
	prop.Value = value
	todo.Props.Set(prop)
	return todo
}

// holidayEvent numbers the UID since two holidays can share a date.
func holidayEvent(h holiday.Holiday, n int, stamp time.Time) (*ical.Component, error) {
	day, err := calendar.ParseISODate(h.Date)
	if err != nil {
		return nil, fmt.Errorf("holiday %q: %w", h.Name, err)
	}
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("holiday-%s-%d@planner", h.Date, n))
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetText(ical.PropSummary, h.Name)
	event.Props.SetDate(ical.PropDateTimeStart, day)
	event.Props.SetDate(ical.PropDateTimeEnd, calendar.AddDays(day, 1))
	event.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	event.Props.SetText(ical.PropCategories, string(h.Kind))
	return event.Component, nil
}
