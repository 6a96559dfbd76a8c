package service

import (
	"context"
	"errors"
	"time"

	"planner/internal/agenda"
	"planner/internal/calendar"
	"planner/internal/holiday"
	"planner/internal/model"
	"planner/internal/recurrence"
	"planner/internal/repository"
)

// DayCell is one day of a calendar view.
type DayCell struct {
	Date    string           `json:"date"`
	InMonth bool             `json:"inMonth"`
	Holiday *holiday.Holiday `json:"holiday,omitempty"`
	Entries []agenda.Entry   `json:"entries"`
}

// MonthView is the month grid with its weeks, goals and holidays.
type MonthView struct {
	Key      string              `json:"key"`
	Name     string              `json:"name"`
	Grid     [][]DayCell         `json:"grid"`
	Weeks    []calendar.WeekInfo `json:"weeks"`
	Goals    []model.Task        `json:"goals"`
	Holidays []holiday.Holiday   `json:"holidays"`
}

// WeekView is one owned week with its goals.
type WeekView struct {
	Key   string            `json:"key"`
	Week  calendar.WeekInfo `json:"week"`
	Days  []DayCell         `json:"days"`
	Goals []model.Task      `json:"goals"`
}

// DayView splits a day into all-day and timed entries.
type DayView struct {
	Date    string           `json:"date"`
	Holiday *holiday.Holiday `json:"holiday,omitempty"`
	AllDay  []agenda.Entry   `json:"allDay"`
	Timed   []agenda.Entry   `json:"timed"`
}

// CalendarService builds the month, week and day views. Recurring tasks are
// projected over exactly the visible window.
type CalendarService struct {
	taskRepo *repository.TaskRepository
	engine   *recurrence.Engine
	holidays holiday.Provider
}

func NewCalendarService(taskRepo *repository.TaskRepository, engine *recurrence.Engine, holidays holiday.Provider) *CalendarService {
	return &CalendarService{taskRepo: taskRepo, engine: engine, holidays: holidays}
}

// Timeline returns stored and projected entries dated within [start, end].
func (s *CalendarService) Timeline(ctx context.Context, start, end time.Time) ([]model.Task, []agenda.Entry, error) {
	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, nil, err
	}
	occurrences := s.engine.Project(tasks, start, end)
	return tasks, agenda.Between(agenda.Merge(tasks, occurrences), start, end), nil
}

func (s *CalendarService) Month(ctx context.Context, year int, month time.Month) (*MonthView, error) {
	if month < time.January || month > time.December {
		return nil, validationf("month %d out of range", int(month))
	}

	grid := calendar.GridWeeks(year, month)
	start, end := grid[0][0], grid[len(grid)-1][6]
	tasks, entries, err := s.Timeline(ctx, start, end)
	if err != nil {
		return nil, err
	}
	holidays := holiday.Between(s.holidays, start, end)

	view := &MonthView{
		Key:      calendar.MonthKey(year, month),
		Name:     calendar.MonthName(month),
		Weeks:    calendar.WeeksOfMonth(year, month),
		Goals:    agenda.InMonth(tasks, calendar.MonthKey(year, month)),
		Holidays: holidays,
	}
	for _, row := range grid {
		cells := make([]DayCell, 0, len(row))
		for _, day := range row {
			cell := newDayCell(day, entries, holidays)
			cell.InMonth = day.Month() == month
			cells = append(cells, cell)
		}
		view.Grid = append(view.Grid, cells)
	}
	return view, nil
}

// Week resolves a YYYY-MM-Wn key. Malformed keys are validation errors; a
// week the month does not have is calendar.ErrWeekNotFound.
func (s *CalendarService) Week(ctx context.Context, key string) (*WeekView, error) {
	week, err := calendar.ParseWeekKey(key)
	if err != nil {
		if errors.Is(err, calendar.ErrWeekNotFound) {
			return nil, err
		}
		return nil, validationf("week key: %v", err)
	}

	tasks, entries, err := s.Timeline(ctx, week.Start, week.End)
	if err != nil {
		return nil, err
	}
	holidays := holiday.Between(s.holidays, week.Start, week.End)

	view := &WeekView{Key: week.Key(), Week: week, Goals: agenda.InWeek(tasks, week.Key())}
	for _, day := range week.Days() {
		cell := newDayCell(day, entries, holidays)
		cell.InMonth = day.Month() == week.Month
		view.Days = append(view.Days, cell)
	}
	return view, nil
}

func (s *CalendarService) Day(ctx context.Context, day time.Time) (*DayView, error) {
	day = calendar.Normalize(day)
	_, entries, err := s.Timeline(ctx, day, day)
	if err != nil {
		return nil, err
	}

	view := &DayView{Date: calendar.ToISODate(day)}
	if h, ok := holiday.Find(view.Date, s.holidays.ForYear(day.Year())); ok {
		view.Holiday = &h
	}
	view.AllDay, view.Timed = agenda.SplitByTime(agenda.OnDay(entries, day))
	return view, nil
}

func newDayCell(day time.Time, entries []agenda.Entry, holidays []holiday.Holiday) DayCell {
	cell := DayCell{Date: calendar.ToISODate(day), Entries: agenda.OnDay(entries, day)}
	if h, ok := holiday.Find(cell.Date, holidays); ok {
		cell.Holiday = &h
	}
	if cell.Entries == nil {
		cell.Entries = []agenda.Entry{}
	}
	return cell
}
