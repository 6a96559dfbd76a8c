package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"planner/internal/agenda"
	"planner/internal/calendar"
	"planner/internal/holiday"
	"planner/internal/model"
	"planner/internal/recurrence"
	"planner/internal/repository"
)

// ReminderService builds human-readable summaries for daily notifications.
// The output is Telegram HTML.
type ReminderService struct {
	taskRepo  *repository.TaskRepository
	groupRepo *repository.GroupRepository
	engine    *recurrence.Engine
	holidays  holiday.Provider
}

func NewReminderService(taskRepo *repository.TaskRepository, groupRepo *repository.GroupRepository, engine *recurrence.Engine, holidays holiday.Provider) *ReminderService {
	return &ReminderService{taskRepo: taskRepo, groupRepo: groupRepo, engine: engine, holidays: holidays}
}

// DailySummary renders the digest for the calendar day of today.
func (s *ReminderService) DailySummary(ctx context.Context, today time.Time) (string, error) {
	today = calendar.Normalize(today)

	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{})
	if err != nil {
		return "", err
	}
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return "", err
	}
	groupNames := make(map[string]string, len(groups))
	for _, g := range groups {
		groupNames[g.ID] = g.Name
	}

	var dueToday []agenda.Entry
	entries := agenda.Merge(tasks, s.engine.Project(tasks, today, today))
	for _, e := range agenda.OnDay(entries, today) {
		if e.View().IsCompleted {
			continue
		}
		dueToday = append(dueToday, e)
	}
	allDay, timed := agenda.SplitByTime(dueToday)

	var overdue []model.Task
	for _, t := range tasks {
		if t.IsCompleted || t.EffectiveScope() != model.ScopeDate {
			continue
		}
		if due, ok := t.Due(); ok && due.Before(today) {
			overdue = append(overdue, t)
		}
	}
	sort.SliceStable(overdue, func(i, j int) bool {
		return *overdue[i].DueDate < *overdue[j].DueDate
	})

	week := calendar.WeekContaining(today)
	weekGoals := openOnly(agenda.InWeek(tasks, week.Key()))
	monthGoals := openOnly(agenda.InMonth(tasks, calendar.MonthKeyOf(today)))

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", today.Format("02.01.2006")))
	if h, ok := holiday.Find(calendar.ToISODate(today), s.holidays.ForYear(today.Year())); ok {
		builder.WriteString(fmt.Sprintf("🎉 %s\n", html.EscapeString(h.Name)))
	}

	builder.WriteString("\n🔥 <b>Today</b>\n")
	if len(allDay)+len(timed) == 0 {
		builder.WriteString("— nothing scheduled\n")
	}
	for _, e := range append(timed, allDay...) {
		builder.WriteString(formatEntry(e, groupNames))
	}

	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Overdue</b>\n")
		for _, t := range overdue {
			builder.WriteString(formatTask(t, groupNames, fmt.Sprintf("was due %s", *t.DueDate)))
		}
	}

	builder.WriteString(fmt.Sprintf("\n🎯 <b>%s</b>\n", html.EscapeString(week.Label)))
	writeGoals(&builder, weekGoals, groupNames)

	builder.WriteString(fmt.Sprintf("\n🗂 <b>%s</b>\n", calendar.MonthName(today.Month())))
	writeGoals(&builder, monthGoals, groupNames)

	return strings.TrimSpace(builder.String()), nil
}

func openOnly(tasks []model.Task) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if !t.IsCompleted {
			out = append(out, t)
		}
	}
	return out
}

func writeGoals(b *strings.Builder, goals []model.Task, groupNames map[string]string) {
	if len(goals) == 0 {
		b.WriteString("— no open goals\n")
		return
	}
	for _, t := range goals {
		b.WriteString(formatTask(t, groupNames, ""))
	}
}

func formatEntry(e agenda.Entry, groupNames map[string]string) string {
	note := e.Time()
	if e.IsVirtual() {
		note = strings.TrimSpace(note + " ♻️")
	}
	return formatTask(e.View(), groupNames, note)
}

func formatTask(task model.Task, groupNames map[string]string, note string) string {
	var sb strings.Builder

	icon := "🟢"
	if task.IsImportant {
		icon = "⭐"
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))

	if task.GroupID != nil {
		if name := strings.TrimSpace(groupNames[*task.GroupID]); name != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
		}
	}
	if note != "" {
		sb.WriteString(fmt.Sprintf(" · %s", html.EscapeString(note)))
	}
	if task.Description != nil {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(*task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}
