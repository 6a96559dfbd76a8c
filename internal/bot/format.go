package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"planner/internal/agenda"
	"planner/internal/calendar"
	"planner/internal/model"
)

const (
	cbDonePrefix    = "done:"
	cbDeletePrefix  = "del:"
	cbConfirmPrefix = "delok:"
	cbCancel        = "cancel"

	iconOpen      = "🟢"
	iconImportant = "⭐"
	iconDone      = "✅"
	iconRecurring = "♻️"

	// shortIDLen is how much of a task id the bot shows; any unique prefix
	// is accepted back.
	shortIDLen = 8
)

var (
	errNoMatch   = errors.New("no task matches that id")
	errAmbiguous = errors.New("more than one task matches that id")
)

// parseAddArgs splits "/add Title | 2024-06-10" into the title and the
// optional normalized due date.
func parseAddArgs(args string) (string, *string, error) {
	title, rawDate, hasDate := strings.Cut(args, "|")
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil, errors.New("title is required")
	}
	if !hasDate || strings.TrimSpace(rawDate) == "" {
		return title, nil, nil
	}
	due, err := calendar.ParseISODate(strings.TrimSpace(rawDate))
	if err != nil {
		return "", nil, errors.New("date must look like 2024-06-10")
	}
	return title, model.Ptr(calendar.ToISODate(due)), nil
}

// matchPrefix finds the single task whose id starts with prefix.
func matchPrefix(tasks []model.Task, prefix string) (model.Task, error) {
	prefix = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(prefix), "#"))
	if prefix == "" {
		return model.Task{}, errNoMatch
	}
	var found []model.Task
	for _, t := range tasks {
		if strings.HasPrefix(strings.ToLower(t.ID), prefix) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return model.Task{}, errNoMatch
	case 1:
		return found[0], nil
	default:
		return model.Task{}, errAmbiguous
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func taskIcon(t model.Task) string {
	switch {
	case t.IsCompleted:
		return iconDone
	case t.IsImportant:
		return iconImportant
	default:
		return iconOpen
	}
}

// formatTaskLine renders "🟢 <code>1a2b3c4d</code> Title · 2024-06-10 14:00".
func formatTaskLine(t model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <code>%s</code> %s", taskIcon(t), shortID(t.ID), escape(strings.TrimSpace(t.Title)))

	var when []string
	switch t.EffectiveScope() {
	case model.ScopeDate:
		if t.DueDate != nil {
			when = append(when, *t.DueDate)
		}
		if t.DueTime != nil {
			when = append(when, *t.DueTime)
		}
	case model.ScopeWeek:
		if t.TargetWeek != nil {
			when = append(when, *t.TargetWeek)
		}
	case model.ScopeMonth:
		if t.TargetMonth != nil {
			when = append(when, *t.TargetMonth)
		}
	}
	if len(when) > 0 {
		fmt.Fprintf(&b, " · %s", strings.Join(when, " "))
	}
	if t.IsRecurring {
		b.WriteString(" " + iconRecurring)
	}
	return b.String()
}

// formatEntryLine renders a timeline entry. Projected occurrences carry no id
// because they cannot be acted upon.
func formatEntryLine(e agenda.Entry) string {
	if e.IsVirtual() {
		line := fmt.Sprintf("%s %s", iconRecurring, escape(strings.TrimSpace(e.Title())))
		if tm := e.Time(); tm != "" {
			line += " · " + tm
		}
		return line
	}
	view := e.View()
	line := fmt.Sprintf("%s <code>%s</code> %s", taskIcon(view), shortID(view.ID), escape(strings.TrimSpace(view.Title)))
	if tm := e.Time(); tm != "" {
		line += " · " + tm
	}
	return line
}
