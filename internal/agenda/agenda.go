// Package agenda merges stored tasks and projected occurrences into the
// timeline shown by the calendar views.
package agenda

import (
	"encoding/json"
	"sort"
	"time"

	"planner/internal/calendar"
	"planner/internal/model"
	"planner/internal/recurrence"
)

// Entry is one item on a timeline. It is implemented only by Stored and
// Virtual; callers that need to modify or delete a task must type-switch to
// Stored.
type Entry interface {
	ID() string
	Title() string
	// Date is the calendar date the entry is shown on, if any.
	Date() (time.Time, bool)
	// Time is the HH:MM clock time, or "" for all-day entries.
	Time() string
	// View is a detached copy for rendering.
	View() model.Task
	IsVirtual() bool

	sealed()
}

// Stored wraps a persisted task.
type Stored struct {
	Task model.Task
}

func (s Stored) ID() string    { return s.Task.ID }
func (s Stored) Title() string { return s.Task.Title }
func (s Stored) Date() (time.Time, bool) {
	if s.Task.EffectiveScope() != model.ScopeDate {
		return time.Time{}, false
	}
	return s.Task.Due()
}
func (s Stored) Time() string     { return deref(s.Task.DueTime) }
func (s Stored) View() model.Task { return s.Task.Clone() }
func (Stored) IsVirtual() bool    { return false }
func (Stored) sealed()            {}

func (s Stored) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Task)
}

// Virtual wraps a projected occurrence. It cannot be persisted.
type Virtual struct {
	Occurrence recurrence.VirtualOccurrence
}

func (v Virtual) ID() string              { return v.Occurrence.ID() }
func (v Virtual) Title() string           { return v.Occurrence.Title() }
func (v Virtual) Date() (time.Time, bool) { return v.Occurrence.Date(), true }
func (v Virtual) Time() string            { return deref(v.Occurrence.View().DueTime) }
func (v Virtual) View() model.Task        { return v.Occurrence.View() }
func (Virtual) IsVirtual() bool           { return true }
func (Virtual) sealed()                   {}

func (v Virtual) MarshalJSON() ([]byte, error) {
	return v.Occurrence.MarshalJSON()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Merge lists stored tasks first, then occurrences, both in input order.
func Merge(tasks []model.Task, occurrences []recurrence.VirtualOccurrence) []Entry {
	entries := make([]Entry, 0, len(tasks)+len(occurrences))
	for _, t := range tasks {
		entries = append(entries, Stored{Task: t})
	}
	for _, o := range occurrences {
		entries = append(entries, Virtual{Occurrence: o})
	}
	return entries
}

// OnDay keeps the entries shown on day: date-scoped tasks due that day and
// the occurrences projected onto it.
func OnDay(entries []Entry, day time.Time) []Entry {
	day = calendar.Normalize(day)
	var out []Entry
	for _, e := range entries {
		if d, ok := e.Date(); ok && d.Equal(day) {
			out = append(out, e)
		}
	}
	return out
}

// SplitByTime separates all-day entries from timed ones. Timed entries are
// sorted by clock time; ties keep their input order.
func SplitByTime(entries []Entry) (allDay, timed []Entry) {
	for _, e := range entries {
		if e.Time() == "" {
			allDay = append(allDay, e)
		} else {
			timed = append(timed, e)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Time() < timed[j].Time()
	})
	return allDay, timed
}

// InWeek returns the week-scoped tasks targeting the week key.
func InWeek(tasks []model.Task, key string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.EffectiveScope() == model.ScopeWeek && t.TargetWeek != nil && *t.TargetWeek == key {
			out = append(out, t)
		}
	}
	return out
}

// InMonth returns the month-scoped tasks targeting the YYYY-MM key.
func InMonth(tasks []model.Task, key string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.EffectiveScope() == model.ScopeMonth && t.TargetMonth != nil && *t.TargetMonth == key {
			out = append(out, t)
		}
	}
	return out
}

// Between keeps the entries dated within [start, end].
func Between(entries []Entry, start, end time.Time) []Entry {
	start, end = calendar.Normalize(start), calendar.Normalize(end)
	var out []Entry
	for _, e := range entries {
		d, ok := e.Date()
		if ok && !d.Before(start) && !d.After(end) {
			out = append(out, e)
		}
	}
	return out
}
