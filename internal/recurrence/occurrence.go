package recurrence

import (
	"encoding/json"
	"time"

	"planner/internal/calendar"
	"planner/internal/model"
)

// VirtualOccurrence is a projected instance of a recurring task. It exists
// only for display and has no setters, so it cannot be handed to a
// repository by mistake.
type VirtualOccurrence struct {
	id       string
	originID string
	date     time.Time
	task     model.Task
}

func newVirtualOccurrence(origin model.Task, date time.Time) VirtualOccurrence {
	iso := calendar.ToISODate(date)
	id := VirtualID(origin.ID, date)

	view := origin.Clone()
	view.ID = id
	view.IsCompleted = false
	view.DueDate = &iso
	for i := range view.Subtasks {
		view.Subtasks[i].IsCompleted = false
	}

	return VirtualOccurrence{id: id, originID: origin.ID, date: date, task: view}
}

// VirtualID returns the synthetic id of the occurrence of originID on date.
func VirtualID(originID string, date time.Time) string {
	return model.VirtualIDPrefix + originID + "-" + calendar.ToISODate(date)
}

func (v VirtualOccurrence) ID() string       { return v.id }
func (v VirtualOccurrence) OriginID() string { return v.originID }
func (v VirtualOccurrence) Date() time.Time  { return v.date }
func (v VirtualOccurrence) Title() string    { return v.task.Title }

// View returns a detached copy of the occurrence as a task, for rendering.
// Its ID is the synthetic virtual id.
func (v VirtualOccurrence) View() model.Task {
	return v.task.Clone()
}

type virtualJSON struct {
	model.Task
	IsVirtual bool   `json:"isVirtual"`
	OriginID  string `json:"originId"`
}

func (v VirtualOccurrence) MarshalJSON() ([]byte, error) {
	return json.Marshal(virtualJSON{Task: v.task, IsVirtual: true, OriginID: v.originID})
}

func dedupKey(date, title string) string {
	return date + "|" + title
}

// Project returns the virtual occurrences of the recurring tasks that fall in
// [windowStart, windowEnd]. A candidate is dropped when any stored task, or an
// occurrence emitted earlier, already has the same date and title. The due
// date itself is never a candidate: the stored task stands for it.
//
// Tasks are visited in order, so identical inputs give identical output.
func (e *Engine) Project(tasks []model.Task, windowStart, windowEnd time.Time) []VirtualOccurrence {
	start, end := calendar.Normalize(windowStart), calendar.Normalize(windowEnd)
	if end.Before(start) {
		return nil
	}

	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		date := *t.DueDate
		if due, ok := t.Due(); ok {
			date = calendar.ToISODate(due)
		}
		seen[dedupKey(date, t.Title)] = struct{}{}
	}

	var out []VirtualOccurrence
	for _, t := range tasks {
		if !t.IsRecurring {
			continue
		}
		rule, ok := e.RuleFromTask(t)
		if !ok {
			continue
		}
		anchor, ok := e.anchor(t)
		if !ok {
			continue
		}

		limit := end
		if rule.End != nil && rule.End.Before(limit) {
			limit = *rule.End
		}

		cursor := fastForward(rule, anchor, start)
		for steps := 0; ; steps++ {
			if steps >= e.maxSteps {
				e.logger.Warn("recurrence projection hit the step limit",
					"task_id", t.ID, "max_steps", e.maxSteps)
				break
			}
			next, ok := e.step(rule, cursor)
			if !ok || !next.After(cursor) || next.After(limit) {
				break
			}
			cursor = next
			if next.Before(start) {
				continue
			}

			key := dedupKey(calendar.ToISODate(next), t.Title)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, newVirtualOccurrence(t, next))
		}
	}
	return out
}

// fastForward jumps over whole periods of fixed-length rules so that old
// series do not burn their step budget before reaching the window. The
// returned cursor is still strictly before start, which keeps the emitted
// dates identical to plain stepping.
func fastForward(rule Rule, anchor, start time.Time) time.Time {
	var period int
	switch {
	case rule.Pattern == model.Daily:
		period = rule.Interval
	case rule.Pattern == model.Weekly && len(rule.Weekdays) == 0:
		period = 7 * rule.Interval
	default:
		return anchor
	}

	gap := daysBetween(anchor, start)
	if gap <= period {
		return anchor
	}
	return calendar.AddDays(anchor, (gap-1)/period*period)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// NewOccurrenceTask builds the unsaved task that continues origin's series on
// next. The copy keeps the rule and content of origin, starts incomplete, and
// points back at origin through ParentTaskID.
func NewOccurrenceTask(origin model.Task, next time.Time) model.Task {
	succ := origin.Clone()
	succ.ID = ""
	succ.CreatedAt = time.Time{}
	succ.IsCompleted = false

	due := calendar.ToISODate(next)
	succ.DueDate = &due
	parent := origin.ID
	succ.ParentTaskID = &parent

	for i := range succ.Subtasks {
		succ.Subtasks[i].ID = ""
		succ.Subtasks[i].TaskID = ""
		succ.Subtasks[i].IsCompleted = false
	}
	return succ
}
