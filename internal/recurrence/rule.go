// Package recurrence computes the dates of recurring tasks: the next concrete
// occurrence when a task is completed, and the virtual occurrences shown
// inside a calendar window.
package recurrence

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"planner/internal/calendar"
	"planner/internal/model"
)

// Rule is the normalized recurrence of a task. Weekdays is sorted and free of
// duplicates; End is inclusive.
type Rule struct {
	Pattern  model.Pattern
	Interval int
	Weekdays []time.Weekday
	End      *time.Time
}

// ruleFromTask extracts the rule of t. Problems with the stored data are
// returned as warnings so the caller can log them; ok is false when no rule
// can be derived at all.
func ruleFromTask(t model.Task) (rule Rule, warnings []string, ok bool) {
	if !t.IsRecurring {
		return Rule{}, nil, false
	}
	if t.RecurrencePattern == nil {
		return Rule{}, []string{"recurring task has no pattern"}, false
	}

	rule = Rule{Pattern: *t.RecurrencePattern, Interval: t.RecurrenceInterval}
	if rule.Interval < 1 {
		if rule.Interval < 0 {
			warnings = append(warnings, fmt.Sprintf("interval %d normalized to 1", rule.Interval))
		}
		rule.Interval = 1
	}

	for _, d := range t.RecurrenceDays {
		if d < 0 || d > 6 {
			warnings = append(warnings, fmt.Sprintf("weekday %d dropped", d))
			continue
		}
		rule.Weekdays = append(rule.Weekdays, time.Weekday(d))
	}
	rule.Weekdays = normalizeWeekdays(rule.Weekdays)

	if t.RecurrenceEndDate != nil && *t.RecurrenceEndDate != "" {
		end, err := calendar.ParseISODate(*t.RecurrenceEndDate)
		if err != nil {
			return Rule{}, append(warnings, "malformed end date "+*t.RecurrenceEndDate), false
		}
		rule.End = &end
	}
	return rule, warnings, true
}

func normalizeWeekdays(days []time.Weekday) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}

func (r Rule) normalized() Rule {
	if r.Interval < 1 {
		r.Interval = 1
	}
	r.Weekdays = normalizeWeekdays(r.Weekdays)
	return r
}

var weekdayShort = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Describe renders the rule for humans, e.g. "every 2 weeks on Mon, Wed".
func (r Rule) Describe() string {
	r = r.normalized()

	unit := map[model.Pattern]string{
		model.Daily:   "day",
		model.Weekly:  "week",
		model.Monthly: "month",
		model.Yearly:  "year",
	}[r.Pattern]
	if unit == "" {
		return "unknown recurrence " + string(r.Pattern)
	}

	var b strings.Builder
	if r.Interval == 1 {
		b.WriteString("every " + unit)
	} else {
		fmt.Fprintf(&b, "every %d %ss", r.Interval, unit)
	}
	if r.Pattern == model.Weekly && len(r.Weekdays) > 0 {
		names := make([]string, len(r.Weekdays))
		for i, wd := range r.Weekdays {
			names[i] = weekdayShort[wd]
		}
		b.WriteString(" on " + strings.Join(names, ", "))
	}
	if r.End != nil {
		b.WriteString(" until " + calendar.ToISODate(*r.End))
	}
	return b.String()
}
