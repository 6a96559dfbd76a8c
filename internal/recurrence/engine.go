package recurrence

import (
	"io"
	"log/slog"
	"time"

	"planner/internal/calendar"
	"planner/internal/model"
)

// DefaultMaxSteps bounds the number of steps Project takes per task.
const DefaultMaxSteps = 10000

// Engine steps recurrence rules. It holds no state besides its settings and
// is safe for concurrent use.
type Engine struct {
	logger   *slog.Logger
	maxSteps int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for data-integrity warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxSteps overrides DefaultMaxSteps. Non-positive values are ignored.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RuleFromTask returns the recurrence rule of t. It reports false for
// non-recurring tasks and for rules too broken to use; repairable problems
// are logged and fixed up.
func (e *Engine) RuleFromTask(t model.Task) (Rule, bool) {
	rule, warnings, ok := ruleFromTask(t)
	for _, w := range warnings {
		e.logger.Warn("malformed recurrence rule", "task_id", t.ID, "detail", w)
	}
	return rule, ok
}

// Step applies one step of rule to anchor without looking at the end date.
func (e *Engine) Step(rule Rule, anchor time.Time) (time.Time, bool) {
	return e.step(rule.normalized(), anchor)
}

// step expects a normalized rule.
func (e *Engine) step(rule Rule, anchor time.Time) (time.Time, bool) {
	switch rule.Pattern {
	case model.Daily:
		return calendar.AddDays(anchor, rule.Interval), true

	case model.Weekly:
		if len(rule.Weekdays) == 0 {
			return calendar.AddDays(anchor, 7*rule.Interval), true
		}
		current := anchor.Weekday()
		// A later weekday in the same week is taken regardless of the interval.
		for _, wd := range rule.Weekdays {
			if wd > current {
				return calendar.AddDays(anchor, int(wd-current)), true
			}
		}
		days := int(time.Saturday-current) + 1 + (rule.Interval-1)*7 + int(rule.Weekdays[0])
		return calendar.AddDays(anchor, days), true

	case model.Monthly:
		// AddDate normalizes overflow: Jan 31 + 1 month is Mar 2 (or Mar 3).
		return anchor.AddDate(0, rule.Interval, 0), true

	case model.Yearly:
		return anchor.AddDate(rule.Interval, 0, 0), true
	}

	e.logger.Warn("unknown recurrence pattern", "pattern", string(rule.Pattern))
	return time.Time{}, false
}

// Next returns the occurrence after anchor, or false once the series has
// ended.
func (e *Engine) Next(rule Rule, anchor time.Time) (time.Time, bool) {
	rule = rule.normalized()
	next, ok := e.step(rule, calendar.Normalize(anchor))
	if !ok {
		return time.Time{}, false
	}
	if rule.End != nil && next.After(*rule.End) {
		return time.Time{}, false
	}
	return next, true
}

// AdvanceOne returns the date of the occurrence that follows t, anchored on
// its due date.
func (e *Engine) AdvanceOne(t model.Task) (time.Time, bool) {
	rule, ok := e.RuleFromTask(t)
	if !ok {
		return time.Time{}, false
	}
	anchor, ok := e.anchor(t)
	if !ok {
		return time.Time{}, false
	}
	return e.Next(rule, anchor)
}

func (e *Engine) anchor(t model.Task) (time.Time, bool) {
	due, ok := t.Due()
	if ok {
		return due, true
	}
	if t.DueDate == nil {
		e.logger.Warn("recurring task has no due date", "task_id", t.ID)
	} else {
		e.logger.Warn("recurring task has a malformed due date", "task_id", t.ID, "due_date", *t.DueDate)
	}
	return time.Time{}, false
}
