package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"planner/internal/model"
)

// ErrUnknownPattern is returned when a rule has no RFC 5545 equivalent.
var ErrUnknownPattern = errors.New("unknown recurrence pattern")

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Options converts the rule to rrule-go options anchored at dtstart. A zero
// dtstart leaves DTSTART out.
//
// Monthly rules diverge for anchors past the 28th: RFC 5545 skips months that
// lack the day, while the planner rolls over into the next month.
func Options(rule Rule, dtstart time.Time) (rrule.ROption, error) {
	rule = rule.normalized()

	opt := rrule.ROption{Interval: rule.Interval, Dtstart: dtstart}
	switch rule.Pattern {
	case model.Daily:
		opt.Freq = rrule.DAILY
	case model.Weekly:
		opt.Freq = rrule.WEEKLY
		for _, wd := range rule.Weekdays {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[wd])
		}
	case model.Monthly:
		opt.Freq = rrule.MONTHLY
	case model.Yearly:
		opt.Freq = rrule.YEARLY
	default:
		return rrule.ROption{}, fmt.Errorf("%w: %q", ErrUnknownPattern, rule.Pattern)
	}

	if rule.End != nil {
		// UNTIL is inclusive; cover the whole end date.
		opt.Until = rule.End.Add(24*time.Hour - time.Second)
	}
	return opt, nil
}

// RRule renders the rule as the value of an RRULE property, e.g.
// "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE".
func RRule(rule Rule) (string, error) {
	opt, err := Options(rule, time.Time{})
	if err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}
