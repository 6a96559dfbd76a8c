package model

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"planner/internal/calendar"
)

// Scope selects which temporal field of a task is authoritative.
type Scope string

const (
	ScopeDate  Scope = "date"
	ScopeWeek  Scope = "week"
	ScopeMonth Scope = "month"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeDate, ScopeWeek, ScopeMonth:
		return true
	}
	return false
}

// Pattern is the stepping unit of a recurrence rule.
type Pattern string

const (
	Daily   Pattern = "daily"
	Weekly  Pattern = "weekly"
	Monthly Pattern = "monthly"
	Yearly  Pattern = "yearly"
)

func (p Pattern) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// VirtualIDPrefix marks ids of projected occurrences. Such ids never reach
// the database.
const VirtualIDPrefix = "virtual-"

func IsVirtualID(id string) bool {
	return strings.HasPrefix(id, VirtualIDPrefix)
}

// Task is a single item in the planner. Dates are stored as YYYY-MM-DD
// strings; use Due and RecurrenceEnd to read them as calendar dates.
type Task struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description *string   `json:"description"`
	IsCompleted bool      `gorm:"default:false" json:"isCompleted"`
	IsImportant bool      `gorm:"default:false" json:"isImportant"`
	GroupID     *string   `gorm:"size:36;index" json:"groupId"`
	CreatedAt   time.Time `json:"createdAt"`

	Scope       Scope   `gorm:"size:8" json:"scope,omitempty"`
	DueDate     *string `gorm:"size:10;index" json:"dueDate"`
	DueTime     *string `gorm:"size:5" json:"dueTime"`
	TargetWeek  *string `gorm:"size:12;index" json:"targetWeek"`
	TargetMonth *string `gorm:"size:7;index" json:"targetMonth"`

	IsRecurring        bool     `gorm:"default:false" json:"isRecurring"`
	RecurrencePattern  *Pattern `gorm:"size:8" json:"recurrencePattern"`
	RecurrenceInterval int      `json:"recurrenceInterval,omitempty"`
	RecurrenceDays     []int    `gorm:"serializer:json" json:"recurrenceDays"`
	RecurrenceEndDate  *string  `gorm:"size:10" json:"recurrenceEndDate"`
	ParentTaskID       *string  `gorm:"size:36;index" json:"parentTaskId"`

	Subtasks []Subtask `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"subtasks"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// EffectiveScope reads rows written before scopes existed as date-scoped.
func (t Task) EffectiveScope() Scope {
	if t.Scope == "" {
		return ScopeDate
	}
	return t.Scope
}

// Due returns the due date. It reports false when none is set or the stored
// value is not a valid date.
func (t Task) Due() (time.Time, bool) {
	return parseDate(t.DueDate)
}

// RecurrenceEnd returns the inclusive end of the series, if any.
func (t Task) RecurrenceEnd() (time.Time, bool) {
	return parseDate(t.RecurrenceEndDate)
}

// Pattern returns the recurrence pattern or "" when unset.
func (t Task) Pattern() Pattern {
	if t.RecurrencePattern == nil {
		return ""
	}
	return *t.RecurrencePattern
}

// Clone returns a deep copy that shares no pointers with t.
func (t Task) Clone() Task {
	c := t
	c.Description = clonePtr(t.Description)
	c.GroupID = clonePtr(t.GroupID)
	c.DueDate = clonePtr(t.DueDate)
	c.DueTime = clonePtr(t.DueTime)
	c.TargetWeek = clonePtr(t.TargetWeek)
	c.TargetMonth = clonePtr(t.TargetMonth)
	c.RecurrencePattern = clonePtr(t.RecurrencePattern)
	c.RecurrenceDays = slices.Clone(t.RecurrenceDays)
	c.RecurrenceEndDate = clonePtr(t.RecurrenceEndDate)
	c.ParentTaskID = clonePtr(t.ParentTaskID)
	c.Subtasks = slices.Clone(t.Subtasks)
	return c
}

// Subtask is a checklist item of a task. Position orders the checklist; it is
// unique per task but not necessarily contiguous.
type Subtask struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	TaskID      string `gorm:"size:36;not null;index;uniqueIndex:idx_subtask_position" json:"taskId"`
	Title       string `gorm:"not null" json:"title"`
	IsCompleted bool   `gorm:"default:false" json:"isCompleted"`
	Position    int    `gorm:"not null;uniqueIndex:idx_subtask_position" json:"position"`
}

func (s *Subtask) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func parseDate(s *string) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	d, err := calendar.ParseISODate(*s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
