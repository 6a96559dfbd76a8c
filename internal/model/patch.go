package model

import (
	"slices"

	"github.com/samber/mo"
)

// TaskDraft carries the fields of a task to create.
type TaskDraft struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsCompleted bool    `json:"isCompleted"`
	IsImportant bool    `json:"isImportant"`
	GroupID     *string `json:"groupId"`

	Scope       Scope   `json:"scope"`
	DueDate     *string `json:"dueDate"`
	DueTime     *string `json:"dueTime"`
	TargetWeek  *string `json:"targetWeek"`
	TargetMonth *string `json:"targetMonth"`

	IsRecurring        bool     `json:"isRecurring"`
	RecurrencePattern  *Pattern `json:"recurrencePattern"`
	RecurrenceInterval int      `json:"recurrenceInterval"`
	RecurrenceDays     []int    `json:"recurrenceDays"`
	RecurrenceEndDate  *string  `json:"recurrenceEndDate"`
	ParentTaskID       *string  `json:"parentTaskId"`

	Subtasks []SubtaskDraft `json:"subtasks"`
}

// SubtaskDraft is a checklist item to create. A nil Position appends.
type SubtaskDraft struct {
	Title    string `json:"title"`
	Position *int   `json:"position"`
}

// Task builds the unsaved task described by the draft.
func (d TaskDraft) Task() Task {
	t := Task{
		Title:              d.Title,
		Description:        clonePtr(d.Description),
		IsCompleted:        d.IsCompleted,
		IsImportant:        d.IsImportant,
		GroupID:            clonePtr(d.GroupID),
		Scope:              d.Scope,
		DueDate:            clonePtr(d.DueDate),
		DueTime:            clonePtr(d.DueTime),
		TargetWeek:         clonePtr(d.TargetWeek),
		TargetMonth:        clonePtr(d.TargetMonth),
		IsRecurring:        d.IsRecurring,
		RecurrencePattern:  clonePtr(d.RecurrencePattern),
		RecurrenceInterval: d.RecurrenceInterval,
		RecurrenceDays:     slices.Clone(d.RecurrenceDays),
		RecurrenceEndDate:  clonePtr(d.RecurrenceEndDate),
		ParentTaskID:       clonePtr(d.ParentTaskID),
	}
	t.Subtasks = BuildSubtasks(d.Subtasks)
	return t
}

// BuildSubtasks turns drafts into subtasks. Drafts without a position, or
// whose position an earlier draft already holds, are appended after the
// highest position seen so far.
func BuildSubtasks(drafts []SubtaskDraft) []Subtask {
	if len(drafts) == 0 {
		return nil
	}
	subtasks := make([]Subtask, 0, len(drafts))
	used := make(map[int]struct{}, len(drafts))
	next := 0
	for _, d := range drafts {
		pos := next
		if d.Position != nil {
			if _, taken := used[*d.Position]; !taken {
				pos = *d.Position
			}
		}
		if pos >= next {
			next = pos + 1
		}
		used[pos] = struct{}{}
		subtasks = append(subtasks, Subtask{Title: d.Title, Position: pos})
	}
	return subtasks
}

// TaskPatch is a partial update. Only present options are applied; for
// nullable columns mo.Some[*T](nil) clears the value while mo.None leaves it
// untouched.
type TaskPatch struct {
	Title       mo.Option[string]
	Description mo.Option[*string]
	IsCompleted mo.Option[bool]
	IsImportant mo.Option[bool]
	GroupID     mo.Option[*string]

	Scope       mo.Option[Scope]
	DueDate     mo.Option[*string]
	DueTime     mo.Option[*string]
	TargetWeek  mo.Option[*string]
	TargetMonth mo.Option[*string]

	IsRecurring        mo.Option[bool]
	RecurrencePattern  mo.Option[*Pattern]
	RecurrenceInterval mo.Option[int]
	RecurrenceDays     mo.Option[[]int]
	RecurrenceEndDate  mo.Option[*string]

	Subtasks mo.Option[[]SubtaskDraft]
}

// Apply writes the present fields of p onto t. Subtasks are not touched; the
// caller replaces them separately.
func (p TaskPatch) Apply(t *Task) {
	if v, ok := p.Title.Get(); ok {
		t.Title = v
	}
	if v, ok := p.Description.Get(); ok {
		t.Description = clonePtr(v)
	}
	if v, ok := p.IsCompleted.Get(); ok {
		t.IsCompleted = v
	}
	if v, ok := p.IsImportant.Get(); ok {
		t.IsImportant = v
	}
	if v, ok := p.GroupID.Get(); ok {
		t.GroupID = clonePtr(v)
	}
	if v, ok := p.Scope.Get(); ok {
		t.Scope = v
	}
	if v, ok := p.DueDate.Get(); ok {
		t.DueDate = clonePtr(v)
	}
	if v, ok := p.DueTime.Get(); ok {
		t.DueTime = clonePtr(v)
	}
	if v, ok := p.TargetWeek.Get(); ok {
		t.TargetWeek = clonePtr(v)
	}
	if v, ok := p.TargetMonth.Get(); ok {
		t.TargetMonth = clonePtr(v)
	}
	if v, ok := p.IsRecurring.Get(); ok {
		t.IsRecurring = v
	}
	if v, ok := p.RecurrencePattern.Get(); ok {
		t.RecurrencePattern = clonePtr(v)
	}
	if v, ok := p.RecurrenceInterval.Get(); ok {
		t.RecurrenceInterval = v
	}
	if v, ok := p.RecurrenceDays.Get(); ok {
		t.RecurrenceDays = slices.Clone(v)
	}
	if v, ok := p.RecurrenceEndDate.Get(); ok {
		t.RecurrenceEndDate = clonePtr(v)
	}
}

// GroupPatch is a partial group update.
type GroupPatch struct {
	Name  mo.Option[string]
	Color mo.Option[string]
}

func (p GroupPatch) Apply(g *Group) {
	if v, ok := p.Name.Get(); ok {
		g.Name = v
	}
	if v, ok := p.Color.Get(); ok {
		g.Color = v
	}
}

// SubtaskPatch is a partial subtask update.
type SubtaskPatch struct {
	Title       mo.Option[string]
	IsCompleted mo.Option[bool]
	Position    mo.Option[int]
}

func (p SubtaskPatch) Apply(s *Subtask) {
	if v, ok := p.Title.Get(); ok {
		s.Title = v
	}
	if v, ok := p.IsCompleted.Get(); ok {
		s.IsCompleted = v
	}
	if v, ok := p.Position.Get(); ok {
		s.Position = v
	}
}
