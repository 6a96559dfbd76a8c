package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/mo"

	"planner/internal/calendar"
	"planner/internal/model"
	"planner/internal/recurrence"
	"planner/internal/repository"
)

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	subtaskRepo *repository.SubtaskRepository
	engine      *recurrence.Engine
	logger      *slog.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, subtaskRepo *repository.SubtaskRepository, engine *recurrence.Engine, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TaskService{taskRepo: taskRepo, subtaskRepo: subtaskRepo, engine: engine, logger: logger}
}

func (s *TaskService) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	return s.taskRepo.List(ctx, filter)
}

func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	if model.IsVirtualID(id) {
		return nil, repository.ErrVirtualTask
	}
	return s.taskRepo.Get(ctx, id)
}

func (s *TaskService) Create(ctx context.Context, draft model.TaskDraft) (*model.Task, error) {
	task := draft.Task()
	if err := normalizeTask(&task); err != nil {
		return nil, err
	}
	for _, st := range task.Subtasks {
		if strings.TrimSpace(st.Title) == "" {
			return nil, validationf("subtask title is required")
		}
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	s.logger.Info("task created", "task_id", task.ID, "scope", task.Scope)
	return s.taskRepo.Get(ctx, task.ID)
}

// Update applies patch to the task. When the patch completes a recurring
// task, the next occurrence is created in the same transaction; a series
// that has ended simply stops.
func (s *TaskService) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	if model.IsVirtualID(id) {
		return nil, repository.ErrVirtualTask
	}

	var replacement []model.Subtask
	if drafts, ok := patch.Subtasks.Get(); ok {
		replacement = model.BuildSubtasks(drafts)
		for _, st := range replacement {
			if strings.TrimSpace(st.Title) == "" {
				return nil, validationf("subtask title is required")
			}
		}
	}

	err := s.taskRepo.Transaction(ctx, func(tx *repository.TaskRepository) error {
		task, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		wasCompleted := task.IsCompleted

		patch.Apply(task)
		if err := normalizeTask(task); err != nil {
			return err
		}
		if err := tx.Update(ctx, task); err != nil {
			return err
		}
		if patch.Subtasks.IsPresent() {
			if err := tx.ReplaceSubtasks(ctx, id, replacement); err != nil {
				return err
			}
			task.Subtasks = replacement
		}

		if wasCompleted || !task.IsCompleted || !task.IsRecurring {
			return nil
		}
		next, ok := s.engine.AdvanceOne(*task)
		if !ok {
			s.logger.Info("recurring series finished", "task_id", id)
			return nil
		}
		successor := recurrence.NewOccurrenceTask(*task, next)
		if err := tx.Create(ctx, &successor); err != nil {
			return fmt.Errorf("create next occurrence: %w", err)
		}
		s.logger.Info("next occurrence created", "task_id", id, "next_id", successor.ID, "due_date", *successor.DueDate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.taskRepo.Get(ctx, id)
}

// Complete marks the task done.
func (s *TaskService) Complete(ctx context.Context, id string) (*model.Task, error) {
	return s.Update(ctx, id, model.TaskPatch{IsCompleted: mo.Some(true)})
}

func (s *TaskService) ToggleImportant(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, id, model.TaskPatch{IsImportant: mo.Some(!task.IsImportant)})
}

// Delete removes a task and its subtasks.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if model.IsVirtualID(id) {
		return repository.ErrVirtualTask
	}
	return s.taskRepo.Delete(ctx, id)
}

func (s *TaskService) ListSubtasks(ctx context.Context, taskID string) ([]model.Subtask, error) {
	if _, err := s.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.subtaskRepo.ListByTask(ctx, taskID)
}

// AddSubtask appends a checklist item. Without an explicit position it goes
// after the current last item.
func (s *TaskService) AddSubtask(ctx context.Context, taskID string, draft model.SubtaskDraft) (*model.Subtask, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, validationf("subtask title is required")
	}
	if _, err := s.Get(ctx, taskID); err != nil {
		return nil, err
	}

	subtask := model.Subtask{TaskID: taskID, Title: title}
	if draft.Position != nil {
		if err := s.checkPosition(ctx, taskID, *draft.Position, ""); err != nil {
			return nil, err
		}
		subtask.Position = *draft.Position
	} else {
		next, err := s.subtaskRepo.NextPosition(ctx, taskID)
		if err != nil {
			return nil, err
		}
		subtask.Position = next
	}

	if err := s.subtaskRepo.Create(ctx, &subtask); err != nil {
		return nil, err
	}
	return &subtask, nil
}

func (s *TaskService) UpdateSubtask(ctx context.Context, id string, patch model.SubtaskPatch) (*model.Subtask, error) {
	if title, ok := patch.Title.Get(); ok && strings.TrimSpace(title) == "" {
		return nil, validationf("subtask title is required")
	}

	subtask, err := s.subtaskRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if pos, ok := patch.Position.Get(); ok && pos != subtask.Position {
		if err := s.checkPosition(ctx, subtask.TaskID, pos, subtask.ID); err != nil {
			return nil, err
		}
	}
	patch.Apply(subtask)
	subtask.Title = strings.TrimSpace(subtask.Title)
	if err := s.subtaskRepo.Update(ctx, subtask); err != nil {
		return nil, err
	}
	return subtask, nil
}

// checkPosition rejects a position that is negative or held by another
// subtask of the same task.
func (s *TaskService) checkPosition(ctx context.Context, taskID string, position int, exceptID string) error {
	if position < 0 {
		return validationf("subtask position must not be negative")
	}
	taken, err := s.subtaskRepo.PositionTaken(ctx, taskID, position, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return validationf("subtask position %d is already used", position)
	}
	return nil
}

func (s *TaskService) DeleteSubtask(ctx context.Context, id string) error {
	return s.subtaskRepo.Delete(ctx, id)
}

// normalizeTask validates t and clears every field its scope and recurrence
// settings make irrelevant.
func normalizeTask(t *model.Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return validationf("title is required")
	}
	t.Description = blankToNil(t.Description)
	t.GroupID = blankToNil(t.GroupID)
	t.DueDate = blankToNil(t.DueDate)
	t.DueTime = blankToNil(t.DueTime)
	t.TargetWeek = blankToNil(t.TargetWeek)
	t.TargetMonth = blankToNil(t.TargetMonth)
	t.RecurrenceEndDate = blankToNil(t.RecurrenceEndDate)

	if t.Scope == "" {
		t.Scope = model.ScopeDate
	}
	switch t.Scope {
	case model.ScopeDate:
		t.TargetWeek, t.TargetMonth = nil, nil
		if t.DueDate != nil {
			due, err := calendar.ParseISODate(*t.DueDate)
			if err != nil {
				return validationf("due date: %v", err)
			}
			t.DueDate = model.Ptr(calendar.ToISODate(due))
		}
		if t.DueTime != nil {
			h, m, err := parseClock(*t.DueTime)
			if err != nil {
				return validationf("due time: %v", err)
			}
			t.DueTime = model.Ptr(fmt.Sprintf("%02d:%02d", h, m))
		}
	case model.ScopeWeek:
		t.DueDate, t.DueTime, t.TargetMonth = nil, nil, nil
		if t.TargetWeek == nil {
			return validationf("target week is required for week scope")
		}
		week, err := calendar.ParseWeekKey(*t.TargetWeek)
		if err != nil {
			return validationf("target week: %v", err)
		}
		t.TargetWeek = model.Ptr(week.Key())
	case model.ScopeMonth:
		t.DueDate, t.DueTime, t.TargetWeek = nil, nil, nil
		if t.TargetMonth == nil {
			return validationf("target month is required for month scope")
		}
		year, month, err := calendar.ParseMonthKey(*t.TargetMonth)
		if err != nil {
			return validationf("target month: %v", err)
		}
		t.TargetMonth = model.Ptr(calendar.MonthKey(year, month))
	default:
		return validationf("unknown scope %q", t.Scope)
	}

	return normalizeRecurrence(t)
}

func normalizeRecurrence(t *model.Task) error {
	if !t.IsRecurring {
		t.RecurrencePattern = nil
		t.RecurrenceInterval = 0
		t.RecurrenceDays = nil
		t.RecurrenceEndDate = nil
		return nil
	}

	if t.Scope != model.ScopeDate || t.DueDate == nil {
		return validationf("recurring tasks need a due date")
	}
	if t.RecurrencePattern == nil || !t.RecurrencePattern.Valid() {
		return validationf("recurrence pattern must be one of daily, weekly, monthly, yearly")
	}
	switch {
	case t.RecurrenceInterval == 0:
		t.RecurrenceInterval = 1
	case t.RecurrenceInterval < 0:
		return validationf("recurrence interval must be at least 1")
	}

	if *t.RecurrencePattern != model.Weekly {
		t.RecurrenceDays = nil
	}
	days := slices.Clone(t.RecurrenceDays)
	for _, d := range days {
		if d < 0 || d > 6 {
			return validationf("recurrence day %d is not a weekday (0-6)", d)
		}
	}
	slices.Sort(days)
	days = slices.Compact(days)
	if len(days) == 0 {
		days = nil
	}
	t.RecurrenceDays = days

	if t.RecurrenceEndDate != nil {
		end, err := calendar.ParseISODate(*t.RecurrenceEndDate)
		if err != nil {
			return validationf("recurrence end date: %v", err)
		}
		t.RecurrenceEndDate = model.Ptr(calendar.ToISODate(end))
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
