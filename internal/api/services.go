package api

import (
	"context"
	"io"
	"time"

	"planner/internal/model"
	"planner/internal/repository"
	"planner/internal/service"
)

// TaskService is the task surface the handlers need.
type TaskService interface {
	List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Create(ctx context.Context, draft model.TaskDraft) (*model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
	Complete(ctx context.Context, id string) (*model.Task, error)
	ToggleImportant(ctx context.Context, id string) (*model.Task, error)
	Delete(ctx context.Context, id string) error

	ListSubtasks(ctx context.Context, taskID string) ([]model.Subtask, error)
	AddSubtask(ctx context.Context, taskID string, draft model.SubtaskDraft) (*model.Subtask, error)
	UpdateSubtask(ctx context.Context, id string, patch model.SubtaskPatch) (*model.Subtask, error)
	DeleteSubtask(ctx context.Context, id string) error
}

type GroupService interface {
	List(ctx context.Context) ([]model.Group, error)
	Create(ctx context.Context, name, color string) (*model.Group, error)
	Update(ctx context.Context, id string, patch model.GroupPatch) (*model.Group, error)
	Delete(ctx context.Context, id string) error
}

type CalendarService interface {
	Month(ctx context.Context, year int, month time.Month) (*service.MonthView, error)
	Week(ctx context.Context, key string) (*service.WeekView, error)
	Day(ctx context.Context, day time.Time) (*service.DayView, error)
}

type DashboardService interface {
	Build(ctx context.Context) (*service.Dashboard, error)
}

type ExportService interface {
	Export(ctx context.Context, w io.Writer, years []int, stamp time.Time) error
}
