package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"planner/internal/calendar"
	"planner/internal/model"
	"planner/internal/repository"
)

// legacyDocument is the JSON file written by the planner before it had a
// database.
type legacyDocument struct {
	Groups []legacyGroup `json:"groups"`
	Tasks  []legacyTask  `json:"tasks"`
}

type legacyGroup struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type legacyTask struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	IsCompleted bool    `json:"isCompleted"`
	IsImportant bool    `json:"isImportant"`
	GroupID     *string `json:"groupId"`
	CreatedAt   string  `json:"createdAt"`
	DueDate     *string `json:"dueDate"`
	DueTime     *string `json:"dueTime"`
	Scope       string  `json:"scope"`
	TargetWeek  *string `json:"targetWeek"`
	TargetMonth *string `json:"targetMonth"`
}

// ImportResult counts what an import did.
type ImportResult struct {
	GroupsAdded   int `json:"groupsAdded"`
	GroupsSkipped int `json:"groupsSkipped"`
	TasksAdded    int `json:"tasksAdded"`
	TasksSkipped  int `json:"tasksSkipped"`
}

type ImportService struct {
	taskRepo  *repository.TaskRepository
	groupRepo *repository.GroupRepository
	logger    *slog.Logger
}

func NewImportService(taskRepo *repository.TaskRepository, groupRepo *repository.GroupRepository, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{taskRepo: taskRepo, groupRepo: groupRepo, logger: logger}
}

// ImportFile imports path and, when backup is set, renames it to
// path+".backup" afterwards.
func (s *ImportService) ImportFile(ctx context.Context, path string, backup bool) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open legacy file: %w", err)
	}
	result, err := s.Import(ctx, f)
	_ = f.Close()
	if err != nil {
		return result, err
	}

	if backup {
		if err := os.Rename(path, path+".backup"); err != nil {
			return result, fmt.Errorf("backup legacy file: %w", err)
		}
		s.logger.Info("legacy file moved", "backup", path+".backup")
	}
	return result, nil
}

// Import copies groups and tasks from a legacy document. Records whose id
// already exists are skipped, so running it twice is harmless.
func (s *ImportService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var doc legacyDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ImportResult{}, validationf("legacy document: %v", err)
	}

	var result ImportResult
	for _, g := range doc.Groups {
		_, err := s.groupRepo.Get(ctx, g.ID)
		switch {
		case err == nil:
			result.GroupsSkipped++
			continue
		case !errors.Is(err, repository.ErrGroupNotFound):
			return result, err
		}
		group := model.Group{ID: g.ID, Name: g.Name, Color: g.Color}
		if err := s.groupRepo.Create(ctx, &group); err != nil {
			return result, err
		}
		result.GroupsAdded++
	}

	for _, lt := range doc.Tasks {
		if lt.ID != "" {
			_, err := s.taskRepo.Get(ctx, lt.ID)
			switch {
			case err == nil:
				result.TasksSkipped++
				continue
			case !errors.Is(err, repository.ErrTaskNotFound):
				return result, err
			}
		}
		task := lt.task()
		if err := s.taskRepo.Create(ctx, &task); err != nil {
			return result, err
		}
		result.TasksAdded++
	}

	s.logger.Info("legacy import finished",
		"groups_added", result.GroupsAdded, "groups_skipped", result.GroupsSkipped,
		"tasks_added", result.TasksAdded, "tasks_skipped", result.TasksSkipped)
	return result, nil
}

func (lt legacyTask) task() model.Task {
	t := model.Task{
		ID:          lt.ID,
		Title:       lt.Title,
		IsCompleted: lt.IsCompleted,
		IsImportant: lt.IsImportant,
		GroupID:     blankToNil(lt.GroupID),
		Scope:       model.Scope(lt.Scope),
		DueDate:     blankToNil(lt.DueDate),
		DueTime:     blankToNil(lt.DueTime),
		TargetWeek:  blankToNil(lt.TargetWeek),
		TargetMonth: blankToNil(lt.TargetMonth),
	}
	if created, err := time.Parse(time.RFC3339, lt.CreatedAt); err == nil {
		t.CreatedAt = created
	}
	if t.TargetWeek != nil {
		if key, ok := convertISOWeek(*t.TargetWeek); ok {
			t.TargetWeek = &key
		}
	}
	return t
}

var isoWeekPattern = regexp.MustCompile(`^(\d{4})-W(\d{1,2})$`)

// convertISOWeek maps an ISO week key such as 2023-W42 onto the month-owned
// week holding its Thursday.
func convertISOWeek(key string) (string, bool) {
	m := isoWeekPattern.FindStringSubmatch(strings.TrimSpace(key))
	if m == nil {
		return "", false
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > 53 {
		return "", false
	}

	jan4 := calendar.Date(year, time.January, 4)
	monday := calendar.AddDays(jan4, -((int(jan4.Weekday()) + 6) % 7))
	thursday := calendar.AddDays(monday, 3+(week-1)*7)
	return calendar.WeekContaining(thursday).Key(), true
}
