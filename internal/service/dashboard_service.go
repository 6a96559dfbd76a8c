package service

import (
	"context"
	"math"

	"planner/internal/model"
	"planner/internal/repository"
)

const (
	UngroupedID    = "ungrouped"
	ungroupedName  = "Sem Grupo"
	ungroupedColor = "#9ca3af"
)

// GroupStats counts the tasks of one group.
type GroupStats struct {
	GroupID    string `json:"groupId"`
	GroupName  string `json:"groupName"`
	Color      string `json:"color"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Percentage int    `json:"percentage"`
}

// Dashboard is the overview screen.
type Dashboard struct {
	ImportantGoals []model.Task `json:"importantGoals"`
	Groups         []GroupStats `json:"groups"`
	Total          int          `json:"total"`
	Completed      int          `json:"completed"`
	Percentage     int          `json:"percentage"`
}

type DashboardService struct {
	taskRepo  *repository.TaskRepository
	groupRepo *repository.GroupRepository
}

func NewDashboardService(taskRepo *repository.TaskRepository, groupRepo *repository.GroupRepository) *DashboardService {
	return &DashboardService{taskRepo: taskRepo, groupRepo: groupRepo}
}

func (s *DashboardService) Build(ctx context.Context) (*Dashboard, error) {
	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(tasks, groups), nil
}

// summarize counts tasks per group. Tasks pointing at a group that no longer
// exists are left out of the group figures but still count overall; groups
// without tasks are dropped.
func summarize(tasks []model.Task, groups []model.Group) *Dashboard {
	order := make([]string, 0, len(groups)+1)
	stats := make(map[string]*GroupStats, len(groups)+1)
	for _, g := range groups {
		order = append(order, g.ID)
		stats[g.ID] = &GroupStats{GroupID: g.ID, GroupName: g.Name, Color: g.Color}
	}
	order = append(order, UngroupedID)
	stats[UngroupedID] = &GroupStats{GroupID: UngroupedID, GroupName: ungroupedName, Color: ungroupedColor}

	d := &Dashboard{ImportantGoals: []model.Task{}, Groups: []GroupStats{}}
	for _, t := range tasks {
		d.Total++
		if t.IsCompleted {
			d.Completed++
		}
		if t.IsImportant && !t.IsCompleted {
			d.ImportantGoals = append(d.ImportantGoals, t)
		}

		key := UngroupedID
		if t.GroupID != nil {
			key = *t.GroupID
		}
		st, ok := stats[key]
		if !ok {
			continue
		}
		st.Total++
		if t.IsCompleted {
			st.Completed++
		}
	}

	for _, id := range order {
		st := stats[id]
		if st.Total == 0 {
			continue
		}
		st.Percentage = percent(st.Completed, st.Total)
		d.Groups = append(d.Groups, *st)
	}
	d.Percentage = percent(d.Completed, d.Total)
	return d
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
