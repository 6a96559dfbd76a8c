package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"planner/internal/model"
	"planner/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := repository.NewDB(repository.DriverSQLite, dsn)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestNewDB_SeedsProtectedGroups(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, repository.Migrate(db), "migrating twice must be harmless")

	groups, err := repository.NewGroupRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byID := map[string]model.Group{}
	for _, g := range groups {
		byID[g.ID] = g
	}
	assert.Equal(t, "Geral", byID[model.DefaultGroupID].Name)
	assert.Equal(t, "#10b981", byID[model.CompletedGroupID].Color)
}

func TestNewDB_Drivers(t *testing.T) {
	_, err := repository.NewDB("mysql", "whatever")
	assert.Error(t, err)

	_, err = repository.NewDB(repository.DriverPostgres, "")
	assert.Error(t, err)
}

func TestTaskRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := repository.NewTaskRepository(db)

	task := &model.Task{
		Title:              "Gym",
		Scope:              model.ScopeDate,
		DueDate:            model.Ptr("2024-06-10"),
		GroupID:            model.Ptr(model.DefaultGroupID),
		IsRecurring:        true,
		RecurrencePattern:  model.Ptr(model.Weekly),
		RecurrenceInterval: 1,
		RecurrenceDays:     []int{1, 3, 5},
		Subtasks: []model.Subtask{
			{Title: "Stretch", Position: 2},
			{Title: "Warm up", Position: 0},
		},
	}
	require.NoError(t, repo.Create(ctx, task))
	require.NotEmpty(t, task.ID)

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gym", got.Title)
	assert.Equal(t, []int{1, 3, 5}, got.RecurrenceDays)
	assert.Equal(t, model.Weekly, got.Pattern())
	require.Len(t, got.Subtasks, 2)
	assert.Equal(t, "Warm up", got.Subtasks[0].Title)
	assert.Equal(t, task.ID, got.Subtasks[0].TaskID)

	got.Title = "Gym session"
	got.Description = model.Ptr("legs")
	got.GroupID = nil
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gym session", got.Title)
	assert.Equal(t, "legs", *got.Description)
	assert.Nil(t, got.GroupID)
	assert.Len(t, got.Subtasks, 2, "Update leaves subtasks alone")

	require.NoError(t, repo.ReplaceSubtasks(ctx, task.ID, []model.Subtask{{Title: "Run", Position: 0}}))
	got, err = repo.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Subtasks, 1)
	assert.Equal(t, "Run", got.Subtasks[0].Title)

	require.NoError(t, repo.Delete(ctx, task.ID))
	_, err = repo.Get(ctx, task.ID)
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)

	subtasks, err := repository.NewSubtaskRepository(db).ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, subtasks, "subtasks go with their task")
}

func TestTaskRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(newTestDB(t))

	assert.ErrorIs(t, repo.Delete(ctx, "missing"), repository.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &model.Task{ID: "missing", Title: "x"}), repository.ErrTaskNotFound)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
}

func TestTaskRepository_RejectsVirtualIDs(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(newTestDB(t))

	virtual := &model.Task{ID: "virtual-abc-2024-06-10", Title: "x"}
	assert.ErrorIs(t, repo.Create(ctx, virtual), repository.ErrVirtualTask)
	assert.ErrorIs(t, repo.Update(ctx, virtual), repository.ErrVirtualTask)
}

func TestTaskRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(newTestDB(t))

	seed := []model.Task{
		{Title: "a", DueDate: model.Ptr("2024-06-01"), GroupID: model.Ptr("work")},
		{Title: "b", DueDate: model.Ptr("2024-06-15"), IsCompleted: true},
		{Title: "c", DueDate: model.Ptr("2024-07-01"), GroupID: model.Ptr("work")},
		{Title: "d", Scope: model.ScopeMonth, TargetMonth: model.Ptr("2024-06")},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	all, err := repo.List(ctx, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	work, err := repo.List(ctx, repository.TaskFilter{GroupID: model.Ptr("work")})
	require.NoError(t, err)
	assert.Len(t, work, 2)

	open, err := repo.List(ctx, repository.TaskFilter{IsCompleted: model.Ptr(false)})
	require.NoError(t, err)
	assert.Len(t, open, 3)

	june, err := repo.List(ctx, repository.TaskFilter{DueFrom: "2024-06-01", DueTo: "2024-06-30"})
	require.NoError(t, err)
	titles := []string{}
	for _, task := range june {
		titles = append(titles, task.Title)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, titles)
}

func TestTaskRepository_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(newTestDB(t))
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(tx *repository.TaskRepository) error {
		if err := tx.Create(ctx, &model.Task{ID: "t1", Title: "x"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.Get(ctx, "t1")
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
}

func TestSubtaskRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tasks := repository.NewTaskRepository(db)
	subtasks := repository.NewSubtaskRepository(db)

	task := &model.Task{Title: "Trip"}
	require.NoError(t, tasks.Create(ctx, task))

	next, err := subtasks.NextPosition(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	for _, s := range []model.Subtask{{Title: "Tickets", Position: 0}, {Title: "Hotel", Position: 4}} {
		s.TaskID = task.ID
		require.NoError(t, subtasks.Create(ctx, &s))
	}
	next, err = subtasks.NextPosition(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, next)

	taken, err := subtasks.PositionTaken(ctx, task.ID, 4, "")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = subtasks.PositionTaken(ctx, task.ID, 2, "")
	require.NoError(t, err)
	assert.False(t, taken)
	assert.Error(t, subtasks.Create(ctx, &model.Subtask{TaskID: task.ID, Title: "Clash", Position: 0}),
		"positions are unique per task")

	list, err := subtasks.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	hotel := list[1]
	taken, err = subtasks.PositionTaken(ctx, task.ID, 4, hotel.ID)
	require.NoError(t, err)
	assert.False(t, taken, "a subtask does not clash with itself")

	hotel.IsCompleted = true
	require.NoError(t, subtasks.Update(ctx, &hotel))
	got, err := subtasks.Get(ctx, hotel.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	require.NoError(t, subtasks.Delete(ctx, hotel.ID))
	assert.ErrorIs(t, subtasks.Delete(ctx, hotel.ID), repository.ErrSubtaskNotFound)
	_, err = subtasks.Get(ctx, hotel.ID)
	assert.ErrorIs(t, err, repository.ErrSubtaskNotFound)
}

func TestGroupRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	groups := repository.NewGroupRepository(db)
	tasks := repository.NewTaskRepository(db)

	work := &model.Group{Name: "Work"}
	require.NoError(t, groups.Create(ctx, work))
	assert.Equal(t, model.DefaultColor, work.Color)

	work.Color = "#ff0000"
	require.NoError(t, groups.Update(ctx, work))
	got, err := groups.Get(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", got.Color)

	task := &model.Task{Title: "Report", GroupID: &work.ID}
	require.NoError(t, tasks.Create(ctx, task))

	require.NoError(t, groups.Delete(ctx, work.ID))
	_, err = groups.Get(ctx, work.ID)
	assert.ErrorIs(t, err, repository.ErrGroupNotFound)

	orphan, err := tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.GroupID, "tasks survive their group")

	assert.ErrorIs(t, groups.Delete(ctx, model.DefaultGroupID), repository.ErrProtectedGroup)
	assert.ErrorIs(t, groups.Delete(ctx, model.CompletedGroupID), repository.ErrProtectedGroup)
	assert.ErrorIs(t, groups.Delete(ctx, "missing"), repository.ErrGroupNotFound)
	assert.ErrorIs(t, groups.Update(ctx, &model.Group{ID: "missing", Name: "x"}), repository.ErrGroupNotFound)
}
