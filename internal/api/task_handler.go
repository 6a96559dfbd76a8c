package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"planner/internal/calendar"
	"planner/internal/model"
	"planner/internal/repository"
)

func (s *Server) listTasks(c *gin.Context) {
	filter, err := taskFilter(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	tasks, err := s.deps.Tasks.List(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func taskFilter(c *gin.Context) (repository.TaskFilter, error) {
	var filter repository.TaskFilter
	if v := c.Query("groupId"); v != "" {
		filter.GroupID = &v
	}

	for key, dst := range map[string]**bool{"completed": &filter.IsCompleted, "recurring": &filter.IsRecurring} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, badRequest("%s must be true or false", key)
		}
		*dst = &b
	}

	for key, dst := range map[string]*string{"from": &filter.DueFrom, "to": &filter.DueTo} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		d, err := calendar.ParseISODate(raw)
		if err != nil {
			return filter, badRequest("%s: %v", key, err)
		}
		*dst = calendar.ToISODate(d)
	}
	return filter, nil
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.deps.Tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) createTask(c *gin.Context) {
	var draft model.TaskDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		s.fail(c, badRequest("invalid task: %v", err))
		return
	}
	task, err := s.deps.Tasks.Create(c.Request.Context(), draft)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) updateTask(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.fail(c, badRequest("read body: %v", err))
		return
	}
	patch, err := decodeTaskPatch(body)
	if err != nil {
		s.fail(c, err)
		return
	}
	task, err := s.deps.Tasks.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.deps.Tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) completeTask(c *gin.Context) {
	task, err := s.deps.Tasks.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) toggleImportant(c *gin.Context) {
	task, err := s.deps.Tasks.ToggleImportant(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) listSubtasks(c *gin.Context) {
	subtasks, err := s.deps.Tasks.ListSubtasks(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if subtasks == nil {
		subtasks = []model.Subtask{}
	}
	c.JSON(http.StatusOK, subtasks)
}

func (s *Server) addSubtask(c *gin.Context) {
	var draft model.SubtaskDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		s.fail(c, badRequest("invalid subtask: %v", err))
		return
	}
	subtask, err := s.deps.Tasks.AddSubtask(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, subtask)
}

func (s *Server) updateSubtask(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.fail(c, badRequest("read body: %v", err))
		return
	}
	patch, err := decodeSubtaskPatch(body)
	if err != nil {
		s.fail(c, err)
		return
	}
	subtask, err := s.deps.Tasks.UpdateSubtask(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, subtask)
}

func (s *Server) deleteSubtask(c *gin.Context) {
	if err := s.deps.Tasks.DeleteSubtask(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
