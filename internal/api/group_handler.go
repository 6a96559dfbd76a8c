package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"planner/internal/model"
)

type groupRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) listGroups(c *gin.Context) {
	groups, err := s.deps.Groups.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if groups == nil {
		groups = []model.Group{}
	}
	c.JSON(http.StatusOK, groups)
}

func (s *Server) createGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest("invalid group: %v", err))
		return
	}
	group, err := s.deps.Groups.Create(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (s *Server) updateGroup(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.fail(c, badRequest("read body: %v", err))
		return
	}
	patch, err := decodeGroupPatch(body)
	if err != nil {
		s.fail(c, err)
		return
	}
	group, err := s.deps.Groups.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (s *Server) deleteGroup(c *gin.Context) {
	if err := s.deps.Groups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
