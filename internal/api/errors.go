package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"planner/internal/calendar"
	"planner/internal/repository"
	"planner/internal/service"
)

// errBadRequest marks malformed requests caught before a service is called.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrTaskNotFound),
		errors.Is(err, repository.ErrSubtaskNotFound),
		errors.Is(err, repository.ErrGroupNotFound),
		errors.Is(err, calendar.ErrWeekNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrProtectedGroup), errors.Is(err, repository.ErrVirtualTask):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
