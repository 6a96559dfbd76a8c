package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"planner/internal/calendar"
	"planner/internal/holiday"
)

const maxExportYears = 10

func (s *Server) month(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		s.fail(c, badRequest("year must be a number"))
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		s.fail(c, badRequest("month must be a number"))
		return
	}
	view, err := s.deps.Calendar.Month(c.Request.Context(), year, time.Month(month))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) week(c *gin.Context) {
	view, err := s.deps.Calendar.Week(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) day(c *gin.Context) {
	day, err := calendar.ParseISODate(c.Param("date"))
	if err != nil {
		s.fail(c, badRequest("date: %v", err))
		return
	}
	view, err := s.deps.Calendar.Day(c.Request.Context(), day)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) holidays(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		s.fail(c, badRequest("year must be a positive number"))
		return
	}
	list := s.deps.Holidays.ForYear(year)
	if list == nil {
		list = []holiday.Holiday{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) dashboard(c *gin.Context) {
	dash, err := s.deps.Dashboard.Build(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// exportCalendar serves the iCalendar feed. ?years=2024,2025 selects the
// holiday years; the current year is the default.
func (s *Server) exportCalendar(c *gin.Context) {
	now := s.deps.Now()
	years := []int{now.Year()}
	if raw := c.Query("years"); raw != "" {
		years = years[:0]
		for _, part := range strings.Split(raw, ",") {
			y, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || y < 1 {
				s.fail(c, badRequest("years must be a comma separated list of years"))
				return
			}
			years = append(years, y)
		}
		if len(years) > maxExportYears {
			s.fail(c, badRequest("at most %d years per feed", maxExportYears))
			return
		}
	}

	var buf bytes.Buffer
	if err := s.deps.Export.Export(c.Request.Context(), &buf, years, now); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}
