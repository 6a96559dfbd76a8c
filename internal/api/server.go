// Package api serves the planner over a local JSON HTTP API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"planner/internal/holiday"
)

// Deps are the collaborators behind the routes.
type Deps struct {
	Tasks     TaskService
	Groups    GroupService
	Calendar  CalendarService
	Dashboard DashboardService
	Export    ExportService
	Holidays  holiday.Provider
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	deps    Deps
	router  *gin.Engine
	handler http.Handler
	logger  *slog.Logger
}

// NewServer wires the routes. An empty allowedOrigins list allows any origin.
func NewServer(deps Deps, logger *slog.Logger, allowedOrigins []string) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{deps: deps, router: router, logger: logger}
	s.routes()

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(router)
	return s
}

func (s *Server) routes() {
	r := s.router

	tasks := r.Group("/tasks")
	{
		tasks.GET("", s.listTasks)
		tasks.POST("", s.createTask)
		tasks.GET("/:id", s.getTask)
		tasks.PATCH("/:id", s.updateTask)
		tasks.DELETE("/:id", s.deleteTask)
		tasks.POST("/:id/complete", s.completeTask)
		tasks.POST("/:id/important", s.toggleImportant)
		tasks.GET("/:id/subtasks", s.listSubtasks)
		tasks.POST("/:id/subtasks", s.addSubtask)
	}
	r.PATCH("/subtasks/:id", s.updateSubtask)
	r.DELETE("/subtasks/:id", s.deleteSubtask)

	groups := r.Group("/groups")
	{
		groups.GET("", s.listGroups)
		groups.POST("", s.createGroup)
		groups.PATCH("/:id", s.updateGroup)
		groups.DELETE("/:id", s.deleteGroup)
	}

	r.GET("/calendar/month/:year/:month", s.month)
	r.GET("/calendar/week/:key", s.week)
	r.GET("/calendar/day/:date", s.day)
	r.GET("/calendar.ics", s.exportCalendar)
	r.GET("/holidays/:year", s.holidays)
	r.GET("/dashboard", s.dashboard)
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}
