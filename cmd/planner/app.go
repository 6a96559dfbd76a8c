package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"planner/internal/config"
	"planner/internal/holiday"
	"planner/internal/recurrence"
	"planner/internal/repository"
	"planner/internal/service"
)

// app is the wired planner shared by the commands that touch the store.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	loc      *time.Location
	db       *gorm.DB
	holidays holiday.Provider

	tasks     *service.TaskService
	groups    *service.GroupService
	calendar  *service.CalendarService
	dashboard *service.DashboardService
	reminder  *service.ReminderService
	importer  *service.ImportService
	exporter  *service.ExportService
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg.LogLevel)
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	subtaskRepo := repository.NewSubtaskRepository(db)
	engine := recurrence.NewEngine(
		recurrence.WithLogger(logger),
		recurrence.WithMaxSteps(cfg.Recurrence.MaxSteps),
	)
	holidays := holiday.NewCached(holiday.Brazil{})

	return &app{
		cfg:       cfg,
		logger:    logger,
		loc:       loc,
		db:        db,
		holidays:  holidays,
		tasks:     service.NewTaskService(taskRepo, subtaskRepo, engine, logger),
		groups:    service.NewGroupService(groupRepo),
		calendar:  service.NewCalendarService(taskRepo, engine, holidays),
		dashboard: service.NewDashboardService(taskRepo, groupRepo),
		reminder:  service.NewReminderService(taskRepo, groupRepo, engine, holidays),
		importer:  service.NewImportService(taskRepo, groupRepo, logger),
		exporter:  service.NewExportService(taskRepo, groupRepo, engine, holidays, logger),
	}, nil
}

func (a *app) Close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		a.logger.Warn("close db", "error", err)
	}
}

func (a *app) now() time.Time {
	return time.Now().In(a.loc)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
