package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"planner/internal/api"
	"planner/internal/bot"
	"planner/internal/service"
)

const digestTimeout = 30 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, and the Telegram bot when a token is configured",
		Long: `Run the planner.

The HTTP API always starts. The Telegram bot starts when telegram.token is
set, and the daily digest is scheduled when telegram.chat_id is set too.

Examples:
  planner serve
  planner serve --addr :9000 --config ./planner.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			return runServe(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides http.addr)")
	return cmd
}

func runServe(parent context.Context, a *app) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(api.Deps{
		Tasks:     a.tasks,
		Groups:    a.groups,
		Calendar:  a.calendar,
		Dashboard: a.dashboard,
		Export:    a.exporter,
		Holidays:  a.holidays,
		Now:       a.now,
	}, a.logger, a.cfg.HTTP.AllowedOrigins)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, a.cfg.HTTP.Addr)
	})

	if a.cfg.Telegram.Token == "" {
		a.logger.Info("telegram token not set, bot disabled")
	} else {
		telegramBot, err := bot.New(a.cfg.Telegram.Token, bot.Deps{
			Tasks:    a.tasks,
			Groups:   a.groups,
			Calendar: a.calendar,
			Reminder: a.reminder,
			Holidays: a.holidays,
			Location: a.loc,
			ChatID:   a.cfg.Telegram.ChatID,
		}, a.logger)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}

		if a.cfg.Telegram.ChatID != 0 {
			scheduler, err := scheduleDigests(a, telegramBot)
			if err != nil {
				stop()
				_ = g.Wait()
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()
		} else {
			a.logger.Info("telegram chat id not set, digests disabled")
		}

		g.Go(func() error {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	a.logger.Info("planner started", "addr", a.cfg.HTTP.Addr)
	err := g.Wait()
	a.logger.Info("shutdown complete")
	return err
}

func scheduleDigests(a *app, b *bot.Bot) (*service.SchedulerService, error) {
	scheduler := service.NewSchedulerService(a.loc, a.logger)
	job := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, digestTimeout)
		defer cancel()
		return b.SendDigest(ctx)
	}

	if _, err := scheduler.ScheduleDaily(a.cfg.Digest.Time, "daily-digest", job); err != nil {
		return nil, err
	}
	if interval := a.cfg.DigestInterval(); interval > 0 {
		if _, err := scheduler.ScheduleInterval(interval, "interval-digest", job); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}
