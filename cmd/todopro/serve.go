package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"todopro/internal/api"
	"todopro/internal/auth"
	"todopro/internal/bot"
	"todopro/internal/service"
)

const (
	shutdownTimeout = 30 * time.Second
	jobTimeout      = 5 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the Telegram bot and the digest scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.cfg.Validate(); err != nil {
		return err
	}

	srv := api.New(api.Deps{
		Accounts: app.accounts,
		Profiles: app.profiles,
		Tasks:    app.tasks,
		Reports:  app.reports,
		Tokens: auth.NewJWTManager(auth.JWTConfig{
			SecretKey:            app.cfg.JWTSecret,
			AccessTokenDuration:  app.cfg.AccessTokenTTL,
			RefreshTokenDuration: app.cfg.RefreshTokenTTL,
			Issuer:               "todopro",
		}),
		Location:  app.loc,
		AuthRate:  rate.Limit(app.cfg.AuthRateLimit),
		AuthBurst: app.cfg.AuthRateBurst,
	})

	scheduler := service.NewSchedulerService(app.loc, jobTimeout)
	if _, err := scheduler.ScheduleInterval("expired-count", app.cfg.ReportInterval, expiredCountJob(app.reports)); err != nil {
		return fmt.Errorf("schedule expired count: %w", err)
	}

	botCtx, stopBot := context.WithCancel(context.Background())
	defer stopBot()

	if app.cfg.TelegramToken != "" {
		telegramBot, err := bot.New(app.cfg.TelegramToken, bot.Services{
			Accounts: app.accounts,
			Tasks:    app.tasks,
			Profiles: app.profiles,
			Reports:  app.reports,
			Digests:  app.digests,
		})
		if err != nil {
			return err
		}
		if _, err := scheduler.ScheduleDaily("expired-digest", app.cfg.DigestTime, telegramBot.SendDigests); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
		go func() {
			if err := telegramBot.Start(botCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[bot] stopped with error: %v", err)
			}
		}()
	} else {
		log.Println("[info] TELEGRAM_TOKEN is empty, bot and digest disabled")
	}

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- srv.Listen(app.cfg.HTTPAddr)
	}()

	scheduler.Start()
	log.Printf("[info] todopro started (timezone %s, %d scheduled jobs)", app.loc, scheduler.Entries())

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": srv.Shutdown,
			"scheduler": func(ctx context.Context) error {
				return scheduler.Stop(ctx)
			},
			"telegram": func(ctx context.Context) error {
				stopBot()
				return nil
			},
		},
	)

	for {
		select {
		case err := <-listenErr:
			if err == nil {
				// Listen returns nil once a shutdown has begun.
				listenErr = nil
				continue
			}
			log.Printf("[api] HTTP server error: %v", err)
			stopBot()
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if stopErr := scheduler.Stop(ctx); stopErr != nil {
				log.Printf("[scheduler] stop: %v", stopErr)
			}
			cancel()
			return fmt.Errorf("listen on %s: %w", app.cfg.HTTPAddr, err)
		case exitCode := <-wait:
			log.Printf("[info] shutdown complete with code %d", exitCode)
			if exitCode != 0 {
				return fmt.Errorf("shutdown finished with exit code %d", exitCode)
			}
			return nil
		}
	}
}

// expiredCountJob logs how many tasks are expired across all users.
func expiredCountJob(reports *service.ReportService) service.Job {
	return func(ctx context.Context) error {
		count, err := reports.ExpiredCount(ctx)
		if err != nil {
			return fmt.Errorf("count expired tasks: %w", err)
		}
		log.Printf("[scheduler] %d expired task(s) across all users", count)
		return nil
	}
}
