package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/akarpov/passportd/internal/config"
	"github.com/akarpov/passportd/internal/delivery"
	"github.com/akarpov/passportd/internal/logger"
	"github.com/akarpov/passportd/internal/repository/postgres"
	"github.com/akarpov/passportd/internal/service"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	accountRepo := postgres.NewAccountRepository(db)

	smsSender := delivery.NewHTTPSMSSender(cfg.SMS.URL, cfg.SMS.UserName, cfg.SMS.PasswordMD5, cfg.SMS.APIKey, cfg.SMS.Timeout)
	mailSender := delivery.NewSMTPMailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	dispatcher := delivery.NewDispatcher(smsSender, mailSender, cfg.Delivery.QueueSize, cfg.Delivery.Workers, logger)
	defer dispatcher.Stop()

	accountService := service.NewAccount(accountRepo, dispatcher, logger)

	// One-shot maintenance command, then exit.
	if len(os.Args) > 1 && os.Args[1] == "sweep" {
		sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := accountService.ClearExpiredBindings(sweepCtx); err != nil {
			logger.Fatal("sweep failed", "error", err)
		}
		return
	}

	logAppVersion(logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runSweeper(ctx, accountService, cfg.Sweep.Interval, logger)
	}()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	wg.Wait()
	logger.Info("shutdown complete")
}

func runSweeper(ctx context.Context, accounts *service.Account, interval time.Duration, logger *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("expired binding sweeper started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := accounts.ClearExpiredBindings(ctx); err != nil {
				logger.Error("expired binding sweep failed", "error", err)
			}
		}
	}
}

func logAppVersion(logger *logger.Logger) {
	logger.Info("passportd starting",
		"build_version", buildVersion,
		"build_date", buildDate,
		"build_commit", buildCommit)
}
