// Package main runs the background worker: the reminder scheduler and the email queue processor.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/speakerhub/backend/config"
	"github.com/speakerhub/backend/internal/emaillogs"
	"github.com/speakerhub/backend/internal/events"
	"github.com/speakerhub/backend/internal/mailer"
	"github.com/speakerhub/backend/internal/metrics"
	"github.com/speakerhub/backend/internal/registrations"
	"github.com/speakerhub/backend/internal/reminders"
	"github.com/speakerhub/backend/internal/worker"
	"github.com/speakerhub/backend/pkg/database"
	"github.com/speakerhub/backend/pkg/queue"
	"github.com/speakerhub/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	metrics.Register()

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	emailLogRepo := emaillogs.NewRepository(pool)

	m := mailer.New(mailer.Config{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: mailer.SESConfig{
			Region:             cfg.AWS.Region,
			AccessKeyID:        cfg.AWS.AccessKeyID,
			SecretAccessKey:    cfg.AWS.SecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	processor := worker.NewEmailProcessor(m, emailLogRepo, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		processor.Run(workerCtx)
	}()

	if cfg.Reminders.Enabled {
		// Without the sent log every hourly run reminds the same recipients again.
		var sent reminders.SentLog
		if cfg.Reminders.Dedupe {
			sent = emailLogRepo
		}
		scheduler := reminders.New(
			events.NewRepository(pool),
			registrations.NewRepository(pool),
			sent,
			jobQueue,
			reminders.Config{
				SpeakerWindow:  time.Duration(cfg.Reminders.SpeakerWindowHours) * time.Hour,
				AttendeeWindow: time.Duration(cfg.Reminders.AttendeeWindowHours) * time.Hour,
				SpeakerMinute:  cfg.Reminders.SpeakerMinute,
				AttendeeMinute: cfg.Reminders.AttendeeMinute,
			},
			logger,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Run(workerCtx)
		}()
	}
	logger.Info("worker started", zap.Bool("reminders", cfg.Reminders.Enabled), zap.String("email_provider", cfg.Email.Provider))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	wg.Wait()
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
