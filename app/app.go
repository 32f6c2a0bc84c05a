package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bookly/booklibrary-service/config"
	"github.com/bookly/booklibrary-service/internal/handler"
	"github.com/bookly/booklibrary-service/internal/notify"
	"github.com/bookly/booklibrary-service/internal/repository"
	"github.com/bookly/booklibrary-service/internal/server"
	"github.com/bookly/booklibrary-service/internal/service"
	"github.com/bookly/booklibrary-service/migrations"
	"github.com/bookly/booklibrary-service/pkg/kafka"
	"github.com/bookly/booklibrary-service/pkg/logger"
	"github.com/bookly/booklibrary-service/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "booklibrary")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo init %v", err)
	}

	sender := notify.NewSMTPNotifier(cfg.SMTP, log)
	var notifier notify.Notifier = sender
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka producer %v", err)
		}
		defer producer.Close()
		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.ReminderConsumerGroup)
		if err != nil {
			return fmt.Errorf("kafka consumer %v", err)
		}
		defer consumer.Close()
		notifier = notify.NewKafkaNotifier(producer, kafka.ReminderTopic)
		g.Go(func() error {
			kafka.Consume(gctx, consumer, notify.NewConsumer(sender.Send, log), kafka.ReminderTopic, log)
			return nil
		})
	}

	svc := service.NewService(repo, notifier, cfg.SMTP.From, log)
	h := handler.New(svc, svc, svc, log)

	g.Go(func() error {
		return svc.RunScanner(gctx, cfg.Scanner.Interval)
	})
	g.Go(func() error {
		return svc.RunReconciler(gctx, cfg.Scanner.ReconcileInterval)
	})

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	cancel()
	_ = g.Wait() //nolint:errcheck
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
