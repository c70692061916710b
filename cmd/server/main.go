// Command server runs the newsletter subscription API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"missive/internal/events"
	"missive/internal/notify"
	"missive/internal/platform/config"
	"missive/internal/platform/httpserver"
	"missive/internal/platform/logger"
	"missive/internal/platform/metrics"
	"missive/internal/platform/postgres"
	platformredis "missive/internal/platform/redis"
	"missive/internal/subscription"
	"missive/internal/subscription/handler"
	"missive/internal/subscription/service"
	httptransport "missive/internal/transport/http"
)

// main wires dependencies and supervises the server lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	var publisher *events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := events.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		publisher = events.NewPublisher(sink, log)
	}

	notifier := notify.NewClient(notify.Config{
		BaseURL:   cfg.EmailBaseURL,
		Sender:    cfg.EmailSender,
		AuthToken: cfg.EmailAuthToken,
		Timeout:   cfg.EmailTimeout,
	})

	store := subscription.NewPostgres(db)

	var sink service.Events
	if publisher != nil {
		sink = publisher
	}
	svc := service.NewService(store, notifier, sink, cfg.BaseURL, log, m)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        m,
		Subscriptions:  handler.New(svc, log),
		DB:             db,
		Redis:          redisClient,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if publisher != nil {
		group.Go(func() error {
			if err := publisher.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
