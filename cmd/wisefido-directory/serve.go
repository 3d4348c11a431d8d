package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wisefido-directory/internal/database"
	"wisefido-directory/internal/httpapi"
	"wisefido-directory/internal/metrics"
	"wisefido-directory/internal/notify"
	"wisefido-directory/internal/remote"
	"wisefido-directory/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.MQTT.Enabled {
		mq, err := notify.ConnectMQTT(notify.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		}, logger)
		if err != nil {
			logger.Warn("MQTT enabled but connection failed, notifications are log-only", zap.Error(err))
		} else {
			defer mq.Close()
			notifiers = append(notifiers, mq)
			logger.Info("MQTT notifications enabled", zap.String("topic", cfg.MQTT.Topic))
		}
	}

	store, err := a.newStore(notifiers, m)
	if err != nil {
		return err
	}

	// session 存储：PostgreSQL > Redis > 内存
	var sessions repository.SessionRepo = repository.NewMemorySessionRepo()
	if cfg.DBEnabled {
		if db, err := database.NewPostgresDB(ctx, &cfg.Database); err == nil {
			defer db.Close()
			pg := repository.NewPostgresSessionRepo(db, cfg.Database.Table)
			if err := pg.EnsureSchema(ctx); err != nil {
				logger.Warn("Session table unavailable, falling back", zap.Error(err))
			} else {
				sessions = pg
				logger.Info("DB enabled for session storage")
			}
		} else {
			logger.Warn("DB enabled but connection failed, falling back", zap.Error(err))
		}
	}
	if _, isMemory := sessions.(*repository.MemorySessionRepo); isMemory && cfg.Redis.Enabled {
		if client, err := database.NewRedisClient(ctx, &cfg.Redis); err == nil {
			defer client.Close()
			sessions = repository.NewRedisSessionRepo(client, cfg.Redis.SessionTTL)
			logger.Info("Redis enabled for session storage", zap.String("addr", cfg.Redis.Addr))
		} else {
			logger.Warn("Redis enabled but connection failed, falling back to memory", zap.Error(err))
		}
	}

	fetcher := remote.NewFetcher(remote.Options{
		Timeout:    cfg.Remote.Timeout,
		RetryCount: cfg.Remote.RetryCount,
		MaxBytes:   cfg.Remote.MaxBytes,
	}, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterDirectoryRoutes(httpapi.NewDirectoryHandler(store, sessions, fetcher, logger))
	router.HandleHandler("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return httpapi.NewServer(cfg.HTTP.Addr, router, logger).Run(ctx)
}
