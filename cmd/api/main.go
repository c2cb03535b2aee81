package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "candidate-assessment/docs" // Swagger docs
	"candidate-assessment/internal/api"
	"candidate-assessment/internal/assessment"
	"candidate-assessment/internal/config"
	"candidate-assessment/internal/logger"
	"candidate-assessment/internal/notify"
	"candidate-assessment/internal/scoring"
	"candidate-assessment/internal/storage"
	"candidate-assessment/internal/token"
	httpclient "candidate-assessment/pkg/http"
)

// @title Candidate Assessment API
// @version 1.0
// @description Token-gated candidate questionnaire: issue access links, validate tokens and record one-time completions.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /api

// @securityDefinitions.apikey StaffKey
// @in header
// @name X-API-Key

func main() {
	cfg, err := config.LoadConfig()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.EnvFile == "" {
		log.Warn("No .env file found, using environment variables")
	}

	log.Info("Connecting to database...")
	db, err := storage.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatalw("db open", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(ctx)
	cancel()
	if err != nil {
		log.Fatalw("db migrate", "error", err)
	}

	if cfg.TokenSecret == "" {
		log.Warn("TOKEN_SECRET not set, using a random per-process key")
	}
	codec, err := token.NewCodec(cfg.Settings.TokenPrefix, cfg.Settings.TokenBodyLength, []byte(cfg.TokenSecret))
	if err != nil {
		log.Fatalw("token codec", "error", err)
	}

	svc := assessment.NewService(db, codec, scoring.DefaultBank(), cfg.Settings, log.Named("assessment"))
	log.Infow("Classification thresholds",
		"below_max", cfg.Settings.Thresholds.BelowMax,
		"within_max", cfg.Settings.Thresholds.WithinMax,
		"above_max", cfg.Settings.Thresholds.AboveMax,
	)

	notifier, closeNotifier, err := buildNotifier(cfg, log)
	if err != nil {
		log.Fatalw("notifier", "error", err)
	}
	defer closeNotifier()

	dispatcher := notify.NewDispatcher(notifier, 100, cfg.NotifyTimeout, log.Named("notify"))
	dispatcher.Start()

	apiSrv := api.NewAPI(svc, dispatcher, cfg.StoreTimeout, log.Named("api"))
	router := api.NewRouter(apiSrv, api.RouterOptions{
		RateLimit:  api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy),
		CORSOrigin: cfg.CORSOrigin,
		StaffAuth:  api.NewAPIKeyAuth(cfg.IssueAPIKey),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warnw("server shutdown", "error", err)
		}
		if err := dispatcher.Close(ctx); err != nil {
			log.Warnw("notification queue not drained", "error", err)
		}
		close(idleConnsClosed)
	}()

	log.Infow("API server listening", "port", cfg.Port, "notifier", cfg.Notifier, "trust_proxy", cfg.TrustProxy)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalw("listen", "error", err)
	}

	<-idleConnsClosed
}

func buildNotifier(cfg *config.Config, log *zap.SugaredLogger) (notify.Notifier, func(), error) {
	switch cfg.Notifier {
	case "webhook":
		client := httpclient.NewClient(cfg.NotifyTimeout)
		return notify.NewWebhookNotifier(client, cfg.NotifyWebhookURL), func() {}, nil
	case "amqp":
		n, err := notify.NewAMQPNotifier(cfg.RabbitMQURL, log.Named("amqp"))
		if err != nil {
			return nil, nil, err
		}
		return n, func() {
			if err := n.Close(); err != nil {
				log.Warnw("close RabbitMQ", "error", err)
			}
		}, nil
	default:
		return notify.NewLogNotifier(log.Named("invites")), func() {}, nil
	}
}
