package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankconv/internal/config"
	"bankconv/internal/consul"
	"bankconv/internal/history"
	"bankconv/internal/identity"
	"bankconv/internal/logger"
	"bankconv/internal/mailbox"
	"bankconv/internal/server"
	"bankconv/internal/session"
	"bankconv/internal/upstream"

	_ "github.com/joho/godotenv/autoload"
)

const serviceName = "statement-converter"

func main() {
	log := logger.New()
	logger.SetDefault(log)

	cfg := config.Load()
	log.Info("starting statement converter",
		"port", cfg.Port,
		"upstream", cfg.UpstreamBaseURL,
		"mailbox", cfg.MailboxBaseURL,
	)

	store := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionKey)

	accounts := upstream.NewClient(upstream.Config{
		BaseURL:      cfg.UpstreamBaseURL,
		Timeout:      cfg.RequestTimeout,
		PollInterval: cfg.ConvertPollInterval,
		PollDeadline: cfg.ConvertDeadline,
	}, log)

	inbox := mailbox.NewClient(mailbox.Config{
		BaseURL:       cfg.MailboxBaseURL,
		SubjectMarker: cfg.SubjectMarker,
		PollInterval:  cfg.MailboxPollInterval,
		MaxAttempts:   cfg.MailboxPollAttempts,
		Timeout:       cfg.RequestTimeout,
	}, log)

	generator := identity.NewGenerator(cfg.MailboxDomains)
	linkMarker := cfg.LinkMarker

	sessions := session.NewManager(
		store,
		accounts,
		inbox,
		generator.Generate,
		func(htmlContent string) (string, bool) {
			return mailbox.ExtractVerificationLink(htmlContent, linkMarker)
		},
		session.Config{
			MaxUsage:                cfg.MaxUsage,
			MaxRegistrationAttempts: cfg.MaxRegistrationAttempts,
		},
		log,
	)

	// Conversion history is optional; without DATABASE_URL the service runs
	// with the audit log disabled.
	var hist *history.Repository
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		repo, err := history.New(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Error("failed to initialize conversion history, continuing without it", "error", err)
		} else {
			hist = repo
			defer hist.Close()
			log.Info("conversion history enabled")
		}
	}

	srv := server.New(cfg, sessions, accounts, store, hist, log)
	httpServer := srv.HTTPServer()

	// Optional Consul registration.
	var consulClient *consul.Client
	serviceID := fmt.Sprintf("%s-%d", serviceName, cfg.Port)
	if cfg.ConsulAddr != "" {
		client, err := consul.NewClient(cfg.ConsulAddr, cfg.ConsulToken)
		if err != nil {
			log.Error("failed to create consul client", "error", err)
			os.Exit(1)
		}
		_ = client.Deregister(serviceID)
		err = client.Register(&consul.ServiceConfig{
			ID:      serviceID,
			Name:    serviceName,
			Address: config.GetEnv("SERVICE_HOST", "localhost"),
			Port:    cfg.Port,
			Tags:    []string{"conversion", "statements"},
			Check: &consul.HealthCheck{
				HTTP:     fmt.Sprintf("http://%s:%d/health", config.GetEnv("SERVICE_HOST", "localhost"), cfg.Port),
				Interval: "10s",
				Timeout:  "3s",
			},
		})
		if err != nil {
			log.Error("failed to register with consul", "error", err)
			os.Exit(1)
		}
		consulClient = client
		log.Info("registered with consul", "service_id", serviceID)
	}

	go func() {
		log.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	if consulClient != nil {
		if err := consulClient.Deregister(serviceID); err != nil {
			log.Warn("failed to deregister from consul", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("stopped")
}
