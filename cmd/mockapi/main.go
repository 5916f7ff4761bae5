package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xela07ax/blaxing-console/internal/infra"
	"github.com/xela07ax/blaxing-console/internal/mockbackend"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

// Флаги дублируются переменными MOCKAPI_*, например MOCKAPI_DRY_RUN=true.
func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:          "mockapi",
		Short:        "In-memory Blaxing backend for local development (mode mock)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v)
		},
	}

	f := cmd.Flags()
	f.String("addr", "127.0.0.1:8001", "listen address, API is served under /api")
	f.Bool("dry-run", false, "bulk actions, notify and triggers change nothing")
	f.String("api-key", "", "require this X-API-KEY")
	f.String("agent-manager-base", "http://localhost:9000", "reported by GET /api/config")
	f.String("n8n-webhook-base", "http://localhost:5678/webhook", "reported by GET /api/config")
	f.Duration("webhook-timeout", 10*time.Second, "ceiling for outgoing webhook calls")
	f.String("log-level", "info", "debug, info, warn, error")

	v.SetEnvPrefix("MOCKAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(f)
	return cmd
}

func run(v *viper.Viper) error {
	logger, err := infra.NewLogger(infra.LoggerConfig{Level: v.GetString("log-level"), Format: "console"})
	if err != nil {
		return err
	}
	defer logger.Sync()

	backend := mockbackend.New(mockbackend.Options{
		DryRun:           v.GetBool("dry-run"),
		APIKey:           v.GetString("api-key"),
		AgentManagerBase: v.GetString("agent-manager-base"),
		N8nWebhookBase:   v.GetString("n8n-webhook-base"),
		WebhookTimeout:   v.GetDuration("webhook-timeout"),
	}, logger)

	srv := &http.Server{
		Addr:        v.GetString("addr"),
		Handler:     backend.Handler(),
		ReadTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	ossignal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock backend started",
			zap.String("addr", srv.Addr),
			zap.Bool("dry_run", v.GetBool("dry-run")),
			zap.Strings("agents", mockbackend.SeedAgents))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
