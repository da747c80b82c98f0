package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/dashboard"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("log-file", "", "also write logs to this file")
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var outputs []string
	if file, _ := cmd.Flags().GetString("log-file"); file != "" {
		outputs = append(outputs, file)
	}

	log, config := setup(outputs...)
	defer log.Sync()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		config.Server.Addr = addr
	}

	log.Info("starting the resume-matcher", zap.String("version", version))

	runner, err := newRunner(ctx, config, log)
	if err != nil {
		log.Fatal("building tools", zap.Error(err))
	}

	// The dashboard routes answer 503 without a jobs source.
	var dash server.Dashboard
	source, closeSource, err := newJobsSource(ctx, config.Jobs, log)
	switch {
	case errors.Is(err, errJobsNotConfigured):
		log.Warn("dashboard disabled", zap.String("reason", err.Error()))
	case err != nil:
		log.Fatal("building jobs source", zap.Error(err))
	default:
		dash = dashboard.New(source, logger.Named(log, "dashboard"),
			dashboard.WithDisabledFilters(config.Jobs.DisabledFilters...),
		)
	}
	defer closeSource()

	srv, err := server.New(server.Config{
		Addr:              config.Server.Addr,
		MaxUploadBytes:    config.Server.MaxUploadMB << 20,
		RequestsPerMinute: config.Server.RequestsPerMinute,
		Burst:             config.Server.Burst,
		AllowedOrigins:    config.Server.AllowedOrigins,
		ShutdownTimeout:   config.Server.ShutdownTimeout,
	}, runner, dash, log)
	if err != nil {
		log.Fatal("building server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatal("serving", zap.Error(err))
	}

	log.Info("server stopped")
}
