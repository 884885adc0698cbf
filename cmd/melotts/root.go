package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/example/go-melotts/internal/config"
	"github.com/example/go-melotts/internal/server"
	"github.com/example/go-melotts/internal/telemetry"
)

var (
	cfgFile   string
	activeCfg config.Config
	providers *telemetry.Providers
	logFile   io.Closer
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "melotts",
		Short:         "Chunked MeloTTS synthesis on ONNX Runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded

			logger, closer := setupLogger(loaded.Log, os.Stderr)
			slog.SetDefault(logger)
			logFile = closer

			providers, err = telemetry.Setup(cmd.Context(), loaded.Telemetry, logger)
			if err != nil {
				return fmt.Errorf("telemetry: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return teardown()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newSynthCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newModelCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVoicesCmd())

	return cmd
}

// setupLogger builds the JSON slog logger. When cfg.File is set the output is
// duplicated into a size-rotated file.
func setupLogger(cfg config.LogConfig, stderr io.Writer) (*slog.Logger, io.Closer) {
	lvl, err := server.ParseLogLevel(cfg.Level)
	if err != nil {
		lvl = slog.LevelInfo
	}

	out := stderr
	var closer io.Closer
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(stderr, rotating)
		closer = rotating
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	return slog.New(h), closer
}

// teardown flushes telemetry and closes the log file. It is safe to call
// more than once.
func teardown() error {
	var errs []error
	if providers != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
		providers = nil
	}
	if logFile != nil {
		if err := logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log file: %w", err))
		}
		logFile = nil
	}
	return errors.Join(errs...)
}

func requireConfig() (config.Config, error) {
	if activeCfg.Paths.Encoder == "" {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}
