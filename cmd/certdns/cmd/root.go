package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/netguru/certdns/internal/config"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "certdns",
	Short: "Manage DNS records and certificates for domain validation",
	Long:  "certdns creates hosted zones, submits DNS record changes to Route 53 or MyraSec, tracks their propagation and stores the resulting certificates",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(nil, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded

		logger = getLogger(cfg.LogLevel)

		if err := cfg.Validate(); err != nil {
			logger.Error("Invalid configuration", zap.Error(err))
			return err
		}

		logger.Debug("Configuration loaded",
			zap.String("env", cfg.Env),
			zap.String("dns_backend", cfg.DNSBackend),
			zap.String("zone_id", cfg.ZoneID),
			zap.String("database_driver", cfg.Database.Driver),
			zap.Strings("domain_filter", cfg.DomainFilter),
			zap.Bool("dry_run", cfg.DryRun))
		return nil
	},
	SilenceUsage: true,
}

// getLogger creates a new logger with the configured log level
func getLogger(level string) *zap.Logger {
	zcfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(getZapLogLevel(level)),
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: false,
		Encoding:          "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		// stdout carries command output
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := zcfg.Build()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	return l
}

// getZapLogLevel converts the string log level to a zap log level
func getZapLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// printResult writes v to the command output as a YAML document.
func printResult(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}

// Execute executes the root command
func Execute() error {
	defer func() {
		closeDeps()
		if logger != nil {
			// Sync on stderr fails on some platforms; nothing to do about it here
			_ = logger.Sync()
		}
	}()

	// Cancel in-flight provider calls and waits on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(zoneCmd, recordCmd, changeCmd, certCmd)
}
