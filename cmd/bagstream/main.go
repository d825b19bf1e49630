package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skyport/bagstream"
	"github.com/skyport/bagstream/server"
)

var rootCmd = &cobra.Command{
	Use:   "bagstream",
	Short: "Live baggage-processing status service",
	Long: `Bagstream simulates multi-stage airline baggage processing and streams
live status updates to WebSocket subscribers, with HTTP endpoints for
job submission and point-in-time status queries.`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./bagstream.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	setDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bagstream")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/bagstream")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("BAGSTREAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

func setDefaults() {
	def := bagstream.DefaultConfig()

	mins := make([]int, len(def.StageDelays))
	maxes := make([]int, len(def.StageDelays))
	for i, d := range def.StageDelays {
		mins[i] = int(d.Min / time.Second)
		maxes[i] = int(d.Max / time.Second)
	}

	viper.SetDefault("listen_addr", ":7000")
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("stages", def.Stages)
	viper.SetDefault("stage_min_seconds", mins)
	viper.SetDefault("stage_max_seconds", maxes)
	viper.SetDefault("retention_seconds", int(def.Retention/time.Second))
	viper.SetDefault("estimate_horizon_seconds", int(def.EstimateHorizon/time.Second))
	viper.SetDefault("shutdown_timeout_seconds", 10)
}

func buildConfig() (bagstream.Config, error) {
	cfg := bagstream.DefaultConfig()
	cfg.Stages = viper.GetStringSlice("stages")

	mins := viper.GetIntSlice("stage_min_seconds")
	maxes := viper.GetIntSlice("stage_max_seconds")
	if len(mins) != len(maxes) {
		return cfg, fmt.Errorf("stage_min_seconds has %d entries, stage_max_seconds has %d", len(mins), len(maxes))
	}
	cfg.StageDelays = make([]bagstream.DelayRange, len(mins))
	for i := range mins {
		cfg.StageDelays[i] = bagstream.DelayRange{
			Min: time.Duration(mins[i]) * time.Second,
			Max: time.Duration(maxes[i]) * time.Second,
		}
	}

	cfg.Retention = time.Duration(viper.GetInt("retention_seconds")) * time.Second
	cfg.EstimateHorizon = time.Duration(viper.GetInt("estimate_horizon_seconds")) * time.Second
	return cfg, nil
}

func run(_ *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(viper.GetString("log_level")),
	}))

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.InfoLog = func(ev bagstream.LogEvent) { logger.Info(ev.Message, eventAttrs(ev)...) }
	cfg.ErrorLog = func(ev bagstream.LogEvent) { logger.Error(ev.Message, eventAttrs(ev)...) }

	tracker, err := bagstream.New(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    viper.GetString("listen_addr"),
		Handler: server.New(tracker),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("bagstream listening", "addr", srv.Addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		logger.Info("signal received, shutting down", "signal", sig.String())
	}

	timeout := time.Duration(viper.GetInt("shutdown_timeout_seconds")) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	tracker.Shutdown(timeout)
	return nil
}

// eventAttrs flattens a LogEvent into slog key/value pairs.
func eventAttrs(ev bagstream.LogEvent) []any {
	attrs := make([]any, 0, 8)
	if ev.TaskID != "" {
		attrs = append(attrs, "task_id", ev.TaskID)
	}
	if ev.Stage != nil {
		attrs = append(attrs, "stage", *ev.Stage)
	}
	if ev.Duration != nil {
		attrs = append(attrs, "duration", ev.Duration.String())
	}
	if ev.Err != nil {
		attrs = append(attrs, "error", ev.Err.Error())
	}
	return attrs
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
