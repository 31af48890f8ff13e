// LinuxBox Finder
// HTTP shim exposing the device's WiFi state and controls
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"linuxbox-finder/internal/config"
	"linuxbox-finder/internal/handlers"
	"linuxbox-finder/internal/sysinfo"
	"linuxbox-finder/internal/wifi"
)

var (
	configFile string
	iface      string
	host       string
	port       int
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "linuxbox-finder",
		Short:         "WiFi provisioning HTTP service",
		Long:          "Serves WiFi status, WiFi configuration, system info and device commands over JSON-over-HTTP.",
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", config.DefaultFile, "INI configuration file")
	flags.StringVarP(&iface, "interface", "i", "", "managed WiFi interface")
	flags.StringVar(&host, "host", "", "HTTP listen host")
	flags.IntVarP(&port, "port", "p", 0, "HTTP listen port")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default)",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current WiFi status as JSON",
			RunE:  runStatus,
		},
		&cobra.Command{
			Use:   "forget-networks",
			Short: "Delete every saved WiFi connection profile",
			RunE:  runForgetNetworks,
		},
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("linuxbox-finder failed")
	}
}

// loadConfig applies defaults, the INI file, the environment and finally
// any flags given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("interface") {
		cfg.Interface = iface
	}
	if flags.Changed("host") {
		cfg.ListenHost = host
	}
	if flags.Changed("port") {
		cfg.ListenPort = port
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func newManager(cfg *config.Config) *wifi.Manager {
	return wifi.NewManager(
		wifi.NewNMCLI(wifi.WithExecTimeout(cfg.ExecTimeout)),
		wifi.WithInterface(cfg.Interface),
		wifi.WithPollAttempts(cfg.PollAttempts),
		wifi.WithPollInterval(cfg.PollInterval),
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg)
	log.Info().Str("interface", cfg.Interface).Msg("LinuxBox Finder starting...")

	mgr := newManager(cfg)
	defer mgr.Close()

	// A failed initialization leaves the API up with degraded answers.
	var adapter handlers.WiFiManager = mgr
	if err := mgr.Initialize(cmd.Context()); err != nil {
		log.Error().Err(err).Msg("WiFi manager unavailable, serving degraded responses")
		adapter = nil
	}

	h := handlers.New(adapter, sysinfo.NewCollector())

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handlers.NewRouter(h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ShutdownGrace(),
		IdleTimeout:  60 * time.Second,
	}

	// Catch signals before the listener starts.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn().Err(err).Msg("sd_notify READY failed")
	}

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	daemon.SdNotify(false, daemon.SdNotifyStopping)

	// In-flight joins are allowed to run to completion.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace())
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info().Msg("LinuxBox Finder stopped")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	mgr := newManager(cfg)
	defer mgr.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(mgr.Status(cmd.Context()))
}

func runForgetNetworks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	mgr := newManager(cfg)
	defer mgr.Close()

	if err := mgr.DeleteAllNetworks(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved WiFi networks deleted")
	return nil
}
