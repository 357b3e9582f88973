// Package daemon provides the load sync daemon.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brokerlink/loadsync/internal/cli"
	"github.com/brokerlink/loadsync/internal/config"
	"github.com/brokerlink/loadsync/internal/constants"
	"github.com/brokerlink/loadsync/internal/dedup"
	"github.com/brokerlink/loadsync/internal/scheduler"
	"github.com/brokerlink/loadsync/internal/sweep"
	"github.com/brokerlink/loadsync/internal/webhook"
	"github.com/brokerlink/loadsync/internal/webservice"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig

	daemon *webservice.Server

	ready chan struct{}
}

// appConfig holds the configuration for the application.
type appConfig struct {
	Verbosity int
	JSONLogs  bool

	EnvironmentsFile string
	RedisURL         string

	Daemon webservice.StaticConfig
	Sweeps sweepsConfig
}

// sweepsConfig holds the background sweep intervals. An interval of 0
// disables the background job; the HTTP trigger stays available.
type sweepsConfig struct {
	PreShipmentInterval time.Duration
	PrePickupInterval   time.Duration
	InTransitInterval   time.Duration
}

// New creates a new App instance with default values.
func New() (*App, error) {
	a := App{ready: make(chan struct{})}

	a.cmd = &cobra.Command{
		Use:   constants.CmdName,
		Short: "TMS to broker load sync service",
		Long: "Load sync service syncing orders from a McLeod TMS to a broker load board, " +
			"serving on-demand load lookups and driving scheduled notification sweeps.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetVerbosity(a.config.Verbosity) // Set verbosity before loading config
			if err := cli.InitViperConfig(constants.CmdName, a.cmd, a.viper); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to strictly decode configuration into struct: %w", err)
			}
			slog.Info("got app config", "config", a.config)

			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cmd.SilenceUsage = true

			return a.run()
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	installRootCmd(&a)
	cli.InstallConfigFlag(a.cmd)

	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}

	a.installVersion()

	return &a, nil
}

func installRootCmd(app *App) {
	cmd := app.cmd

	defaultConf := webservice.StaticConfig{
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   30 * time.Second,
		RequestTimeout: 2 * time.Minute,
		MaxHeaderBytes: 1 << 13, // 8 KB

		ListenPort:  8080,
		MetricsPort: 2112,
	}

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().BoolVar(&app.config.JSONLogs, "json-logs", false, "emit logs as JSON")

	// Daemon flags
	cmd.Flags().StringVar(&app.config.EnvironmentsFile, "environments-file", "environments.json", "path to the environments configuration file")
	cmd.Flags().StringVar(&app.config.RedisURL, "redis-url", "", "Redis URL for pre-pickup call deduplication (empty disables it)")

	cmd.Flags().DurationVar(&app.config.Daemon.ReadTimeout, "read-timeout", defaultConf.ReadTimeout, "read timeout for HTTP server")
	cmd.Flags().DurationVar(&app.config.Daemon.WriteTimeout, "write-timeout", defaultConf.WriteTimeout, "write timeout for HTTP server")
	cmd.Flags().DurationVar(&app.config.Daemon.RequestTimeout, "request-timeout", defaultConf.RequestTimeout, "request timeout for HTTP server")
	cmd.Flags().IntVar(&app.config.Daemon.MaxHeaderBytes, "max-header-bytes", defaultConf.MaxHeaderBytes, "maximum header bytes for HTTP server")

	cmd.Flags().StringVar(&app.config.Daemon.ListenHost, "listen-host", defaultConf.ListenHost, "host to listen on")
	cmd.Flags().IntVar(&app.config.Daemon.ListenPort, "listen-port", defaultConf.ListenPort, "port to listen on")

	cmd.Flags().StringVar(&app.config.Daemon.MetricsHost, "metrics-host", defaultConf.MetricsHost, "host for the metrics endpoint")
	cmd.Flags().IntVar(&app.config.Daemon.MetricsPort, "metrics-port", defaultConf.MetricsPort, "port for the metrics endpoint")

	cmd.Flags().DurationVar(&app.config.Sweeps.PreShipmentInterval, "pre-shipment-interval", 30*time.Minute, "how often to run the pre-shipment sweep (0 disables it)")
	cmd.Flags().DurationVar(&app.config.Sweeps.PrePickupInterval, "pre-pickup-interval", time.Hour, "how often to run the pre-pickup sweep (0 disables it)")
	cmd.Flags().DurationVar(&app.config.Sweeps.InTransitInterval, "in-transit-interval", 12*time.Hour, "how often to run the in-transit sweep (0 disables it)")

	err := cmd.MarkFlagFilename("environments-file")
	if err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark environments-file flag as filename: %v", err))
	}
}

// Run executes the command and associated process, returning an error if any.
func (a App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// Hup prints all goroutine stack traces and return false to signal you shouldn't quit.
func (a App) Hup() (shouldQuit bool) {
	buf := make([]byte, 1<<16)
	runtime.Stack(buf, true)
	fmt.Printf("%s", buf)
	return false
}

// Quit gracefully shuts down the daemon.
func (a *App) Quit() {
	a.WaitReady()
	if a.daemon != nil {
		a.daemon.Quit(false)
	}
}

// WaitReady waits for the daemon to be ready.
func (a *App) WaitReady() {
	<-a.ready
}

// RootCmd returns the root command.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}

func (a *App) run() (err error) {
	a.config.EnvironmentsFile, err = filepath.Abs(a.config.EnvironmentsFile)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for environments file: %v", err)
	}

	ctx := context.Background()
	cm := config.New(a.config.EnvironmentsFile)

	store, err := dedup.New(ctx, a.config.RedisURL, dedup.WithTTL(constants.DefaultDedupTTL))
	if err != nil {
		slog.Warn("Pre-pickup deduplication unavailable", "err", err)
	}
	if store != nil {
		defer store.Close()
	}

	registry := prometheus.NewRegistry()
	runner := sweep.NewRunner(cm, webhook.New(), store, sweep.NewMetrics(registry))

	jobs := scheduler.New(
		scheduler.Job{
			Name:     sweep.NamePreShipment,
			Interval: a.config.Sweeps.PreShipmentInterval,
			Run:      func(ctx context.Context) { runner.PreShipment(ctx) },
		},
		scheduler.Job{
			Name:     sweep.NamePrePickup,
			Interval: a.config.Sweeps.PrePickupInterval,
			Run:      func(ctx context.Context) { runner.PrePickup(ctx) },
		},
		scheduler.Job{
			Name:     sweep.NameInTransit,
			Interval: a.config.Sweeps.InTransitInterval,
			Run:      func(ctx context.Context) { runner.InTransit(ctx, callTypeNow(time.Now())) },
		},
	)

	a.daemon, err = webservice.New(ctx, cm, runner, registry, a.config.Daemon, webservice.WithBackground(jobs))
	close(a.ready)
	if err != nil {
		return fmt.Errorf("failed to create server: %v", err)
	}

	return a.daemon.Run()
}

// callTypeNow picks the in-transit check-in flavor for a scheduled run:
// morning before noon Central, afternoon after.
func callTypeNow(now time.Time) string {
	central, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return sweep.CallMorning
	}
	if now.In(central).Hour() < 12 {
		return sweep.CallMorning
	}
	return sweep.CallAfternoon
}
