package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"chronos/internal/clock"
	"chronos/internal/config"
	"chronos/internal/convert"
	"chronos/internal/ics"
	appLog "chronos/internal/log"
	"chronos/internal/store"
	"chronos/internal/web"
	"chronos/internal/zone"
)

// flagConfig holds CLI flag values that override the config file.
type flagConfig struct {
	configPath string
	listen     string
	debug      bool
}

func main() {
	appLog.Info("chronos starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	storePath := conf.StorePath(flags.configPath)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.Refresh,
		"store_driver", conf.Store.Driver,
		"store_path", storePath,
		"strict_civil_time", conf.StrictCivilTime,
		"debug", flags.debug,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clk := clock.System{}

	catalog, err := zone.NewCatalog(zone.FallbackSource{
		Primary:  zone.SystemSource{Dir: conf.ZoneInfoDir},
		Fallback: zone.EmbeddedSource{},
	}, clk)
	if err != nil {
		appLog.Error("failed to build zone catalog", err)
		os.Exit(1)
	}
	if !catalog.Contains(conf.Timezone) {
		appLog.Warn("configured timezone not recognized; using UTC", "timezone", conf.Timezone)
		conf.Timezone = "UTC"
	}

	var engineOpts []convert.Option
	if conf.StrictCivilTime {
		engineOpts = append(engineOpts, convert.WithStrictCivilTime())
	}
	engine := convert.New(catalog, engineOpts...)

	st, closeStore, err := openStore(ctx, conf.Store.Driver, storePath)
	if err != nil {
		appLog.Error("failed to open event store", err, "driver", conf.Store.Driver, "path", storePath)
		os.Exit(1)
	}
	defer closeStore()

	book := store.OpenBook(ctx, st, clk)

	srv := web.NewServer(conf, web.Deps{
		Catalog:  catalog,
		Engine:   engine,
		Book:     book,
		Exporter: ics.NewExporter(engine, clk),
		Clock:    clk,
	}, flags.debug)

	refresher, err := clock.NewRefresher(conf.Refresh, clk, srv.SetNow)
	if err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.Refresh)
		os.Exit(1)
	}
	refresher.Start()
	defer refresher.Stop()

	if err := web.StartServer(ctx, conf, srv); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		refresher.Stop()
		closeStore()
		os.Exit(1)
	}

	appLog.Info("chronos exiting")
}

// openStore returns the configured Store and a func releasing it.
func openStore(ctx context.Context, driver, path string) (store.Store, func(), error) {
	switch driver {
	case config.DriverSQLite:
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return nil, nil, err
			}
		}
		s, err := store.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				appLog.Error("failed to close sqlite store", err)
			}
		}, nil
	default:
		return store.NewFileStore(path), func() {}, nil
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "chronos", "config.yaml")
	}
	return "chronos.yaml"
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", defaultConfigPath(), "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
