package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jmcfet/promoUI-sub009/internal/api"
	"github.com/jmcfet/promoUI-sub009/internal/bookmark"
	"github.com/jmcfet/promoUI-sub009/internal/cache"
	"github.com/jmcfet/promoUI-sub009/internal/ccom"
	"github.com/jmcfet/promoUI-sub009/internal/config"
	"github.com/jmcfet/promoUI-sub009/internal/daemon"
	"github.com/jmcfet/promoUI-sub009/internal/journal"
	"github.com/jmcfet/promoUI-sub009/internal/log"
	"github.com/jmcfet/promoUI-sub009/internal/navigation"
	"github.com/jmcfet/promoUI-sub009/internal/playback"
	"github.com/jmcfet/promoUI-sub009/internal/prefs"
	"github.com/jmcfet/promoUI-sub009/internal/reminder"
	"github.com/jmcfet/promoUI-sub009/internal/shell"
	"github.com/jmcfet/promoUI-sub009/internal/traxis"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "promoui: %v\n", err)
		os.Exit(1)
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: "promoui",
		Version: version,
	})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *configPath); err != nil {
		logger.Fatal().Err(err).Msg("daemon failed")
	}
	logger.Info().Msg("daemon stopped")
}

func run(ctx context.Context, cfg config.Config, configPath string) error {
	logger := log.Base()

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	store, err := prefs.Open(filepath.Join(cfg.DataDir, "prefs"))
	if err != nil {
		return fmt.Errorf("open preference store: %w", err)
	}
	defer store.Close()

	jnl, err := journal.Open(filepath.Join(cfg.DataDir, "journal.db"), logger)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	var stateCache cache.Cache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(cache.RedisConfig{Addr: cfg.RedisAddr}, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()
		stateCache = rc
	} else {
		stateCache = cache.NewMemory(0)
	}

	shellClient := shell.New(cfg.ShellBaseURL)
	ccomClient := ccom.New(cfg.CCOMBaseURL)
	traxisClient := traxis.New(cfg.TraxisBaseURL, cfg.TraxisAccount)

	decider := bookmark.NewDecider(traxisClient, shellClient, log.WithComponent("bookmark"))

	gate := playback.NewGate(playback.Deps{
		Pins:      shellClient,
		Policy:    shellClient,
		Resources: ccomClient,
		URLs:      traxisClient,
		Purchases: traxisClient,
		Tuner:     shellClient,
		Player:    shellClient,
		Bookmarks: decider,
		Prefs:     store,
		Logger:    log.WithComponent("playback"),
	})

	nav := navigation.NewNavigator(navigation.Deps{
		Source: traxisClient,
		Pins:   shellClient,
		Policy: shellClient,
		Logger: log.WithComponent("navigation"),
	})

	reminders := reminder.NewManager(reminder.Deps{
		Scheduler: ccomClient,
		Cache:     stateCache,
		Journal:   jnl,
		Dialogs:   shellClient,
		Tuner:     shellClient,
		Power:     shellClient,
		Logger:    log.WithComponent("reminder"),
	})
	reminders.SetDialogTimeout(cfg.DialogTimeout)

	server := api.NewServer(api.Deps{
		Gate:           gate,
		Navigator:      nav,
		Reminders:      reminders,
		Journal:        jnl,
		Cache:          stateCache,
		Logger:         log.WithComponent("api"),
		RateLimit:      cfg.RateLimit,
		TracingService: "promoui",
	})

	holder := config.NewHolder(cfg, configPath, logger)
	pump := ccom.NewPump(ccomClient, reminders, log.WithComponent("ccom"))

	app := daemon.NewApp(logger, holder, server.Router(), pump)
	return app.Run(ctx)
}
