package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gigcal/internal/auth"
	"gigcal/internal/commands"
	"gigcal/internal/config"
	"gigcal/internal/ics"
	appLog "gigcal/internal/log"
	"gigcal/internal/sched"
	"gigcal/internal/store"
	"gigcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	dump       bool
}

func main() {
	// Subcommands are dispatched before flag parsing.
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		commands.HashPassword(os.Args[2:])
		return
	}

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("gigcal starting",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"subscriptions", len(conf.Subscriptions),
		"data_dir", conf.DataDir,
	)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone, using local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	st, err := store.Open(conf.DataDir)
	if err != nil {
		appLog.Error("failed to open database", err, "data_dir", conf.DataDir)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	refresher := sched.New(conf, loc)

	if flags.once {
		if err := refresher.Refresh(ctx); err != nil {
			appLog.Error("refresh failed", err)
			os.Exit(1)
		}
		appLog.Info("single refresh cycle complete")
		return
	}

	if flags.dump {
		if err := dumpFeed(ctx, conf, loc, st); err != nil {
			appLog.Error("dump failed", err)
			os.Exit(1)
		}
		return
	}

	var creds *auth.Credentials
	if conf.BasicAuth.Enabled {
		creds, err = auth.Load(conf.BasicAuth.File)
		if err != nil {
			if errors.Is(err, auth.ErrNoCredentials) {
				appLog.Error("basic auth enabled but credentials file missing; run `gigcal hash-password`",
					err, "file", conf.BasicAuth.File)
			} else {
				appLog.Error("failed to load credentials", err, "file", conf.BasicAuth.File)
			}
			os.Exit(1)
		}
		appLog.Info("basic auth enabled for mutating endpoints", "user", creds.Username)
	} else {
		appLog.Warn("basic auth disabled; mutating endpoints are open")
	}

	server := web.NewServer(conf, st, refresher, creds)
	refresher.OnRefresh(server.InvalidateSchedule)
	if err := refresher.Start(ctx); err != nil {
		appLog.Error("failed to start refresh scheduler", err, "cron", conf.RefreshCron)
		os.Exit(1)
	}
	defer refresher.Stop()

	httpServer := &http.Server{
		Addr:              conf.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLog.Error("HTTP shutdown failed", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}

	appLog.Info("gigcal exiting")
}

// dumpFeed writes the subscription calendar for the configured horizon
// to stdout, so the feed can be inspected or piped to a file without a
// running server.
func dumpFeed(ctx context.Context, conf *config.Config, loc *time.Location, st *store.Store) error {
	now := time.Now().In(loc)
	from := now.AddDate(0, 0, -1).Format("2006-01-02")
	to := now.AddDate(0, 0, conf.HorizonDays).Format("2006-01-02")

	gigs, err := st.GigsBetween(ctx, from, to)
	if err != nil {
		return err
	}

	body := ics.BuildFeed(gigs, loc, ics.FeedOptions{
		BandName:          conf.BandName,
		Timezone:          conf.Timezone,
		TTLMinutes:        conf.FeedTTLMinutes,
		DefaultGigMinutes: conf.DefaultGigMinutes,
	})
	_, err = fmt.Print(body)
	return err
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one subscription refresh cycle and exit")
	flag.BoolVar(&cfg.dump, "dump", false, "Dump the gig feed as ICS to stdout and exit")

	flag.Parse()

	return cfg
}
