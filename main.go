package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"snek/client"
	"snek/server"
	"snek/utils"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Llongfile)

	configPath := flag.String("config", "config.toml", "path to the TOML config")
	flag.Parse()

	cfg, err := utils.ReadTOMLOrDefault(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := client.Options{
		Address:    cfg.Server.Address,
		Name:       cfg.Player.Name,
		Token:      cfg.Player.Token,
		RetryDelay: cfg.RetryDelay(),
		Dialer:     client.NetDialer(cfg.ReadTimeout()),
		Metrics:    client.NewMetrics(reg),
		Logger:     logger,
	}

	if cfg.Feed.Address != "" {
		feed := server.NewFeed(reg, logger.With("component", "feed"))
		opts.Publisher = feed
		go func() {
			if err := server.Run(ctx, cfg.Feed.Address, feed); err != nil {
				logger.Error("snapshot feed stopped", "error", err)
			}
		}()
	}

	manager := client.NewManager(opts)
	if err := manager.Run(ctx); err != nil {
		logger.Info("shutting down", "reason", err)
	}
}
