package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cenozavr/okey-delivery-scraper/internal/config"
	"github.com/cenozavr/okey-delivery-scraper/internal/database"
	"github.com/cenozavr/okey-delivery-scraper/internal/driver"
	"github.com/cenozavr/okey-delivery-scraper/internal/metrics"
	"github.com/cenozavr/okey-delivery-scraper/internal/scrape"
	"github.com/cenozavr/okey-delivery-scraper/internal/sink"
)

func main() {
	var (
		headless = flag.Bool("headless", true, "Run the browser in headless mode")
		output   = flag.String("output", "", "Output CSV file (overrides SCRAPER_OUTPUT)")
		pages    = flag.Int("pages", 0, "Pages per category (overrides SCRAPER_PAGES)")
	)
	flag.Parse()

	// .env is optional; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *output != "" {
		cfg.OutputFile = *output
	}
	if *pages > 0 {
		cfg.Pages = *pages
	}
	cfg.Headless = cfg.Headless && *headless
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})).With("run_id", runID)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	userAgent := cfg.PickUserAgent(rng)
	logger.Info("starting run", "user_agent", userAgent, "categories", len(cfg.Categories), "pages", cfg.Pages)

	session, err := driver.Launch(&driver.Options{
		Headless:      cfg.Headless,
		UserAgent:     userAgent,
		NavTimeout:    30 * time.Second,
		ProxyServer:   cfg.ProxyServer(),
		ProxyUsername: cfg.ProxyUser,
		ProxyPassword: cfg.ProxyPassword,
	}, logger)
	if err != nil {
		logger.Error("failed to create session", "error", err)
		os.Exit(1)
	}

	scraper := scrape.New(session, scrape.Config{
		BaseURL:        cfg.BaseURL,
		Address:        cfg.Address,
		Categories:     cfg.Categories,
		Pages:          cfg.Pages,
		FindTimeout:    cfg.FindTimeout,
		AddressTimeout: cfg.AddressTimeout,
		SettleTimeout:  cfg.SettleTimeout,
		PageDelay:      cfg.PageDelay,
	}, logger, m)

	records, runErr := scraper.Run(ctx)
	if runErr != nil {
		logger.Error("run aborted", "error", runErr, "records", len(records))
	}

	// Persist whatever was accumulated, on success and on abort alike.
	if err := sink.WriteCSV(cfg.OutputFile, records); err != nil {
		logger.Error("failed to write csv", "error", err)
		os.Exit(1)
	}
	logger.Info("results written", "file", cfg.OutputFile, "records", len(records))

	if cfg.DatabaseURL != "" {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.InsertRecords(ctx, runID, records); err != nil {
			logger.Error("failed to store records", "error", err)
			os.Exit(1)
		}
		logger.Info("records stored", "records", len(records))
	}

	if runErr != nil {
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
