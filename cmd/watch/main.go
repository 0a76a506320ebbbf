package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solana-lp-watch/internal/alerting"
	"solana-lp-watch/internal/config"
	"solana-lp-watch/internal/enrich"
	"solana-lp-watch/internal/filter"
	"solana-lp-watch/internal/notify"
	"solana-lp-watch/internal/observability"
	"solana-lp-watch/internal/pipeline"
	"solana-lp-watch/internal/raydium"
	"solana-lp-watch/internal/solana"
	"solana-lp-watch/internal/storage"
	chstore "solana-lp-watch/internal/storage/clickhouse"
	"solana-lp-watch/internal/storage/memory"
	"solana-lp-watch/internal/storage/migrations"
	pgstore "solana-lp-watch/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	envFile := flag.String("env-file", ".env", "Path to .env file (optional)")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lshortfile)

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		logger.Printf("Could not load %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	logger.Printf("Mode: %s", cfg.Mode)
	logger.Printf("RPC endpoint: %s", maskURL(cfg.Solana.RPCURL))
	logger.Printf("WS endpoint: %s", maskURL(cfg.Solana.WSURL))

	// Start metrics server if enabled
	if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, logger)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	// Stores: in-memory unless DSNs are configured.
	var alertStore storage.AlertStore = memory.NewAlertStore()
	var decisionStore storage.DecisionLogStore = memory.NewDecisionLogStore()

	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}
		alertStore = pgstore.NewAlertStore(pool)
		logger.Println("Alert store: postgres")
	} else {
		logger.Println("Alert store: in-memory")
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()

		decisionStore = chstore.NewDecisionLogStore(conn)
		logger.Println("Decision log: clickhouse")
	} else {
		logger.Println("Decision log: in-memory")
	}

	thresholds := cfg.Thresholds()

	// Notifier: Telegram when configured, plain log otherwise.
	var notifier alerting.Notifier
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(notify.TelegramOptions{
			Token:      cfg.Telegram.BotToken,
			ChatID:     cfg.Telegram.ChatID,
			Mode:       cfg.Mode,
			Thresholds: thresholds,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("create telegram notifier: %w", err)
		}
		notifier = tg
		logger.Println("Notifier: telegram")
	} else {
		notifier = notify.NewLogNotifier(logger)
		logger.Println("Notifier: log")
	}

	recorder := alerting.NewRecorder(alerting.RecorderOptions{
		Alerts:    alertStore,
		Decisions: decisionStore,
		Notifier:  notifier,
		Mode:      cfg.Mode,
		Logger:    logger,
	})

	rpc := solana.NewHTTPClient(cfg.Solana.RPCURL)
	decoder := raydium.NewDecoder(raydium.DecoderOptions{Logger: logger})
	enricher := enrich.NewEnricher(enrich.EnricherOptions{
		Resolver: enrich.NewDexScreenerClient(enrich.DexScreenerOptions{}),
		Prices:   enrich.NewPriceService(enrich.PriceServiceOptions{Logger: logger}),
		Logger:   logger,
	})
	engine := filter.NewEngine(filter.EngineOptions{
		Thresholds: thresholds,
		Logger:     logger,
	})

	listener := pipeline.NewListener(pipeline.ListenerOptions{
		Dial: func(ctx context.Context) (pipeline.Conn, error) {
			return solana.DialLogs(ctx, cfg.Solana.WSURL, solana.ConnConfig{})
		},
		RPC:      rpc,
		Decoder:  decoder,
		Enricher: enricher,
		Engine:   engine,
		Sink:     recorder,
		Logger:   logger,
		Programs: []string{cfg.Solana.Program},
	})

	logger.Println("Watching for liquidity additions...")
	err := listener.Run(ctx)

	stats := listener.Stats()
	logger.Printf("Session: %d messages, %d LP events, %d alerts",
		stats.Messages, stats.LPEvents, stats.Alerts)

	return err
}

// maskURL hides credentials and API keys embedded in endpoint URLs.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	if u.User != nil {
		u.User = url.User("***")
	}
	if u.RawQuery != "" {
		u.RawQuery = "***"
	}
	if len(u.Path) > 1 {
		u.Path = "/***"
	}
	return u.String()
}
