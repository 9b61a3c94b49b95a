package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/SerxWco/OG88/internal/alerts"
	"github.com/SerxWco/OG88/internal/config"
	"github.com/SerxWco/OG88/internal/convert"
	"github.com/SerxWco/OG88/internal/metrics"
	"github.com/SerxWco/OG88/internal/monitor"
	"github.com/SerxWco/OG88/internal/registry"
	"github.com/SerxWco/OG88/internal/storage"
	"github.com/SerxWco/OG88/internal/telegram"
	"github.com/SerxWco/OG88/internal/wchain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	log.Info("Starting og88bot service...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	log.WithFields(logrus.Fields{
		"environment":        cfg.Environment,
		"big_buy_usd":        cfg.BigBuyThresholdUSD.String(),
		"burn_poll_interval": cfg.BurnPollInterval.String(),
		"buy_poll_interval":  cfg.BuyPollInterval.String(),
		"liquidity_pools":    len(cfg.LiquidityAddresses),
		"alert_mode":         cfg.AlertMode,
	}).Info("Configuration loaded")

	// Initialize database (optional; the bot runs in-memory without one)
	var db *storage.DB
	if cfg.DatabaseDSN != "" {
		db, err = storage.New(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		if err := db.AutoMigrate(); err != nil {
			log.WithError(err).Fatal("Failed to run database migrations")
		}
		log.Info("Database migrations complete")
	} else {
		log.Warn("DATABASE_DSN not set, subscriptions will not survive restarts")
	}

	// Initialize explorer/price client
	client := wchain.NewClient(cfg, log)
	log.Info("W-Chain API client initialized")

	converter, err := convert.New(cfg.BigBuyThresholdUSD, cfg.FallbackTokenThreshold)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize threshold converter")
	}

	// Subscription registry, restored from the database when one is present
	var store registry.Store
	if db != nil {
		store = db
	}
	reg := registry.New(store, cfg.RecentEventsLimit, log)
	if db != nil {
		restoreSubscriptions(db, reg, log)
	}

	// Telegram bot API, needed for both alert delivery and commands
	var botAPI *tgbotapi.BotAPI
	if cfg.TelegramBotToken != "" {
		botAPI, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Telegram bot")
		}
		log.WithField("bot", botAPI.Self.UserName).Info("Telegram bot authorized")
	} else if strings.Contains(cfg.AlertMode, "telegram") {
		log.Fatal("TELEGRAM_BOT_TOKEN is required for telegram alert mode")
	}

	alertSender := createAlertSender(cfg, botAPI, log)
	log.WithField("alert_mode", cfg.AlertMode).Info("Alert sender initialized")

	explorerTxBase := strings.TrimSuffix(cfg.ExplorerBaseURL, "/api/v2")

	if db != nil {
		restoreAlertHistory(db, reg, explorerTxBase, cfg.RecentEventsLimit, log)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Burn monitor
	burnMonitor := monitor.New(monitor.Options{
		Kind:           alerts.KindBurn,
		BurnAddress:    cfg.BurnWalletAddress,
		Interval:       cfg.BurnPollInterval,
		GraceTimeout:   cfg.PollGraceTimeout,
		DedupWindow:    cfg.DedupWindow,
		ExplorerTxBase: explorerTxBase,
	}, client, converter, reg, alertSender, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		burnMonitor.Run(ctx)
	}()

	// Buy monitor, only when liquidity pools are configured
	if len(cfg.LiquidityAddresses) > 0 {
		buyMonitor := monitor.New(monitor.Options{
			Kind:               alerts.KindBuy,
			BurnAddress:        cfg.BurnWalletAddress,
			LiquidityAddresses: cfg.LiquidityAddresses,
			Interval:           cfg.BuyPollInterval,
			GraceTimeout:       cfg.PollGraceTimeout,
			DedupWindow:        cfg.DedupWindow,
			ExplorerTxBase:     explorerTxBase,
		}, client, converter, reg, alertSender, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			buyMonitor.Run(ctx)
		}()
	} else {
		log.Warn("OG88_LIQUIDITY_ADDRESSES not set, big buy monitoring disabled")
	}

	// Telegram command surface
	if botAPI != nil {
		bot := telegram.New(botAPI, client, converter, reg, telegram.Options{
			TokenAddress:        cfg.TokenAddress,
			BurnWalletAddress:   cfg.BurnWalletAddress,
			BurnAddresses:       []string{cfg.BurnWalletAddress},
			LiquidityConfigured: len(cfg.LiquidityAddresses) > 0,
			FiatThreshold:       cfg.BigBuyThresholdUSD,
		}, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			bot.Run(ctx)
		}()
	}

	// Start HTTP server (health + metrics)
	go startHTTPServer(cfg.HealthPort, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig).Info("Received shutdown signal")
	cancel()
	wg.Wait()
	log.Info("Graceful shutdown complete")
}

func restoreSubscriptions(db *storage.DB, reg *registry.Registry, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	subs, err := db.LoadSubscriptions(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to restore subscriptions")
		return
	}
	for kind, chatIDs := range subs {
		reg.Restore(alerts.Kind(kind), chatIDs)
		log.WithFields(logrus.Fields{
			"kind":  kind,
			"chats": len(chatIDs),
		}).Info("Restored subscriptions")
	}
}

// restoreAlertHistory reloads recent alerts so /buys latest has history
// straight after a restart.
func restoreAlertHistory(db *storage.DB, reg *registry.Registry, explorerTxBase string, limit int, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, kind := range []alerts.Kind{alerts.KindBurn, alerts.KindBuy} {
		rows, err := db.RecentAlerts(ctx, string(kind), limit)
		if err != nil {
			log.WithError(err).WithField("kind", kind).Error("Failed to restore alert history")
			continue
		}
		if len(rows) == 0 {
			continue
		}
		// Rows arrive newest first; the registry keeps history oldest first.
		events := make([]*alerts.Event, 0, len(rows))
		for i := len(rows) - 1; i >= 0; i-- {
			events = append(events, rows[i].Event(explorerTxBase))
		}
		reg.RestoreEvents(kind, events)
		log.WithFields(logrus.Fields{
			"kind":   kind,
			"events": len(events),
		}).Info("Restored alert history")
	}
}

func createAlertSender(cfg *config.Config, botAPI *tgbotapi.BotAPI, log *logrus.Logger) alerts.Sender {
	// Parse comma-separated alert modes
	modes := strings.Split(cfg.AlertMode, ",")
	for i, mode := range modes {
		modes[i] = strings.TrimSpace(mode)
	}

	animations := map[alerts.Kind]string{}
	if cfg.BurnAnimationURL != "" {
		animations[alerts.KindBurn] = cfg.BurnAnimationURL
	}
	if cfg.BuyAnimationURL != "" {
		animations[alerts.KindBuy] = cfg.BuyAnimationURL
	}

	senders := []alerts.Sender{}
	for _, mode := range modes {
		switch mode {
		case "log":
			senders = append(senders, alerts.NewLogSender(log))
		case "telegram":
			if botAPI == nil {
				log.Warn("Telegram mode specified but no bot token configured")
				continue
			}
			senders = append(senders, alerts.NewTelegramSender(botAPI, log, animations))
		default:
			log.WithField("mode", mode).Warn("Unknown alert mode, skipping")
		}
	}

	if len(senders) == 0 {
		log.Warn("No valid alert senders configured, using log")
		return alerts.NewLogSender(log)
	}
	if len(senders) == 1 {
		return senders[0]
	}
	return alerts.NewMultiSender(senders...)
}

func startHTTPServer(port int, log *logrus.Logger) {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		metrics.RecordHealthCheck()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy"}`)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		metrics.RecordHealthCheck()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ready"}`)
	})

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.WithField("port", port).Info("Starting HTTP server (health + metrics)")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("HTTP server failed")
	}
}
