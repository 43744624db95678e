package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/config"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/adapters/chat"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/adapters/notify"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/adapters/outcome"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/adapters/storage"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/adapters/twitch"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/miner"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/ports"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one reconcile cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full slot table per tick (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("miner starting",
		"config", *configPath,
		"reconcile", cfg.ReconcileInterval(),
		"claim", cfg.ClaimInterval(),
		"wager", cfg.WagerInterval(),
		"once", *once,
	)

	collector := metrics.NewCollector()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := seedSettings(ctx, store); err != nil {
		slog.Error("failed to seed default settings", "err", err)
		os.Exit(1)
	}

	client := twitch.NewClient(cfg.Twitch.HelixBase, cfg.Twitch.OAuthBase, cfg.Twitch.ClientID, collector)

	var chatGateway ports.ChatGateway
	if cfg.Chat.Enabled {
		chatGateway = chat.NewGateway(cfg.Chat.URL)
	}

	notifiers := []ports.Notifier{notify.NewConsole(*table)}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			slog.Error("failed to start telegram notifier", "err", err)
			os.Exit(1)
		}
		notifiers = append(notifiers, tg)
	}
	notifier := notify.NewMulti(notifiers...)

	sim := outcome.NewSimulated(time.Now().UnixNano(), 0.5, 50)

	refresher := miner.NewRefresher(client, store, chatGateway, notifier, cfg.Twitch.ClientID, collector)
	reconciler := miner.NewReconciler(client, refresher, store, notifier)

	schedCfg := miner.DefaultConfig()
	schedCfg.ReconcileInterval = cfg.ReconcileInterval()
	schedCfg.ClaimInterval = cfg.ClaimInterval()
	schedCfg.WagerInterval = cfg.WagerInterval()
	schedCfg.ShutdownTimeout = cfg.ShutdownTimeout()

	scheduler := miner.NewScheduler(schedCfg, store, refresher, reconciler, chatGateway, notifier, sim, sim, collector)

	if cfg.Metrics.Addr != "" {
		srv := collector.StartServer(cfg.Metrics.Addr)
		defer srv.Close()
	}

	if *once {
		scheduler.RunOnce(ctx)
		slog.Info("single cycle complete")
		return
	}

	if err := scheduler.Run(ctx); err != nil {
		slog.Error("scheduler exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("miner stopped cleanly")
}

// seedSettings escribe los defaults para las opciones que aún no existen en
// el store. Nunca pisa valores ya configurados por el usuario.
func seedSettings(ctx context.Context, store ports.Storage) error {
	existing, err := store.GetSettings(ctx)
	if err != nil {
		return err
	}
	for name, value := range domain.DefaultSettings().ToMap() {
		if _, ok := existing[name]; ok {
			continue
		}
		if err := store.PutSetting(ctx, name, value); err != nil {
			return err
		}
	}
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
