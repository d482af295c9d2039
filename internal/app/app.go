// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/galaxyhub/firmtrack/internal/config"
	"github.com/galaxyhub/firmtrack/internal/fetcher"
	"github.com/galaxyhub/firmtrack/internal/logging"
	"github.com/galaxyhub/firmtrack/internal/notify"
	"github.com/galaxyhub/firmtrack/internal/store/postgres"
	syncer "github.com/galaxyhub/firmtrack/internal/sync"
	"github.com/galaxyhub/firmtrack/internal/tracker"
)

// App holds the shared, long-lived services. It is initialized once at
// startup and passed to the commands that need it.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    *postgres.Store
	Notifier *notify.Notifier
	Syncer   *syncer.Syncer
}

// New builds the full service graph from configuration. It fails fast when
// a critical service cannot be initialized.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: int32(cfg.DB.MaxConns),
		MinConns: int32(cfg.DB.MinConns),
	})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	client := fetcher.New(fetcher.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      cfg.FetchTimeout(),
		MaxRetries:   cfg.Fetch.MaxRetries,
		BackoffBase:  time.Duration(cfg.Fetch.BackoffBaseMs) * time.Millisecond,
		BackoffMax:   time.Duration(cfg.Fetch.BackoffMaxMs) * time.Millisecond,
		PaceInterval: cfg.PaceInterval(),
	}, logger.Named("fetch"))

	var updates, alerts tracker.Sender
	if cfg.Telegram.Token != "" {
		updates = notify.NewTelegram(notify.TelegramConfig{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.UpdatesChat,
		})
		if cfg.Telegram.LogsChat != 0 {
			alerts = notify.NewTelegram(notify.TelegramConfig{
				Token:  cfg.Telegram.Token,
				ChatID: cfg.Telegram.LogsChat,
			})
		}
	} else {
		logger.Warn("telegram token not configured, notifications will be dropped")
		updates = notify.Discard{}
	}
	notifier := notify.New(updates, alerts, notify.Config{
		FirmwareDownloadBase: cfg.Sources.Download,
		KernelSearchBase:     cfg.Sources.Kernel,
	}, logger.Named("notify"))

	sync := syncer.New(syncer.Deps{
		Devices:  fetcher.NewDeviceClient(client, cfg.Sources.DeviceList),
		Regions:  fetcher.NewRegionsClient(client, cfg.Sources.Regions),
		Firmware: fetcher.NewFirmwareClient(client, cfg.Sources.Firmware),
		Kernel:   fetcher.NewKernelClient(client, cfg.Sources.Kernel),
		Store:    store,
		Notifier: notifier,
		Logger:   logger.Named("sync"),
	}, syncer.Config{
		Workers:      cfg.Sync.Workers,
		QueueDepth:   cfg.Sync.QueueDepth,
		DrainWait:    cfg.DrainWait(),
		PageFanOut:   cfg.Sync.PageFanOut,
		RegionFanOut: cfg.Sync.RegionFanOut,
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Notifier: notifier,
		Syncer:   sync,
	}, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
