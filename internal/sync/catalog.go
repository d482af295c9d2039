package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/galaxyhub/firmtrack/internal/scrape"
	"github.com/galaxyhub/firmtrack/internal/telemetry"
	"github.com/galaxyhub/firmtrack/internal/tracker"
)

// SyncDevices refreshes the device catalog: walk every list page, enrich
// each phone with specs, models and regions, and replace the stored rows.
// Individual device failures are logged and skipped.
func (s *Syncer) SyncDevices(ctx context.Context) error {
	if err := s.acquire("devices"); err != nil {
		return err
	}
	defer s.release()

	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("flow", "devices"))
	logger.Info("catalog refresh starting")

	listed, err := s.collectListings(ctx, logger)
	if err != nil {
		telemetry.CountSyncRun("devices", "error")
		return err
	}

	var devices []*tracker.Device
	for i := range listed {
		if !keepListing(listed[i].Name) {
			continue
		}
		dev, err := s.buildDevice(ctx, &listed[i])
		if err != nil {
			logger.Warn("device skipped",
				zap.Int("device_id", listed[i].ID),
				zap.String("name", listed[i].Name),
				zap.Error(err),
			)
			continue
		}
		if dev != nil {
			devices = append(devices, dev)
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Supername < devices[j].Supername
	})

	stored := 0
	for _, dev := range devices {
		if err := s.store.ReplaceDevice(ctx, dev); err != nil {
			logger.Error("device persist failed", zap.Int("device_id", dev.ID), zap.Error(err))
			continue
		}
		stored++
	}

	logger.Info("catalog refresh finished",
		zap.Int("listed", len(listed)),
		zap.Int("stored", stored),
	)
	telemetry.CountSyncRun("devices", "ok")
	return nil
}

// collectListings fetches page 1 for the page count, then the remaining
// pages with a bounded fan-out. Failed pages are logged and skipped.
func (s *Syncer) collectListings(ctx context.Context, logger *zap.Logger) ([]tracker.Device, error) {
	first, err := s.devices.DeviceListPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch device list page 1: %w", err)
	}
	listed, err := scrape.DeviceList(first)
	if err != nil {
		return nil, fmt.Errorf("parse device list page 1: %w", err)
	}
	pages, err := scrape.PageCount(first)
	if err != nil {
		return nil, fmt.Errorf("read page count: %w", err)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.cfg.PageFanOut)
	)
	for page := 2; page <= pages; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			body, err := s.devices.DeviceListPage(ctx, page)
			if err != nil {
				logger.Warn("device list page skipped", zap.Int("page", page), zap.Error(err))
				return
			}
			items, err := scrape.DeviceList(body)
			if err != nil {
				telemetry.CountParseFailure("device_list")
				logger.Warn("device list page unparseable", zap.Int("page", page), zap.Error(err))
				return
			}
			mu.Lock()
			listed = append(listed, items...)
			mu.Unlock()
		}(page)
	}
	wg.Wait()
	return listed, nil
}

// buildDevice fetches the detail page and region listings for one catalog
// entry. It returns nil when the device carries no specs or no SM- model,
// which excludes accessories and unreleased entries.
func (s *Syncer) buildDevice(ctx context.Context, listed *tracker.Device) (*tracker.Device, error) {
	dev := tracker.NewDevice()
	dev.ID = listed.ID
	dev.Name = listed.Name
	dev.URL = listed.URL
	dev.ImgURL = listed.ImgURL
	dev.ShortDescription = listed.ShortDescription

	body, err := s.devices.DevicePage(ctx, dev.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch detail page: %w", err)
	}
	if err := scrape.DeviceSpecs(body, dev); err != nil {
		telemetry.CountParseFailure("device_detail")
		return nil, fmt.Errorf("parse detail page: %w", err)
	}
	if len(dev.Details) == 0 {
		return nil, nil
	}

	raw, ok := dev.Detail("Misc", "Models")
	if !ok {
		return nil, nil
	}
	dev.Models = scrape.NormalizeModels(raw)
	if len(dev.Models) == 0 {
		return nil, nil
	}
	dev.Supername = scrape.Supername(dev.Models)

	if err := s.fetchRegions(ctx, dev); err != nil {
		return nil, err
	}
	return dev, nil
}

// fetchRegions looks up the sale regions of each model with a bounded
// per-device fan-out. A model with no region page simply has no regions.
func (s *Syncer) fetchRegions(ctx context.Context, dev *tracker.Device) error {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.cfg.RegionFanOut)
	)
	for _, model := range dev.Models {
		wg.Add(1)
		go func(model string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			body, err := s.regions.RegionsPage(ctx, model)
			if err != nil {
				s.logger.Debug("region lookup failed", zap.String("model", model), zap.Error(err))
				return
			}
			regions, err := scrape.Regions(body)
			if err != nil || len(regions) == 0 {
				return
			}
			mu.Lock()
			dev.Regions[model] = regions
			mu.Unlock()
		}(model)
	}
	wg.Wait()
	return nil
}

// keepListing filters the catalog to Galaxy phones.
func keepListing(name string) bool {
	return strings.Contains(name, "Galaxy") && !strings.Contains(name, "Watch")
}
