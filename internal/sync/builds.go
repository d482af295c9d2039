package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/galaxyhub/firmtrack/internal/fetcher"
	"github.com/galaxyhub/firmtrack/internal/pda"
	"github.com/galaxyhub/firmtrack/internal/queue"
	"github.com/galaxyhub/firmtrack/internal/scrape"
	"github.com/galaxyhub/firmtrack/internal/telemetry"
	"github.com/galaxyhub/firmtrack/internal/tracker"
)

// SyncBuilds runs one build-synchronization pass of the given kind over
// every stored model. Models are pushed onto a FIFO backlog and consumed by
// a fixed worker pool; each model is processed exactly once. A pass
// requested while another runs is rejected and alerted.
func (s *Syncer) SyncBuilds(ctx context.Context, kind tracker.BuildKind) error {
	flow := string(kind)
	if err := s.acquire(flow); err != nil {
		s.notifier.Alert(ctx, fmt.Sprintf("%s sync rejected: another pass is in flight", flow))
		return err
	}
	defer s.release()

	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("flow", flow))

	models, err := s.store.AllModels(ctx)
	if err != nil {
		telemetry.CountSyncRun(flow, "error")
		return fmt.Errorf("enumerate models: %w", err)
	}
	logger.Info("build sync starting", zap.Int("models", len(models)))

	backlog := s.newQueue(s.cfg.QueueDepth)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			s.runWorker(ctx, backlog, kind, logger.With(zap.Int("worker", worker)))
		}(i)
	}

	enqueueErr := func() error {
		defer backlog.Close()
		for _, model := range models {
			if err := backlog.Enqueue(ctx, model); err != nil {
				return err
			}
		}
		return nil
	}()

	wg.Wait()

	if enqueueErr != nil {
		telemetry.CountSyncRun(flow, "error")
		return fmt.Errorf("fill backlog: %w", enqueueErr)
	}
	logger.Info("build sync finished")
	telemetry.CountSyncRun(flow, "ok")
	return nil
}

// runWorker drains the backlog until it closes or stays empty past the
// drain wait. Per-model failures are logged and never stop the worker.
func (s *Syncer) runWorker(ctx context.Context, backlog workQueue, kind tracker.BuildKind, logger *zap.Logger) {
	for {
		popCtx, cancel := context.WithTimeout(ctx, s.cfg.DrainWait)
		model, err := backlog.Dequeue(popCtx)
		cancel()
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) && !errors.Is(err, context.DeadlineExceeded) {
				logger.Warn("worker stopping", zap.Error(err))
			}
			return
		}

		switch kind {
		case tracker.BuildKernel:
			err = s.syncKernelModel(ctx, model)
		default:
			err = s.syncFirmwareModel(ctx, model, logger)
		}
		if err != nil {
			logger.Warn("model sync failed", zap.String("model", model), zap.Error(err))
		}
	}
}

// syncFirmwareModel walks the stored regions of one model, fetches the
// two-step changelog for each, and reports builds newer than the stored
// one. A region failure skips that region only.
func (s *Syncer) syncFirmwareModel(ctx context.Context, model string, logger *zap.Logger) error {
	regions, err := s.store.RegionsByModel(ctx, model)
	if err != nil {
		return fmt.Errorf("load regions: %w", err)
	}

	for _, region := range regions {
		fw, err := s.fetchFirmware(ctx, model, region)
		if err != nil {
			if fetcher.IsNotFound(err) {
				continue
			}
			logger.Warn("region skipped",
				zap.String("model", model),
				zap.String("region", region),
				zap.Error(err),
			)
			continue
		}

		stored, _, err := s.store.CurrentBuild(ctx, model, tracker.BuildFirmware)
		if err != nil {
			return fmt.Errorf("load current firmware build: %w", err)
		}
		if !pda.IsNewer(fw.PDA, stored) {
			continue
		}

		telemetry.CountBuildAdvance(string(tracker.BuildFirmware))
		if err := s.notifier.FirmwareAdvance(ctx, *fw); err != nil {
			logger.Error("firmware notification failed", zap.String("model", model), zap.Error(err))
		}
		if err := s.store.SetBuild(ctx, model, tracker.BuildFirmware, fw.PDA); err != nil {
			return fmt.Errorf("persist firmware build: %w", err)
		}
	}
	return nil
}

// fetchFirmware resolves the doc-page token and extracts the changelog.
func (s *Syncer) fetchFirmware(ctx context.Context, model, region string) (*tracker.FirmwareInfo, error) {
	doc, err := s.firmware.DocPage(ctx, model, region)
	if err != nil {
		return nil, err
	}
	magic, err := scrape.FirmwareMagic(doc)
	if err != nil {
		telemetry.CountParseFailure("firmware_doc")
		return nil, fmt.Errorf("resolve changelog token: %w", err)
	}
	eng, err := s.firmware.EngPage(ctx, model, magic)
	if err != nil {
		return nil, err
	}
	fw, err := scrape.FirmwareChangelog(eng, model, region)
	if err != nil {
		telemetry.CountParseFailure("firmware_changelog")
		return nil, err
	}
	return fw, nil
}

// syncKernelModel checks the opensource listing of one model and reports a
// kernel source newer than the stored build.
func (s *Syncer) syncKernelModel(ctx context.Context, model string) error {
	body, err := s.kernel.SearchPage(ctx, model)
	if err != nil {
		if fetcher.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("fetch kernel listing: %w", err)
	}
	info, err := scrape.KernelListing(body, model)
	if err != nil {
		telemetry.CountParseFailure("kernel_listing")
		return fmt.Errorf("parse kernel listing: %w", err)
	}
	if info == nil {
		return nil
	}

	stored, _, err := s.store.CurrentBuild(ctx, model, tracker.BuildKernel)
	if err != nil {
		return fmt.Errorf("load current kernel build: %w", err)
	}
	if !pda.IsNewer(info.PDA, stored) {
		return nil
	}

	telemetry.CountBuildAdvance(string(tracker.BuildKernel))
	if err := s.notifier.KernelAdvance(ctx, *info); err != nil {
		s.logger.Error("kernel notification failed", zap.String("model", model), zap.Error(err))
	}
	if err := s.store.SetBuild(ctx, model, tracker.BuildKernel, info.PDA); err != nil {
		return fmt.Errorf("persist kernel build: %w", err)
	}
	return nil
}
