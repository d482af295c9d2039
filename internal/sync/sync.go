// Package sync orchestrates catalog refresh and build synchronization
// passes over the scraped sources.
package sync

import (
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/galaxyhub/firmtrack/internal/queue"
	"github.com/galaxyhub/firmtrack/internal/tracker"
)

// ErrSyncInFlight rejects a pass requested while another is running.
var ErrSyncInFlight = errors.New("synchronization already in flight")

// Config bounds the concurrency of a synchronization pass.
type Config struct {
	// Workers is the fixed size of the build-sync worker pool.
	Workers int
	// QueueDepth caps the pending model backlog.
	QueueDepth int
	// DrainWait bounds how long an idle worker waits for more work.
	DrainWait time.Duration
	// PageFanOut caps concurrent catalog page fetches.
	PageFanOut int
	// RegionFanOut caps concurrent region lookups for one device.
	RegionFanOut int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 5
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = 256
	}
	if c.DrainWait <= 0 {
		c.DrainWait = time.Minute
	}
	if c.PageFanOut <= 0 {
		c.PageFanOut = 4
	}
	if c.RegionFanOut <= 0 {
		c.RegionFanOut = 4
	}
	return c
}

// workQueue is the build backlog contract; closing it releases the pool.
type workQueue interface {
	tracker.Queue
	Close()
}

// Syncer drives the three synchronization flows. All collaborators are
// injected; passes are mutually exclusive through a single in-flight flag.
type Syncer struct {
	devices  tracker.DeviceListClient
	regions  tracker.RegionClient
	firmware tracker.FirmwareClient
	kernel   tracker.KernelClient
	store    tracker.Store
	notifier tracker.Notifier
	cfg      Config
	logger   *zap.Logger

	inFlight atomic.Bool
	newQueue func(capacity int) workQueue
}

// Deps bundles the collaborators a Syncer needs.
type Deps struct {
	Devices  tracker.DeviceListClient
	Regions  tracker.RegionClient
	Firmware tracker.FirmwareClient
	Kernel   tracker.KernelClient
	Store    tracker.Store
	Notifier tracker.Notifier
	Logger   *zap.Logger
}

// New constructs a Syncer.
func New(deps Deps, cfg Config) *Syncer {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		devices:  deps.Devices,
		regions:  deps.Regions,
		firmware: deps.Firmware,
		kernel:   deps.Kernel,
		store:    deps.Store,
		notifier: deps.Notifier,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		newQueue: func(capacity int) workQueue { return queue.New(capacity) },
	}
}

// InFlight reports whether a pass is currently running.
func (s *Syncer) InFlight() bool {
	return s.inFlight.Load()
}

// acquire claims the in-flight flag or reports the overlap.
func (s *Syncer) acquire(flow string) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("sync pass rejected, another in flight", zap.String("flow", flow))
		return ErrSyncInFlight
	}
	return nil
}

func (s *Syncer) release() {
	s.inFlight.Store(false)
}
