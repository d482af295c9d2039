package tracker

import (
	"context"
)

// CatalogStore persists devices, models, regions and spec details.
type CatalogStore interface {
	InitSchema(ctx context.Context) error
	ReplaceDevice(ctx context.Context, device *Device) error
	SearchDevices(ctx context.Context, query string) ([]Device, error)
	GetDevice(ctx context.Context, id int) (*Device, error)
	GetSpecs(ctx context.Context, id int) ([]SpecCategory, error)
	AllModels(ctx context.Context) ([]string, error)
	RegionsByModel(ctx context.Context, model string) ([]string, error)
}

// BuildStore tracks the single current build identifier per model and kind.
type BuildStore interface {
	CurrentBuild(ctx context.Context, model string, kind BuildKind) (string, bool, error)
	SetBuild(ctx context.Context, model string, kind BuildKind, pda string) error
}

// Store is the full persistence surface the orchestrator depends on.
type Store interface {
	CatalogStore
	BuildStore
}

// DeviceListClient fetches raw catalog pages from the device-list source.
type DeviceListClient interface {
	DeviceListPage(ctx context.Context, page int) ([]byte, error)
	DevicePage(ctx context.Context, href string) ([]byte, error)
}

// RegionClient fetches the raw region-lookup page for a model.
type RegionClient interface {
	RegionsPage(ctx context.Context, model string) ([]byte, error)
}

// FirmwareClient fetches the two-step firmware changelog pages.
type FirmwareClient interface {
	DocPage(ctx context.Context, model, region string) ([]byte, error)
	EngPage(ctx context.Context, model, magic string) ([]byte, error)
}

// KernelClient fetches the kernel source search results for a model.
type KernelClient interface {
	SearchPage(ctx context.Context, model string) ([]byte, error)
}

// Sender delivers one formatted message through the chat transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier emits change events and operational alerts.
type Notifier interface {
	FirmwareAdvance(ctx context.Context, fw FirmwareInfo) error
	KernelAdvance(ctx context.Context, k KernelInfo) error
	Alert(ctx context.Context, text string)
}

// Queue provides FIFO enqueue/dequeue of model codes for build sync workers.
type Queue interface {
	Enqueue(ctx context.Context, model string) error
	Dequeue(ctx context.Context) (string, error)
	Len() int
}
