package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

const listPage = `<html><body>
<div id="body"><div><div class="review-nav-v2"><div>
<a href="samsung-phones-f-9-0-p1.php">1</a>
</div></div></div>
<div id="review-body"><div class="makers"><ul>
<li><a href="samsung_galaxy_s24-12773.php">
  <img src="https://img.example.com/s24.jpg" title="Samsung Galaxy S24 Android smartphone.">
  <strong><span>Galaxy S24</span></strong></a></li>
<li><a href="samsung_galaxy_watch6-12441.php">
  <img src="https://img.example.com/w6.jpg" title="Samsung Galaxy Watch6 smartwatch.">
  <strong><span>Galaxy Watch6</span></strong></a></li>
</ul></div></div>
</body></html>`

const detailPage = `<html><body><div id="specs-list">
<table><tr><th rowspan="2">Misc</th><td class="ttl">Models</td><td class="nfo">SM-S921B/DS, SM-S921B1</td></tr>
<tr><td class="ttl">Colors</td><td class="nfo">Onyx Black</td></tr></table>
</div></body></html>`

const regionsPage = `<html><body>
<div class="card-body card-csc">
<div class="item_csc"><a href="/firmware/SM-S921B/BTU"><b>BTU</b> United Kingdom</a></div>
<div class="item_csc"><a href="/firmware/SM-S921B/DBT"><b>DBT</b> Germany</a></div>
</div></body></html>`

const docPage = `<html><body>
<form><input type="hidden" id="dflt_page" value="/SM-S921B/BTU/UPLD202402ABCD/eng.html"></form>
</body></html>`

const engPage = `<html><body>
<h1>Galaxy S24 (SM-S921B)</h1>
<div class="row"><div class="col-md-3">Header</div></div>
<div class="row">
<div class="col-md-3">PDA: S921BXXU2AXC8</div>
<div class="col-md-3">Version: 14 (Android 14)</div>
<div class="col-md-3">Release: 2024-03-21</div>
<div class="col-md-3">Security patch: 2024-03-01</div>
</div>
<span>header</span>
<span>- Stability improvements</span>
</body></html>`

const kernelPage = `<html><body><table><tbody>
<tr><th>No</th><th>Model</th><th>Version</th><th>Files</th><th>Download</th></tr>
<tr>
  <td>42</td>
  <td>SM-S921B</td>
  <td>S921BXXU2AXC8</td>
  <td>SM-S921B_14_Opensource.zip</td>
  <td><a href="javascript:downloadFile('231964');">Download</a></td>
</tr>
</tbody></table></body></html>`

type fakeDeviceClient struct {
	pages   map[int]string
	details map[string]string
}

func (f *fakeDeviceClient) DeviceListPage(_ context.Context, page int) ([]byte, error) {
	body, ok := f.pages[page]
	if !ok {
		return nil, fmt.Errorf("no page %d", page)
	}
	return []byte(body), nil
}

func (f *fakeDeviceClient) DevicePage(_ context.Context, href string) ([]byte, error) {
	body, ok := f.details[href]
	if !ok {
		return nil, fmt.Errorf("no detail %s", href)
	}
	return []byte(body), nil
}

type fakeRegionClient struct {
	pages map[string]string
}

func (f *fakeRegionClient) RegionsPage(_ context.Context, model string) ([]byte, error) {
	body, ok := f.pages[model]
	if !ok {
		return nil, fmt.Errorf("no regions for %s", model)
	}
	return []byte(body), nil
}

type fakeFirmwareClient struct {
	docs map[string]string
	engs map[string]string
}

func (f *fakeFirmwareClient) DocPage(_ context.Context, model, region string) ([]byte, error) {
	body, ok := f.docs[model+"/"+region]
	if !ok {
		return nil, fmt.Errorf("no doc page for %s/%s", model, region)
	}
	return []byte(body), nil
}

func (f *fakeFirmwareClient) EngPage(_ context.Context, model, magic string) ([]byte, error) {
	body, ok := f.engs[model+"/"+magic]
	if !ok {
		return nil, fmt.Errorf("no eng page for %s/%s", model, magic)
	}
	return []byte(body), nil
}

type fakeKernelClient struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func (f *fakeKernelClient) SearchPage(_ context.Context, model string) ([]byte, error) {
	f.mu.Lock()
	if f.hits == nil {
		f.hits = map[string]int{}
	}
	f.hits[model]++
	f.mu.Unlock()

	body, ok := f.pages[model]
	if !ok {
		return []byte(`<html><body><table><tbody></tbody></table></body></html>`), nil
	}
	return []byte(body), nil
}

type fakeStore struct {
	mu       sync.Mutex
	replaced []*tracker.Device
	models   []string
	regions  map[string][]string
	builds   map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		regions: map[string][]string{},
		builds:  map[string]string{},
	}
}

func (f *fakeStore) InitSchema(context.Context) error { return nil }

func (f *fakeStore) ReplaceDevice(_ context.Context, dev *tracker.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced = append(f.replaced, dev)
	return nil
}

func (f *fakeStore) SearchDevices(context.Context, string) ([]tracker.Device, error) {
	return nil, nil
}

func (f *fakeStore) GetDevice(context.Context, int) (*tracker.Device, error) { return nil, nil }

func (f *fakeStore) GetSpecs(context.Context, int) ([]tracker.SpecCategory, error) {
	return nil, nil
}

func (f *fakeStore) AllModels(context.Context) ([]string, error) {
	return f.models, nil
}

func (f *fakeStore) RegionsByModel(_ context.Context, model string) ([]string, error) {
	return f.regions[model], nil
}

func (f *fakeStore) CurrentBuild(_ context.Context, model string, kind tracker.BuildKind) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pda, ok := f.builds[model+"/"+string(kind)]
	return pda, ok, nil
}

func (f *fakeStore) SetBuild(_ context.Context, model string, kind tracker.BuildKind, pda string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builds[model+"/"+string(kind)] = pda
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	firmware []tracker.FirmwareInfo
	kernels  []tracker.KernelInfo
	alerts   []string
	sendErr  error
}

func (f *fakeNotifier) FirmwareAdvance(_ context.Context, fw tracker.FirmwareInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.firmware = append(f.firmware, fw)
	return f.sendErr
}

func (f *fakeNotifier) KernelAdvance(_ context.Context, k tracker.KernelInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kernels = append(f.kernels, k)
	return f.sendErr
}

func (f *fakeNotifier) Alert(_ context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
}

func newTestSyncer(store *fakeStore, notifier *fakeNotifier, deps Deps) *Syncer {
	deps.Store = store
	deps.Notifier = notifier
	deps.Logger = zap.NewNop()
	return New(deps, Config{Workers: 3, DrainWait: 100 * time.Millisecond})
}

func TestSyncDevicesStoresFilteredCatalog(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := &fakeNotifier{}
	s := newTestSyncer(store, notifier, Deps{
		Devices: &fakeDeviceClient{
			pages:   map[int]string{1: listPage},
			details: map[string]string{"samsung_galaxy_s24-12773.php": detailPage},
		},
		Regions: &fakeRegionClient{pages: map[string]string{
			"SM-S921B":  regionsPage,
			"SM-S921B1": `<html><body></body></html>`,
		}},
	})

	require.NoError(t, s.SyncDevices(context.Background()))
	require.Len(t, store.replaced, 1, "watch entries are filtered out")

	dev := store.replaced[0]
	assert.Equal(t, 12773, dev.ID)
	assert.Equal(t, "Galaxy S24", dev.Name)
	assert.Equal(t, []string{"SM-S921B", "SM-S921B1"}, dev.Models)
	assert.Equal(t, "SM-S921B", dev.Supername)
	assert.Equal(t, []string{"BTU", "DBT"}, dev.Regions["SM-S921B"])
	assert.NotContains(t, dev.Regions, "SM-S921B1", "model without region cards stays absent")

	colors, ok := dev.Detail("Misc", "Colors")
	require.True(t, ok)
	assert.Equal(t, "Onyx Black", colors)
}

func TestSyncDevicesSkipsFailingDetailPage(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	s := newTestSyncer(store, &fakeNotifier{}, Deps{
		Devices: &fakeDeviceClient{
			pages:   map[int]string{1: listPage},
			details: map[string]string{},
		},
		Regions: &fakeRegionClient{pages: map[string]string{}},
	})

	require.NoError(t, s.SyncDevices(context.Background()))
	assert.Empty(t, store.replaced)
}

func TestSyncFirmwareAdvancesAndPersists(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.models = []string{"SM-S921B"}
	store.regions["SM-S921B"] = []string{"BTU"}
	store.builds["SM-S921B/firmware"] = "S921BXXU1AXA5"

	notifier := &fakeNotifier{}
	s := newTestSyncer(store, notifier, Deps{
		Firmware: &fakeFirmwareClient{
			docs: map[string]string{"SM-S921B/BTU": docPage},
			engs: map[string]string{"SM-S921B/UPLD202402ABCD": engPage},
		},
	})

	require.NoError(t, s.SyncBuilds(context.Background(), tracker.BuildFirmware))

	require.Len(t, notifier.firmware, 1)
	assert.Equal(t, "S921BXXU2AXC8", notifier.firmware[0].PDA)
	assert.Equal(t, "Galaxy S24", notifier.firmware[0].Name)
	assert.Equal(t, "S921BXXU2AXC8", store.builds["SM-S921B/firmware"])
}

func TestSyncFirmwareSkipsWhenNotNewer(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.models = []string{"SM-S921B"}
	store.regions["SM-S921B"] = []string{"BTU"}
	store.builds["SM-S921B/firmware"] = "S921BXXU2AXC8"

	notifier := &fakeNotifier{}
	s := newTestSyncer(store, notifier, Deps{
		Firmware: &fakeFirmwareClient{
			docs: map[string]string{"SM-S921B/BTU": docPage},
			engs: map[string]string{"SM-S921B/UPLD202402ABCD": engPage},
		},
	})

	require.NoError(t, s.SyncBuilds(context.Background(), tracker.BuildFirmware))
	assert.Empty(t, notifier.firmware)
	assert.Equal(t, "S921BXXU2AXC8", store.builds["SM-S921B/firmware"])
}

func TestSyncFirmwarePersistsEvenWhenNotificationFails(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.models = []string{"SM-S921B"}
	store.regions["SM-S921B"] = []string{"BTU"}

	notifier := &fakeNotifier{sendErr: assert.AnError}
	s := newTestSyncer(store, notifier, Deps{
		Firmware: &fakeFirmwareClient{
			docs: map[string]string{"SM-S921B/BTU": docPage},
			engs: map[string]string{"SM-S921B/UPLD202402ABCD": engPage},
		},
	})

	require.NoError(t, s.SyncBuilds(context.Background(), tracker.BuildFirmware))
	require.Len(t, notifier.firmware, 1)
	assert.Equal(t, "S921BXXU2AXC8", store.builds["SM-S921B/firmware"])
}

func TestSyncKernelAdvance(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.models = []string{"SM-S921B"}
	store.builds["SM-S921B/kernel"] = "S921BXXU1AXA5"

	notifier := &fakeNotifier{}
	s := newTestSyncer(store, notifier, Deps{
		Kernel: &fakeKernelClient{pages: map[string]string{"SM-S921B": kernelPage}},
	})

	require.NoError(t, s.SyncBuilds(context.Background(), tracker.BuildKernel))

	require.Len(t, notifier.kernels, 1)
	assert.Equal(t, "S921BXXU2AXC8", notifier.kernels[0].PDA)
	assert.Equal(t, "231964", notifier.kernels[0].UploadID)
	assert.Equal(t, "S921BXXU2AXC8", store.builds["SM-S921B/kernel"])
}

func TestSyncBuildsProcessesEveryModelExactlyOnce(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	for i := 0; i < 40; i++ {
		store.models = append(store.models, fmt.Sprintf("SM-T%03dB", i))
	}

	kernel := &fakeKernelClient{pages: map[string]string{}}
	s := newTestSyncer(store, &fakeNotifier{}, Deps{Kernel: kernel})

	require.NoError(t, s.SyncBuilds(context.Background(), tracker.BuildKernel))

	require.Len(t, kernel.hits, len(store.models))
	for model, hits := range kernel.hits {
		assert.Equal(t, 1, hits, "model %s", model)
	}
}

func TestSyncBuildsRejectsOverlap(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	notifier := &fakeNotifier{}
	s := newTestSyncer(store, notifier, Deps{Kernel: &fakeKernelClient{}})

	s.inFlight.Store(true)
	err := s.SyncBuilds(context.Background(), tracker.BuildKernel)
	require.ErrorIs(t, err, ErrSyncInFlight)
	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0], "in flight")
}

func TestSyncDevicesRejectsOverlap(t *testing.T) {
	t.Parallel()

	s := newTestSyncer(newFakeStore(), &fakeNotifier{}, Deps{})
	s.inFlight.Store(true)
	require.ErrorIs(t, s.SyncDevices(context.Background()), ErrSyncInFlight)
}
