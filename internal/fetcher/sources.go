package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// SourceURLs holds the base URLs of the four scraped sites.
type SourceURLs struct {
	DeviceList string
	Regions    string
	Firmware   string
	Kernel     string
}

// DeviceClient fetches catalog list and detail pages.
type DeviceClient struct {
	client *Client
	base   string
}

// NewDeviceClient wraps the shared client with device-list URL construction.
func NewDeviceClient(client *Client, base string) *DeviceClient {
	return &DeviceClient{client: client, base: strings.TrimRight(base, "/")}
}

// DeviceListPage fetches one page of the paginated device catalog.
func (d *DeviceClient) DeviceListPage(ctx context.Context, page int) ([]byte, error) {
	return d.client.Fetch(ctx, fmt.Sprintf("%s/samsung-phones-f-9-0-p%d.php", d.base, page))
}

// DevicePage fetches a device detail page by the href learned from the list.
func (d *DeviceClient) DevicePage(ctx context.Context, href string) ([]byte, error) {
	return d.client.Fetch(ctx, fmt.Sprintf("%s/%s", d.base, strings.TrimLeft(href, "/")))
}

// RegionsClient fetches the region-lookup page for a model.
type RegionsClient struct {
	client *Client
	base   string
}

// NewRegionsClient wraps the shared client with region URL construction.
func NewRegionsClient(client *Client, base string) *RegionsClient {
	return &RegionsClient{client: client, base: strings.TrimRight(base, "/")}
}

// RegionsPage fetches the firmware-region listing for a model.
func (r *RegionsClient) RegionsPage(ctx context.Context, model string) ([]byte, error) {
	return r.client.Fetch(ctx, fmt.Sprintf("%s/firmware/%s", r.base, url.PathEscape(model)))
}

// FirmwareClient fetches the two-step firmware changelog pages.
type FirmwareClient struct {
	client *Client
	base   string
}

// NewFirmwareClient wraps the shared client with changelog URL construction.
func NewFirmwareClient(client *Client, base string) *FirmwareClient {
	return &FirmwareClient{client: client, base: strings.TrimRight(base, "/")}
}

// DocPage fetches the model/region doc page carrying the redirect token.
func (f *FirmwareClient) DocPage(ctx context.Context, model, region string) ([]byte, error) {
	return f.client.Fetch(ctx, fmt.Sprintf("%s/%s/%s/doc.html", f.base, url.PathEscape(model), url.PathEscape(region)))
}

// EngPage fetches the changelog page addressed by the doc-page token.
func (f *FirmwareClient) EngPage(ctx context.Context, model, magic string) ([]byte, error) {
	return f.client.Fetch(ctx, fmt.Sprintf("%s/%s/%s/eng.html", f.base, url.PathEscape(model), url.PathEscape(magic)))
}

// KernelClient fetches the kernel source search results for a model.
type KernelClient struct {
	client *Client
	base   string
}

// NewKernelClient wraps the shared client with search URL construction.
func NewKernelClient(client *Client, base string) *KernelClient {
	return &KernelClient{client: client, base: strings.TrimRight(base, "/")}
}

// SearchPage fetches the opensource upload search results for a model.
func (k *KernelClient) SearchPage(ctx context.Context, model string) ([]byte, error) {
	return k.client.Fetch(ctx, fmt.Sprintf("%s/uploadSearch?searchValue=%s", k.base, url.QueryEscape(model)))
}
