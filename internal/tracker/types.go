// Package tracker defines core types shared across subsystems.
package tracker

import (
	"fmt"
	"time"
)

// BuildKind distinguishes the two tracked build streams.
type BuildKind string

// Build kinds persisted in the builds table.
const (
	BuildFirmware BuildKind = "firmware"
	BuildKernel   BuildKind = "kernel"
)

// SpecAttr is a single label/value pair inside a specification category.
type SpecAttr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SpecCategory groups spec attributes under a category heading, in the
// order they appear on the source page.
type SpecCategory struct {
	Name  string     `json:"name"`
	Attrs []SpecAttr `json:"attrs"`
}

// Device is one catalog entry assembled during a sync pass and owned by the
// store once persisted.
type Device struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	URL              string         `json:"url"`
	ImgURL           string         `json:"img_url"`
	ShortDescription string         `json:"short_description"`
	Details          []SpecCategory `json:"details,omitempty"`
	Models           []string       `json:"models,omitempty"`
	Supername        string         `json:"supername,omitempty"`

	// Regions maps a model code to the region codes it is sold in.
	Regions map[string][]string `json:"regions,omitempty"`
}

// NewDevice returns a Device with freshly allocated container fields so
// instances never alias each other's maps or slices.
func NewDevice() *Device {
	return &Device{
		Details: []SpecCategory{},
		Models:  []string{},
		Regions: map[string][]string{},
	}
}

// Detail looks up a single attribute value by category and label.
func (d *Device) Detail(category, name string) (string, bool) {
	for i := range d.Details {
		if d.Details[i].Name != category {
			continue
		}
		for _, attr := range d.Details[i].Attrs {
			if attr.Name == name {
				return attr.Value, true
			}
		}
	}
	return "", false
}

// MergeDetail adds an attribute under category, preserving insertion order
// and overwriting an existing label within the same category.
func (d *Device) MergeDetail(category, name, value string) {
	for i := range d.Details {
		if d.Details[i].Name != category {
			continue
		}
		for j, attr := range d.Details[i].Attrs {
			if attr.Name == name {
				d.Details[i].Attrs[j].Value = value
				return
			}
		}
		d.Details[i].Attrs = append(d.Details[i].Attrs, SpecAttr{Name: name, Value: value})
		return
	}
	d.Details = append(d.Details, SpecCategory{
		Name:  category,
		Attrs: []SpecAttr{{Name: name, Value: value}},
	})
}

// FirmwareInfo is the most recent firmware observation for a model/region.
type FirmwareInfo struct {
	Model         string    `json:"model"`
	Region        string    `json:"region"`
	OSVersion     string    `json:"os_version"`
	PDA           string    `json:"pda"`
	BuildDate     time.Time `json:"build_date"`
	SecurityPatch time.Time `json:"security_patch"`
	Name          string    `json:"name"`
	Changelog     string    `json:"changelog"`
}

// DownloadURL returns the public firmware download page for this build.
func (f FirmwareInfo) DownloadURL(base string) string {
	return fmt.Sprintf("%s/firmware/%s/%s/%s", base, f.Model, f.Region, f.PDA)
}

// KernelInfo is the most recent kernel source observation for a model.
type KernelInfo struct {
	Model    string `json:"model"`
	PDA      string `json:"pda"`
	UploadID string `json:"upload_id"`

	// PatchKernel holds the base kernel version when the listing carries a
	// separate patch archive; empty otherwise.
	PatchKernel string `json:"patch_kernel,omitempty"`
}

// Message is one outbound notification handed to a Sender.
type Message struct {
	Text       string
	ButtonText string
	ButtonURL  string
}
