package scrape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firmwareDocPage = `<html><body>
<form><input type="hidden" id="dflt_page" value="/SM-S921B/BTU/UPLD202402ABCD/eng.html"></form>
</body></html>`

const firmwareEngPage = `<html><body>
<h1>Galaxy S24 (SM-S921B)</h1>
<div class="container">
<div class="row"><div class="col-md-3">Header</div></div>
<div class="row">
<div class="col-md-3">PDA: S921BXXU2AXC8</div>
<div class="col-md-3">Version: 14 (Android 14)</div>
<div class="col-md-3">Release: 2024-03-21</div>
<div class="col-md-3">Security patch: 2024-03-01</div>
</div>
<span>header text</span>
<span>- Stability improvements<br>- Camera fixes</span>
</div>
</body></html>`

func TestFirmwareMagic(t *testing.T) {
	t.Parallel()

	magic, err := FirmwareMagic([]byte(firmwareDocPage))
	require.NoError(t, err)
	assert.Equal(t, "UPLD202402ABCD", magic)
}

func TestFirmwareMagicMissingInput(t *testing.T) {
	t.Parallel()

	_, err := FirmwareMagic([]byte(`<html><body><form></form></body></html>`))
	require.ErrorIs(t, err, ErrStructure)
}

func TestFirmwareChangelog(t *testing.T) {
	t.Parallel()

	fw, err := FirmwareChangelog([]byte(firmwareEngPage), "SM-S921B", "BTU")
	require.NoError(t, err)

	assert.Equal(t, "SM-S921B", fw.Model)
	assert.Equal(t, "BTU", fw.Region)
	assert.Equal(t, "S921BXXU2AXC8", fw.PDA)
	assert.Equal(t, "14  (14)", fw.OSVersion)
	assert.Equal(t, time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC), fw.BuildDate)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), fw.SecurityPatch)
	assert.Equal(t, "Galaxy S24", fw.Name)
	assert.Equal(t, "- Stability improvements\n- Camera fixes", fw.Changelog)
}

func TestFirmwareChangelogMissingRows(t *testing.T) {
	t.Parallel()

	_, err := FirmwareChangelog([]byte(`<html><body><div class="row"></div></body></html>`), "SM-S921B", "BTU")
	require.ErrorIs(t, err, ErrStructure)
}

func TestFirmwareChangelogMissingColumns(t *testing.T) {
	t.Parallel()

	const page = `<html><body>
<div class="row"></div>
<div class="row"><div class="col-md-3">PDA: X</div></div>
</body></html>`
	_, err := FirmwareChangelog([]byte(page), "SM-S921B", "BTU")
	require.ErrorIs(t, err, ErrStructure)
}
