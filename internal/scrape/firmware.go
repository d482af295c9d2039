package scrape

import (
	"fmt"
	"strings"
	"time"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

const (
	magicInputSelector  = "input#dflt_page"
	changelogDateLayout = "2006-01-02"
)

// FirmwareMagic pulls the redirect token out of the doc page: the value
// attribute of the dflt_page input, fourth "/"-delimited segment.
func FirmwareMagic(body []byte) (string, error) {
	doc, err := parse(body)
	if err != nil {
		return "", fmt.Errorf("parse firmware doc page: %w", err)
	}

	value, ok := doc.Find(magicInputSelector).First().Attr("value")
	if !ok {
		return "", fmt.Errorf("dflt_page input: %w", ErrStructure)
	}
	segments := strings.Split(value, "/")
	if len(segments) < 4 || segments[3] == "" {
		return "", fmt.Errorf("dflt_page value %q: %w", value, ErrStructure)
	}
	return segments[3], nil
}

// FirmwareChangelog extracts the latest firmware record from the eng page:
// the second "row" block's four "col" cells carry build id, OS version,
// release date and security-patch date; the page heading carries the device
// name and the second span the changelog text.
func FirmwareChangelog(body []byte, model, region string) (*tracker.FirmwareInfo, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse firmware eng page: %w", err)
	}

	rows := doc.Find(".row")
	if rows.Length() < 2 {
		return nil, fmt.Errorf("changelog rows: %w", ErrStructure)
	}
	cells := rows.Eq(1).Find(".col-md-3")
	if cells.Length() < 4 {
		return nil, fmt.Errorf("changelog columns: %w", ErrStructure)
	}

	pda := cellValue(cells.Eq(0).Text())
	osVersion := strings.ReplaceAll(cellValue(cells.Eq(1).Text()), "(Android ", " (")
	releaseDate := cellValue(cells.Eq(2).Text())
	securityPatch := cellValue(cells.Eq(3).Text())
	if pda == "" {
		return nil, fmt.Errorf("build id cell: %w", ErrStructure)
	}

	buildDate, err := time.Parse(changelogDateLayout, releaseDate)
	if err != nil {
		return nil, fmt.Errorf("release date %q: %w", releaseDate, ErrStructure)
	}
	patchDate, err := time.Parse(changelogDateLayout, securityPatch)
	if err != nil {
		return nil, fmt.Errorf("security patch date %q: %w", securityPatch, ErrStructure)
	}

	name := ""
	if heading := doc.Find("h1").First(); heading.Length() > 0 {
		name, _, _ = strings.Cut(heading.Text(), "(")
		name = strings.TrimSpace(name)
	}

	// Line breaks inside the changelog arrive as <br> elements.
	doc.Find("br").ReplaceWithHtml("\n")
	changelog := ""
	if spans := doc.Find("span"); spans.Length() > 1 {
		changelog = strings.TrimSpace(spans.Eq(1).Text())
	}

	return &tracker.FirmwareInfo{
		Model:         model,
		Region:        region,
		OSVersion:     osVersion,
		PDA:           pda,
		BuildDate:     buildDate,
		SecurityPatch: patchDate,
		Name:          name,
		Changelog:     changelog,
	}, nil
}

// cellValue strips the "Label:" prefix from a changelog cell.
func cellValue(text string) string {
	_, value, found := strings.Cut(text, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(value)
}
