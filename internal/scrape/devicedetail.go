package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

const specListSelector = "#specs-list > table"

// DeviceSpecs walks every specification table on a device detail page and
// merges the category/label/value triples into the device's detail map.
// Supports multi-pass accumulation: attributes already collected for a
// category are kept and extended.
func DeviceSpecs(body []byte, dev *tracker.Device) error {
	doc, err := parse(body)
	if err != nil {
		return fmt.Errorf("parse device detail: %w", err)
	}

	tables := doc.Find(specListSelector)
	if tables.Length() == 0 {
		return fmt.Errorf("spec list: %w", ErrStructure)
	}

	tables.Each(func(_ int, table *goquery.Selection) {
		category := strings.TrimSpace(table.Find("tr th").First().Text())
		if category == "" {
			return
		}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			label := row.Find("td.ttl").First()
			value := row.Find("td.nfo").First()
			if label.Length() == 0 || value.Length() == 0 {
				return
			}
			dev.MergeDetail(category, strings.TrimSpace(label.Text()), strings.TrimSpace(value.Text()))
		})
	})
	return nil
}
