package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const regionCardSelector = "div.card-csc div.item_csc > a > b"

// Regions extracts the region codes a model is sold in from the
// region-lookup page. A page without the card structure legitimately means
// the model is listed nowhere, so it yields an empty set, not an error.
func Regions(body []byte) ([]string, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}

	regions := []string{}
	seen := map[string]struct{}{}
	doc.Find(regionCardSelector).Each(func(_ int, el *goquery.Selection) {
		code := strings.TrimSpace(el.Text())
		if code == "" {
			return
		}
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		regions = append(regions, code)
	})
	return regions, nil
}
