package scrape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

const (
	deviceGridSelector  = "#review-body > div.makers > ul > li"
	paginationSelector  = "#body div.review-nav-v2 div a"
	deviceURLExtension  = ".php"
	deviceURLBoundaryCh = "-"
)

// DeviceList extracts the device entries from one catalog list page. Items
// whose detail URL does not carry a parseable numeric id are dropped.
func DeviceList(body []byte) ([]tracker.Device, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse device list: %w", err)
	}

	items := doc.Find(deviceGridSelector)
	if items.Length() == 0 {
		return nil, fmt.Errorf("device grid: %w", ErrStructure)
	}

	devices := make([]tracker.Device, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		href, ok := item.Find("a").First().Attr("href")
		if !ok {
			return
		}
		id, ok := deviceIDFromURL(href)
		if !ok {
			return
		}

		dev := tracker.NewDevice()
		dev.ID = id
		dev.URL = href
		dev.Name = strings.TrimSpace(item.Find("a > strong > span").First().Text())

		img := item.Find("a > img").First()
		dev.ImgURL, _ = img.Attr("src")
		dev.ShortDescription, _ = img.Attr("title")

		devices = append(devices, *dev)
	})
	return devices, nil
}

// PageCount extracts the total page count from the pagination control of a
// catalog list page. Only page 1 is expected to carry it.
func PageCount(body []byte) (int, error) {
	doc, err := parse(body)
	if err != nil {
		return 0, fmt.Errorf("parse device list: %w", err)
	}

	last := doc.Find(paginationSelector).Last()
	count, err := strconv.Atoi(strings.TrimSpace(last.Text()))
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("pagination control: %w", ErrStructure)
	}
	return count, nil
}

// deviceIDFromURL pulls the numeric id out of the trailing segment of a
// detail-page URL, between the last "-" and the ".php" extension.
func deviceIDFromURL(href string) (int, bool) {
	end := strings.LastIndex(href, deviceURLExtension)
	start := strings.LastIndex(href, deviceURLBoundaryCh)
	if end < 0 || start < 0 || start+1 >= end {
		return 0, false
	}
	id, err := strconv.Atoi(href[start+1 : end])
	if err != nil {
		return 0, false
	}
	return id, true
}
