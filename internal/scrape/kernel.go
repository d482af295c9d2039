package scrape

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// KernelListing scans the search-results table for the row listing the
// target model and extracts its release token, upload id and, when the row
// carries a separate patch archive, the patch kernel version. No matching
// row is a legitimate negative result: nil record, nil error.
func KernelListing(body []byte, model string) (*tracker.KernelInfo, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse kernel listing: %w", err)
	}

	var info *tracker.KernelInfo
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() <= 4 {
			return true
		}
		if !strings.Contains(cells.Eq(1).Text(), model) {
			return true
		}

		versions := strings.Fields(cells.Eq(2).Text())
		version := ""
		if len(versions) > 0 {
			version = nonAlphanumeric.ReplaceAllString(versions[len(versions)-1], "")
		}

		uploadID := ""
		if href, ok := cells.Eq(4).Find("a").First().Attr("href"); ok {
			if parts := strings.Split(href, "'"); len(parts) > 1 {
				uploadID = strings.TrimSpace(parts[1])
			}
		}

		files := strings.Fields(cells.Eq(3).Text())
		if len(files) > 1 {
			// A second archive is the patch kernel; its version is the
			// filename suffix after the last underscore.
			last := files[len(files)-1]
			if idx := strings.LastIndex(last, "_"); idx >= 0 {
				patch, _, _ := strings.Cut(last[idx+1:], ".")
				info = &tracker.KernelInfo{
					Model:       model,
					PDA:         patch,
					UploadID:    uploadID,
					PatchKernel: version,
				}
				return false
			}
		}

		info = &tracker.KernelInfo{
			Model:    model,
			PDA:      version,
			UploadID: uploadID,
		}
		return false
	})
	return info, nil
}
