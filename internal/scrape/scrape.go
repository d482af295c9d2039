// Package scrape extracts typed records from the raw HTML documents served
// by the catalog, region, firmware and kernel sources.
//
// Extractors never fail on a missing optional field; they only return
// ErrStructure when the expected top-level container of a document is
// absent, in which case the caller skips that unit of work.
package scrape

import (
	"bytes"
	"errors"

	"github.com/PuerkitoBio/goquery"
)

// ErrStructure marks a document whose expected markup structure is missing.
// Retrying the fetch will not fix it; the unit of work is skipped.
var ErrStructure = errors.New("expected document structure missing")

func parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return doc, nil
}
