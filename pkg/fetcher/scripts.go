package fetcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// hiddenDatasetSelector matches the script tags Threads pages use to embed
// their data islands.
const hiddenDatasetSelector = `script[type="application/json"][data-sjs]`

// HiddenDatasets returns the text content of every hidden JSON dataset
// script tag in html, in document order. The blobs are opaque here; picking
// the right one is the engine's job.
func HiddenDatasets(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var blobs []string
	doc.Find(hiddenDatasetSelector).Each(func(_ int, sel *goquery.Selection) {
		if text := sel.Text(); text != "" {
			blobs = append(blobs, text)
		}
	})
	return blobs, nil
}
