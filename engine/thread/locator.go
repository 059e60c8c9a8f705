package thread

import (
	"fmt"
	"strings"
)

// itemsMarker is the literal that every thread payload carries. Blobs without
// it (stylesheet noise, unrelated data islands) are skipped without being
// parsed.
const itemsMarker = "thread_items"

// Locate scans blobs in the order supplied and returns the first one that
// both carries the thread-items marker and mentions postCode as a quoted
// field value. Returns ErrPayloadNotFound when no blob matches.
func Locate(blobs []string, postCode string) (string, error) {
	needle := fmt.Sprintf(`"code":"%s"`, postCode)
	for _, blob := range blobs {
		if !strings.Contains(blob, itemsMarker) {
			continue
		}
		if strings.Contains(blob, needle) {
			return blob, nil
		}
	}
	return "", ErrPayloadNotFound
}
