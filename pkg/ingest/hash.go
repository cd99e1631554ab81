package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const hashTimeLayout = "2006-01-02T15:04:05.000Z"

// ContentHash returns the dedup key of a post, hex sha256 of normalized url, title and publish time.
// The hash is case and surrounding-whitespace insensitive for url and title.
func ContentHash(url, title string, publishedAt *time.Time) string {
	var ts string
	if publishedAt != nil {
		ts = publishedAt.UTC().Format(hashTimeLayout)
	}
	key := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(url)),
		strings.ToLower(strings.TrimSpace(title)),
		ts,
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
