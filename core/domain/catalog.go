// ABOUTME: CatalogEntry domain model for published artifacts in the OPDS catalog
// ABOUTME: IDs are stable digests of artifact content plus title

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// CatalogEntry is a published artifact's metadata. Immutable after commit
// except UpdatedAt.
type CatalogEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Path        string    `json:"path"`
	FileSize    int64     `json:"file_size"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CatalogID derives the stable entry id from the artifact content and title,
// so republishing identical content maps to the same entry.
func CatalogID(content []byte, title string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte("\n"))
	h.Write([]byte(title))
	return hex.EncodeToString(h.Sum(nil)[:16])
}
