package knowledge

import (
	"fmt"

	"github.com/kailas-cloud/smartdesk/internal/db"
	domkb "github.com/kailas-cloud/smartdesk/internal/domain/knowledge"
)

// entryToHash converts an entry and its vector into HSET fields.
func entryToHash(e domkb.Entry, vector []float32) map[string]string {
	return map[string]string{
		"id":      e.ID(),
		"title":   e.Title(),
		"content": e.Content(),
		"vector":  db.EncodeVector(vector),
	}
}

// entryFromHash rebuilds an entry from returned fields. keyID is the id
// parsed from the key and wins over a missing id field.
func entryFromHash(keyID string, m map[string]string) (domkb.Entry, error) {
	id := m["id"]
	if id == "" {
		id = keyID
	}
	if m["content"] == "" {
		return domkb.Entry{}, fmt.Errorf("entry %s has no content", id)
	}
	return domkb.Reconstruct(id, m["title"], m["content"]), nil
}
