package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	domkb "github.com/kailas-cloud/smartdesk/internal/domain/knowledge"
)

type knowledgeFile struct {
	Entries []knowledgeEntry `yaml:"entries"`
}

type knowledgeEntry struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// LoadKnowledge reads knowledge-base entries from path.
// An empty path yields the built-in entries.
func LoadKnowledge(path string) ([]domkb.Entry, error) {
	if path == "" {
		return domkb.Defaults(), nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file %s: %w", path, err)
	}
	return ParseKnowledge(data)
}

// ParseKnowledge decodes `entries: [{id, title, content}]` and validates every entry.
func ParseKnowledge(data []byte) ([]domkb.Entry, error) {
	var f knowledgeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge file: %w", err)
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("knowledge file has no entries")
	}

	entries := make([]domkb.Entry, 0, len(f.Entries))
	for i, raw := range f.Entries {
		e, err := domkb.New(raw.ID, raw.Title, raw.Content)
		if err != nil {
			return nil, fmt.Errorf("knowledge entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	if err := domkb.Validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}
