package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// SeedEntry is one key to create at startup.
type SeedEntry struct {
	Key  string
	JSON string
}

// LoadSeed reads a seed file: a JSON object or YAML mapping whose members
// are key names and whose values are the documents to store. Entries are
// returned sorted by key.
func LoadSeed(path string) ([]SeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var entries []SeedEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		entries, err = parseYAMLSeed(data)
	default:
		entries, err = parseJSONSeed(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func parseJSONSeed(data []byte) ([]SeedEntry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidSeed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalidSeed)
	}
	var entries []SeedEntry
	root.ForEach(func(k, v gjson.Result) bool {
		entries = append(entries, SeedEntry{Key: k.Str, JSON: v.Raw})
		return true
	})
	return entries, nil
}

func parseYAMLSeed(data []byte) ([]SeedEntry, error) {
	var docs map[string]any
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	entries := make([]SeedEntry, 0, len(docs))
	for key, v := range docs {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: key %s: %v", ErrInvalidSeed, key, err)
		}
		entries = append(entries, SeedEntry{Key: key, JSON: string(raw)})
	}
	return entries, nil
}
