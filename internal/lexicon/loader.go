package lexicon

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon_id.json
var defaultLexicon []byte

const (
	FORMAT_JSON = "json"
	FORMAT_YAML = "yaml"
)

// Parse decodes a lexicon document in the given format.
func Parse(data []byte, format string) (*Lexicon, error) {
	var doc Document

	switch format {
	case FORMAT_JSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("[Lexicon] failed to decode JSON lexicon: %w", err)
		}
	case FORMAT_YAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("[Lexicon] failed to decode YAML lexicon: %w", err)
		}
	default:
		return nil, fmt.Errorf("[Lexicon] unsupported lexicon format %q", format)
	}

	return New(doc), nil
}

// LoadFile reads a lexicon from disk. The format follows the file extension:
// .yaml and .yml are YAML, anything else is JSON.
func LoadFile(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[Lexicon] failed to read %s: %w", path, err)
	}
	return Parse(data, formatFromPath(path))
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FORMAT_YAML
	default:
		return FORMAT_JSON
	}
}

// Default returns the embedded Indonesian lexicon.
func Default() *Lexicon {
	lex, err := Parse(defaultLexicon, FORMAT_JSON)
	if err != nil {
		slog.Error("[Lexicon] Embedded lexicon is invalid, using empty lexicon",
			slog.String("error", err.Error()))
		return Empty()
	}
	return lex
}
