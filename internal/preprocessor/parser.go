// internal/preprocessor/parser.go

// Package preprocessor loads rule sets and fact lists from JSON, YAML and XML
// documents and analyzes the rules they contain.
package preprocessor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/vocabulary"
)

// ErrInvalidDocument wraps every decoding and validation failure.
var ErrInvalidDocument = errors.New("invalid rule document")

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
)

// ParseFormat accepts a format name, case-insensitively. "yml" is an alias for yaml.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xml":
		return FormatXML, nil
	default:
		return "", fmt.Errorf("unknown document format %q", name)
	}
}

// DetectFormat picks the format from a file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot detect format of %s: no extension", path)
	}
	return ParseFormat(ext)
}

// ParseRuleSet decodes, validates and builds a rule set. The document's name and
// description are recorded as properties alongside props.
func ParseRuleSet(data []byte, format Format, props map[string]string) (*rules.RuleSet, error) {
	log.Info().Str("format", string(format)).Msg("Started parsing rules...")
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, err
	}

	rs := doc.ruleSet()
	for k, v := range props {
		rs.SetProperty(k, v)
	}
	rs.SetProperty("name", rs.Name)
	rs.SetProperty("description", rs.Description)

	log.Info().Str("ruleset", rs.Name).Int("rules", len(rs.Rules)).Int("synonyms", len(doc.Synonyms)).Msg("Parsed rule set")
	return rs, nil
}

// LoadRuleSet reads a rule document from path. An empty format is detected from
// the file extension.
func LoadRuleSet(path string, format Format, props map[string]string) (*rules.RuleSet, error) {
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule document: %w", err)
	}
	rs, err := ParseRuleSet(data, format, props)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// ParseFacts decodes a JSON or YAML object of name/value pairs into clauses,
// ordered by name.
func ParseFacts(data []byte, format Format) ([]any, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	default:
		return nil, fmt.Errorf("%w: facts cannot be read from %q", ErrInvalidDocument, format)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	facts := make([]any, 0, len(names))
	for _, name := range names {
		switch v := raw[name].(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("%w: fact %q must be a scalar", ErrInvalidDocument, name)
		default:
			facts = append(facts, vocabulary.NewClause(name, v))
		}
	}
	log.Debug().Int("facts", len(facts)).Msg("Parsed facts")
	return facts, nil
}

// LoadFacts reads a fact document from path, detecting its format from the extension.
func LoadFacts(path string) ([]any, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facts: %w", err)
	}
	facts, err := ParseFacts(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return facts, nil
}
