// Package bundle translates the external JSON script bundle into
// repository entries and back out, and writes the CSV script report.
package bundle

import (
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/roteiro/pkg/domain"
)

// TerminalNext is the bundle's spelling for "end of script".
const TerminalNext = "fim"

// Bundle is the external JSON schema. The top-level key is historical:
// products were called "marcas" (brands) in the original editor.
type Bundle struct {
	Marcas map[string]ProductBundle `json:"marcas"`
}

// ProductBundle maps step keys to step definitions.
type ProductBundle map[string]StepDef

// StepDef is one step in the external schema. Format and Segments are
// loosely typed because older editors emitted them with inconsistent
// casing; they are decoded leniently with mapstructure.
type StepDef struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Body    string      `json:"body"`
	Buttons []ButtonDef `json:"buttons"`

	Format   map[string]any   `json:"format,omitempty"`
	Segments []map[string]any `json:"segments,omitempty"`
}

// ButtonDef is one transition in the external schema.
type ButtonDef struct {
	Label   string `json:"label"`
	Next    string `json:"next"`
	Primary bool   `json:"primary,omitempty"`
}

// ItemError reports one skipped or degraded item during import. Import
// continues for valid items; the caller shows these to the admin.
type ItemError struct {
	Product string `json:"product"`
	StepKey string `json:"step_key,omitempty"`
	Reason  string `json:"reason"`
}

func (e ItemError) String() string {
	if e.StepKey == "" {
		return fmt.Sprintf("%s: %s", e.Product, e.Reason)
	}
	return fmt.Sprintf("%s/%s: %s", e.Product, e.StepKey, e.Reason)
}

// Report aggregates the outcome of an import.
type Report struct {
	ProductCount int         `json:"product_count"`
	StepCount    int         `json:"step_count"`
	Errors       []ItemError `json:"errors,omitempty"`
}

// Parse validates and decodes a bundle. It fails only on structural
// problems (no marcas object, not JSON); per-item problems are left for
// the importer to report.
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("bundle: invalid JSON: %w", err)
	}
	if len(b.Marcas) == 0 {
		return nil, fmt.Errorf("bundle: missing or empty \"marcas\" object")
	}
	return &b, nil
}

// decodeFormatting maps a loose format object onto a Formatting record.
func decodeFormatting(raw map[string]any) (*domain.Formatting, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var f domain.Formatting
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return &f, nil
}

// decodeSegments maps loose segment objects onto ContentSegments. The
// segment text lives under "text"; everything else is formatting.
func decodeSegments(stepID string, raw []map[string]any) ([]domain.ContentSegment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	segments := make([]domain.ContentSegment, 0, len(raw))
	for i, entry := range raw {
		text, _ := entry["text"].(string)
		if text == "" {
			return nil, fmt.Errorf("segment %d: missing text", i)
		}
		format := make(map[string]any, len(entry))
		for k, v := range entry {
			if k != "text" && k != "id" {
				format[k] = v
			}
		}
		f, err := decodeFormatting(format)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		seg := domain.ContentSegment{
			ID:   fmt.Sprintf("%s-seg-%d", stepID, i+1),
			Text: text,
		}
		if f != nil {
			seg.Formatting = *f
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// sortedKeys returns map keys in deterministic order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// firstStepID picks the product's entry point: the step no button
// references (the graph root), tie-broken by smallest id. Fully cyclic
// bundles fall back to the smallest id.
func firstStepID(steps []*domain.Step) string {
	if len(steps) == 0 {
		return ""
	}
	referenced := make(map[string]bool)
	for _, s := range steps {
		for _, b := range s.Buttons {
			if b.NextStepID != "" {
				referenced[b.NextStepID] = true
			}
		}
	}
	var roots []string
	for _, s := range steps {
		if !referenced[s.ID] {
			roots = append(roots, s.ID)
		}
	}
	if len(roots) == 0 {
		for _, s := range steps {
			roots = append(roots, s.ID)
		}
	}
	sort.Strings(roots)
	return roots[0]
}

// buttonID derives a stable button identifier from its position.
func buttonID(stepID string, index int) string {
	return fmt.Sprintf("%s-b%d", stepID, index+1)
}

// normalizeNext maps the bundle's "fim" sentinel to an empty NextStepID.
func normalizeNext(next string) string {
	if strings.EqualFold(strings.TrimSpace(next), TerminalNext) {
		return ""
	}
	return strings.TrimSpace(next)
}
