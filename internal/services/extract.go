package services

import (
	"encoding/json"
	"fmt"

	"github.com/apex/log"

	"gemini-relay/internal/metrics"
)

// probe is one candidate location of the generated text inside a provider
// response. Path elements are object keys (string) or array indices (int).
type probe struct {
	name string
	path []any
}

// textProbes are tried in order; the first present leaf wins.
var textProbes = []probe{
	{name: "streamed", path: []any{"response", "candidates", 0, "content", "parts", 0, "text"}},
	{name: "direct", path: []any{"candidates", 0, "content", "parts", 0, "text"}},
	{name: "plain-content", path: []any{"response", "candidates", 0, "content", "text"}},
}

// lookup walks doc along the probe path. A JSON null leaf counts as missing.
func (p probe) lookup(doc any) (any, bool) {
	cur := doc
	for _, step := range p.path {
		switch key := step.(type) {
		case string:
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			cur, ok = obj[key]
			if !ok {
				return nil, false
			}
		case int:
			arr, ok := cur.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return nil, false
			}
			cur = arr[key]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// ExtractText returns the generated text from a provider response, or a
// pretty-printed dump of the whole response when no probe matches. It never
// fails.
func ExtractText(resp any) (text string) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Warn("recovered while extracting generated text")
			text = serializeResponse(resp)
		}
	}()

	doc, err := normalizeDocument(resp)
	if err == nil {
		for _, p := range textProbes {
			if v, ok := p.lookup(doc); ok {
				return leafString(v)
			}
		}
	}

	metrics.ExtractionFallbackTotal.Inc()
	log.Debug("no generated text at a known location, returning serialized response")
	return serializeResponse(resp)
}

// normalizeDocument turns typed values into the generic map/slice form the
// probes walk.
func normalizeDocument(resp any) (any, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func leafString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

func serializeResponse(resp any) string {
	raw, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", resp)
	}
	return string(raw)
}
