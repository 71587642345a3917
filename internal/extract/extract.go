// Package extract recovers a structured recommendation payload from an
// otherwise free-text model reply. The model is free to wrap the
// payload in prose, omit it, or malform it; extraction is correct when
// possible and silently absent when not. It never fails a turn.
package extract

import (
	"encoding/json"
	"strings"
)

// Recommendation is one model-emitted recommendation stub. Fields are
// optional; elements missing both id and name pass through untouched,
// leaving enrichment to the caller.
type Recommendation struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// TryExtractRaw locates the single candidate JSON span in text: from
// the first '{' or '[' through the last '}' or ']'. It returns the span
// when it parses as JSON, and nothing otherwise: no bracket-balance
// repair, no partial recovery, no multi-candidate scan. The span can
// over-include trailing prose-embedded brackets; that is an accepted
// limitation of the convention, shared with the gateway's server-side
// normalization.
func TryExtractRaw(text string) (json.RawMessage, bool) {
	first := strings.IndexAny(text, "{[")
	last := strings.LastIndexAny(text, "}]")
	if first == -1 || last <= first {
		return nil, false
	}
	candidate := text[first : last+1]
	if !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}

// TryExtract recovers the recommendation list embedded in text.
// A JSON value that parses but carries no "recommendations" array is
// not a recommendation payload and yields nothing.
func TryExtract(text string) ([]Recommendation, bool) {
	raw, ok := TryExtractRaw(text)
	if !ok {
		return nil, false
	}
	return decodePayload(raw)
}

// FromReply is the client-side entry point. When the gateway already
// attached its pre-parsed payload, that is used directly; the gateway
// runs the same algorithm once server-side, so rescanning the text
// would only repeat the work.
func FromReply(content string, parsed json.RawMessage) ([]Recommendation, bool) {
	if len(parsed) > 0 {
		return decodePayload(parsed)
	}
	return TryExtract(content)
}

func decodePayload(raw json.RawMessage) ([]Recommendation, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Top-level array or scalar: valid JSON, not a payload.
		return nil, false
	}
	rawRecs, ok := fields["recommendations"]
	if !ok {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(rawRecs, &elems); err != nil {
		// "recommendations" present but not an ordered sequence.
		return nil, false
	}
	recs := make([]Recommendation, 0, len(elems))
	for _, e := range elems {
		var r Recommendation
		if err := json.Unmarshal(e, &r); err != nil {
			return nil, false
		}
		recs = append(recs, r)
	}
	return recs, true
}
