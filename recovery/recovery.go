// Package recovery turns raw, possibly malformed model output into a structured recipe payload.
//
// Recovery runs a fixed sequence of guarded stages over the text: trim, fence stripping, brace-boundary
// extraction, syntax repair, a strict parse and a whitespace-collapsing fallback parse. The result is only
// guaranteed to be valid JSON, not a valid recipe; see DecodeRecipe for the optional typed layer.
package recovery

import (
	"encoding/json"
	"strings"
)

// envelopeKeys are the wrapper keys a model may nest the recipe under, in precedence order.
var envelopeKeys = []string{"recipe", "json", "data"}

// Payload is the recovered model answer.
//
// Recipe holds an unvalidated decoded JSON value: map[string]any, []any, string, float64, bool or nil.
type Payload struct {
	Recipe             any                `json:"recipe"`
	MissingSuggestions MissingSuggestions `json:"missingSuggestions"`
}

// MissingSuggestions lists catalog entries the model wanted but could not find.
type MissingSuggestions struct {
	Ingredients []string `json:"ingredients"`
	HacksOrTips []string `json:"hacksOrTips"`
}

// RecipeObject returns the recipe when it is a JSON object.
func (p Payload) RecipeObject() (map[string]any, bool) {
	obj, ok := p.Recipe.(map[string]any)
	return obj, ok
}

// Recover extracts a Payload from raw model output. It fails with ErrEmptyPayload on empty input and with
// an *UnparsablePayloadError when no stage yields valid JSON; whitespace-only input is unparsable, not
// empty. Recover has no side effects and is safe for concurrent use.
func Recover(raw string) (Payload, error) {
	if raw == "" {
		return Payload{}, ErrEmptyPayload
	}

	text := strings.TrimSpace(raw)
	text = stripFence(text)
	text = extractBraces(text)
	text = repairSyntax(text)

	parsed, err := parse(text)
	if err != nil {
		parsed, err = parse(collapseWhitespace(text))
		if err != nil {
			return Payload{}, newUnparsable(raw, text, err)
		}
	}

	return normalize(parsed), nil
}

// RecoverBytes is Recover for byte input; a nil or empty slice is an empty payload.
func RecoverBytes(raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, ErrEmptyPayload
	}
	return Recover(string(raw))
}

func parse(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func normalize(parsed any) Payload {
	p := Payload{
		Recipe: parsed,
		MissingSuggestions: MissingSuggestions{
			Ingredients: []string{},
			HacksOrTips: []string{},
		},
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return p
	}

	for _, key := range envelopeKeys {
		if inner, ok := obj[key]; ok && inner != nil {
			p.Recipe = inner
			break
		}
	}

	if ms, ok := obj["missingSuggestions"].(map[string]any); ok {
		p.MissingSuggestions.Ingredients = stringList(ms["ingredients"])
		p.MissingSuggestions.HacksOrTips = stringList(ms["hacksOrTips"])
	}

	return p
}

// stringList coerces a decoded JSON value into a list of strings. Nulls are skipped and non-string
// elements are kept as compact JSON text. A lone non-blank string becomes a one-element list.
func stringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	case []any:
		for _, e := range t {
			switch s := e.(type) {
			case nil:
				continue
			case string:
				out = append(out, s)
			default:
				if b, err := json.Marshal(s); err == nil {
					out = append(out, string(b))
				}
			}
		}
	}
	return out
}
