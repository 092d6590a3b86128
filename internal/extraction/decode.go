package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// confidenceTolerance is how far outside [0,1] a score may drift from
// float rounding and still be clamped.
const confidenceTolerance = 1e-9

var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	questionKeys = []string{"text", "context", "confidence_score"}
	envelopeKeys = []string{"questions"}
)

type wireQuestion struct {
	Text            *string  `validate:"required"`
	Context         *string  `validate:"required"`
	ConfidenceScore *float64 `validate:"required"`
}

type wireEnvelope struct {
	Questions *[]json.RawMessage `validate:"required"`
}

// Decode parses a raw model reply into candidates. It accepts a bare JSON
// array or an object with a single "questions" key, optionally wrapped in a
// markdown code fence. Object keys must match exactly, in case too, and
// appear at most once.
func Decode(raw string) ([]Candidate, error) {
	body := stripFence(raw)
	if body == "" {
		return nil, malformed("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(body))
	var top json.RawMessage
	if err := dec.Decode(&top); err != nil {
		return nil, malformed("decode response: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("trailing data after JSON value")
	}

	var items []json.RawMessage
	switch top[0] {
	case '[':
		if err := json.Unmarshal(top, &items); err != nil {
			return nil, malformed("decode array: %v", err)
		}
	case '{':
		fields, err := strictObject(top, envelopeKeys)
		if err != nil {
			return nil, malformed("decode object: %v", err)
		}
		var env wireEnvelope
		if err := unmarshalField(fields, "questions", &env.Questions); err != nil {
			return nil, malformed("questions key: %v", err)
		}
		if err := validate.Struct(env); err != nil {
			return nil, malformed("questions key: %v", err)
		}
		items = *env.Questions
	default:
		return nil, malformed("response is not a JSON array or object")
	}
	if items == nil {
		return nil, malformed("null question list")
	}

	out := make([]Candidate, 0, len(items))
	for i, rawItem := range items {
		item, err := decodeQuestion(rawItem)
		if err != nil {
			return nil, malformed("question %d: %v", i, err)
		}
		text := strings.TrimSpace(*item.Text)
		if text == "" {
			return nil, malformed("question %d: blank text", i)
		}
		score, ok := normalizeConfidence(*item.ConfidenceScore)
		if !ok {
			return nil, malformed("question %d: confidence %v outside [0,1]", i, *item.ConfidenceScore)
		}
		out = append(out, Candidate{
			Text:            text,
			Context:         strings.TrimSpace(*item.Context),
			ConfidenceScore: score,
		})
	}
	return out, nil
}

func decodeQuestion(raw json.RawMessage) (wireQuestion, error) {
	var q wireQuestion
	fields, err := strictObject(raw, questionKeys)
	if err != nil {
		return q, err
	}
	if err := unmarshalField(fields, "text", &q.Text); err != nil {
		return q, err
	}
	if err := unmarshalField(fields, "context", &q.Context); err != nil {
		return q, err
	}
	if err := unmarshalField(fields, "confidence_score", &q.ConfidenceScore); err != nil {
		return q, err
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// strictObject splits a JSON object into its raw values. Keys outside allowed
// and repeated keys are errors; encoding/json would fold case and keep the
// last duplicate instead.
func strictObject(raw json.RawMessage, allowed []string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, errors.New("expected a JSON object")
	}
	fields := make(map[string]json.RawMessage, len(allowed))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		if !slices.Contains(allowed, key) {
			return nil, fmt.Errorf("unknown key %q", key)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

// unmarshalField decodes fields[key] into dst; a missing key leaves dst as is.
func unmarshalField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func normalizeConfidence(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	switch {
	case v < 0:
		if v < -confidenceTolerance {
			return 0, false
		}
		return 0, true
	case v > 1:
		if v > 1+confidenceTolerance {
			return 0, false
		}
		return 1, true
	}
	return v, true
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// drop the info string, e.g. ```json
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimSpace(s), "json")
	}
	return strings.TrimSpace(s)
}
