package extraction

import (
	"errors"
	"math"
	"testing"
)

func TestDecodeAcceptsArrayAndObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "array", raw: `[{"text":"Do you support SSO?","context":"Security","confidence_score":0.9}]`, want: 1},
		{name: "object", raw: `{"questions":[{"text":"A?","context":"","confidence_score":0.5},{"text":"B?","context":"c","confidence_score":1}]}`, want: 2},
		{name: "empty array", raw: `[]`, want: 0},
		{name: "empty object list", raw: `{"questions":[]}`, want: 0},
		{name: "fenced", raw: "```json\n[{\"text\":\"A?\",\"context\":\"x\",\"confidence_score\":0.1}]\n```", want: 1},
		{name: "bare fence", raw: "```\n{\"questions\":[]}\n```", want: 0},
		{name: "surrounding whitespace", raw: "\n  []  \n", want: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d candidates, got %d", tt.want, len(got))
			}
		})
	}
}

func TestDecodeTrimsFields(t *testing.T) {
	got, err := Decode(`[{"text":"  Describe your uptime SLA.  ","context":" Ops ","confidence_score":0.75}]`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Candidate{Text: "Describe your uptime SLA.", Context: "Ops", ConfidenceScore: 0.75}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("expected [%+v], got %+v", want, got)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "prose", raw: "Here are the questions: none"},
		{name: "missing text", raw: `[{"context":"c","confidence_score":0.5}]`},
		{name: "missing context", raw: `[{"text":"t","confidence_score":0.5}]`},
		{name: "missing score", raw: `[{"text":"t","context":"c"}]`},
		{name: "null text", raw: `[{"text":null,"context":"c","confidence_score":0.5}]`},
		{name: "string score", raw: `[{"text":"t","context":"c","confidence_score":"0.5"}]`},
		{name: "unknown field", raw: `[{"text":"t","context":"c","confidence_score":0.5,"page":2}]`},
		{name: "unknown envelope key", raw: `{"questions":[],"notes":"x"}`},
		{name: "missing questions key", raw: `{}`},
		{name: "null questions", raw: `{"questions":null}`},
		{name: "null", raw: `null`},
		{name: "trailing data", raw: `[] []`},
		{name: "truncated", raw: `[{"text":"t"`},
		{name: "blank text", raw: `[{"text":"   ","context":"c","confidence_score":0.5}]`},
		{name: "score too high", raw: `[{"text":"t","context":"c","confidence_score":1.5}]`},
		{name: "score negative", raw: `[{"text":"t","context":"c","confidence_score":-0.1}]`},
		{name: "score overflow", raw: `[{"text":"t","context":"c","confidence_score":1e999}]`},
		{name: "uppercase envelope key", raw: `{"QUESTIONS":[]}`},
		{name: "mixed case question keys", raw: `{"questions":[{"Text":"a?","Context":"","Confidence_Score":0.5}]}`},
		{name: "duplicate question key", raw: `[{"text":"a?","text":"b?","context":"","confidence_score":0.5}]`},
		{name: "duplicate envelope key", raw: `{"questions":[],"questions":[{"text":"a?","context":"","confidence_score":0.5}]}`},
		{name: "question is not an object", raw: `[null]`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			if err == nil {
				t.Fatalf("expected error, got %+v", got)
			}
			if !errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrExtractionUnavailable) {
				t.Fatalf("expected malformed response, got %v", err)
			}
			if Kind(err) != KindMalformed {
				t.Fatalf("expected kind %s, got %s", KindMalformed, Kind(err))
			}
		})
	}
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
		ok   bool
	}{
		{in: 0, want: 0, ok: true},
		{in: 1, want: 1, ok: true},
		{in: 0.42, want: 0.42, ok: true},
		{in: 1 + 1e-12, want: 1, ok: true},
		{in: -1e-12, want: 0, ok: true},
		{in: 1.0001, ok: false},
		{in: -0.1, ok: false},
		{in: math.NaN(), ok: false},
		{in: math.Inf(1), ok: false},
		{in: math.Inf(-1), ok: false},
	}
	for _, tt := range tests {
		got, ok := normalizeConfidence(tt.in)
		if ok != tt.ok {
			t.Fatalf("input %v: expected ok=%v, got %v", tt.in, tt.ok, ok)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("input %v: expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestDecodeClampsNearBoundary(t *testing.T) {
	got, err := Decode(`[{"text":"t","context":"c","confidence_score":1.0000000000001}]`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ConfidenceScore != 1.0 {
		t.Fatalf("expected one clamped candidate, got %+v", got)
	}
}
