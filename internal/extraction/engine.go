package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"answerpath-backend/internal/llm"
	"answerpath-backend/internal/shared/telemetry"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// Candidate is a question the model found in one chunk, before it is tied to
// a document and position.
type Candidate struct {
	Text            string
	Context         string
	ConfidenceScore float64
}

// Options configures an Engine. Model and Temperature are reported in logs;
// the Completer is expected to be configured with the same values.
type Options struct {
	Model         string
	Temperature   float64
	Timeout       time.Duration
	PromptVersion string
}

// Engine turns chunk text into validated candidates via a language model.
type Engine struct {
	completer llm.Completer
	opts      Options
}

// NewEngine builds an Engine around completer.
func NewEngine(completer llm.Completer, opts Options) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PromptVersion == "" {
		opts.PromptVersion = PromptVersion
	}
	if completer == nil {
		completer = llm.PlaceholderClient{}
	}
	return &Engine{completer: completer, opts: opts}
}

// PromptVersion reports the instruction template version in use.
func (e *Engine) PromptVersion() string { return e.opts.PromptVersion }

// Extract asks the model for the questions in chunkText. Every backend
// failure, including the call timeout, surfaces as ErrExtractionUnavailable;
// replies that do not match the schema surface as ErrMalformedResponse.
func (e *Engine) Extract(ctx context.Context, chunkText string) ([]Candidate, error) {
	if strings.TrimSpace(chunkText) == "" {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := e.completer.Complete(callCtx, BuildPrompt(chunkText))
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w: model call exceeded %s: %v", llm.ErrUnavailable, e.opts.Timeout, err)
		}
		telemetry.Warn("extraction.call.failed", map[string]any{
			"model":          e.opts.Model,
			"prompt_version": e.opts.PromptVersion,
			"rate_limited":   errors.Is(err, llm.ErrRateLimited),
			"duration_ms":    time.Since(start).Milliseconds(),
			"error":          err.Error(),
		})
		return nil, unavailable(err)
	}

	candidates, err := Decode(reply)
	if err != nil {
		telemetry.Warn("extraction.response.malformed", map[string]any{
			"model":          e.opts.Model,
			"prompt_version": e.opts.PromptVersion,
			"error":          err.Error(),
		})
		return nil, err
	}
	return candidates, nil
}
