package queue

import (
	"github.com/ThreeDotsLabs/watermill"

	"answerpath-backend/internal/shared/telemetry"
)

// zapAdapter routes watermill's internal logs through telemetry. Debug and
// trace output is dropped.
type zapAdapter struct {
	fields watermill.LogFields
}

func (a zapAdapter) Error(msg string, err error, fields watermill.LogFields) {
	merged := a.merge(fields)
	merged["error"] = err
	telemetry.Error("queue.watermill: "+msg, merged)
}

func (a zapAdapter) Info(msg string, fields watermill.LogFields) {
	telemetry.Info("queue.watermill: "+msg, a.merge(fields))
}

func (a zapAdapter) Debug(msg string, fields watermill.LogFields) {}

func (a zapAdapter) Trace(msg string, fields watermill.LogFields) {}

func (a zapAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return zapAdapter{fields: a.fields.Add(fields)}
}

func (a zapAdapter) merge(fields watermill.LogFields) map[string]any {
	out := make(map[string]any, len(a.fields)+len(fields))
	for k, v := range a.fields {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
