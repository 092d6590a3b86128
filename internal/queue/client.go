package queue

import "context"

// Client hands document jobs to whatever runs the pipeline: SQS for
// deployed workers, a watermill channel inside a single process.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
