package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"answerpath-backend/internal/shared/telemetry"
)

// DefaultTopic carries document processing jobs on the in-process bus.
const DefaultTopic = "documents.process"

// HandlerFunc processes one raw message body.
type HandlerFunc func(ctx context.Context, body []byte) error

// ChannelOptions configures ChannelClient.
type ChannelOptions struct {
	Topic       string
	Buffer      int64
	MaxAttempts int
	RetryDelay  time.Duration
	// Retryable decides whether a failed delivery is nacked for redelivery.
	// Nil treats every failure as retryable.
	Retryable func(error) bool
}

// ChannelClient is an in-process queue backed by a watermill Go channel pub/sub.
// It serves single-binary deployments and tests; delivery is at-least-once
// within the process lifetime.
//
// The topic subscription is opened once, when the client is built, so jobs
// sent before a consumer starts are held for it. Messages are not persisted:
// an acked job is gone and consumers share the one subscription.
type ChannelClient struct {
	pubsub *gochannel.GoChannel
	opts   ChannelOptions
	msgs   <-chan *message.Message
	subErr error
	stop   context.CancelFunc

	mu       sync.Mutex
	attempts map[string]int
}

// NewChannelClient constructs a ChannelClient.
func NewChannelClient(opts ChannelOptions) *ChannelClient {
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: opts.Buffer,
		Persistent:          false,
	}, zapAdapter{fields: watermill.LogFields{"component": "queue.channel"}})

	subCtx, stop := context.WithCancel(context.Background())
	msgs, err := pubsub.Subscribe(subCtx, opts.Topic)
	if err != nil {
		err = fmt.Errorf("subscribe topic=%s: %w", opts.Topic, err)
	}
	return &ChannelClient{
		pubsub:   pubsub,
		opts:     opts,
		msgs:     msgs,
		subErr:   err,
		stop:     stop,
		attempts: make(map[string]int),
	}
}

// Send publishes a message on the configured topic.
func (c *ChannelClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode channel message: %w", err)
	}
	wm := message.NewMessage(watermill.NewUUID(), payload)
	wm.Metadata.Set("document_id", msg.DocumentID)
	if err := c.pubsub.Publish(c.opts.Topic, wm); err != nil {
		return fmt.Errorf("publish document_id=%s: %w", msg.DocumentID, err)
	}
	return nil
}

// Subscribe consumes messages until ctx is cancelled or the client is closed.
// Successful deliveries are acked; retryable failures are nacked and
// redelivered up to MaxAttempts. Messages not yet received when ctx ends stay
// queued for the next Subscribe call.
func (c *ChannelClient) Subscribe(ctx context.Context, handler HandlerFunc) error {
	if c.subErr != nil {
		return c.subErr
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-c.msgs:
			if !ok {
				return nil
			}
			c.deliver(ctx, msg, handler)
		}
	}
}

func (c *ChannelClient) deliver(ctx context.Context, msg *message.Message, handler HandlerFunc) {
	err := handler(ctx, msg.Payload)
	if err == nil {
		c.forget(msg.UUID)
		msg.Ack()
		return
	}

	attempt := c.recordAttempt(msg.UUID)
	fields := map[string]any{
		"message_id":  msg.UUID,
		"document_id": msg.Metadata.Get("document_id"),
		"attempt":     attempt,
		"error":       err,
	}
	if !c.retryable(err) || attempt >= c.opts.MaxAttempts || ctx.Err() != nil {
		telemetry.Error("queue.channel.dropped", fields)
		c.forget(msg.UUID)
		msg.Ack()
		return
	}
	telemetry.Warn("queue.channel.redeliver", fields)
	if c.opts.RetryDelay > 0 {
		select {
		case <-time.After(c.opts.RetryDelay):
		case <-ctx.Done():
		}
	}
	msg.Nack()
}

func (c *ChannelClient) retryable(err error) bool {
	if c.opts.Retryable == nil {
		return true
	}
	return c.opts.Retryable(err)
}

func (c *ChannelClient) recordAttempt(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[id]++
	return c.attempts[id]
}

func (c *ChannelClient) forget(id string) {
	c.mu.Lock()
	delete(c.attempts, id)
	c.mu.Unlock()
}

// Close shuts down the underlying pub/sub.
func (c *ChannelClient) Close() error {
	c.stop()
	if err := c.pubsub.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

var _ Client = (*ChannelClient)(nil)
