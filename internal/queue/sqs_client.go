package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"answerpath-backend/internal/shared/telemetry"
)

const defaultSQSRegion = "us-east-1"

// SQSSender is the part of the SQS API the producer needs.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient publishes document jobs to SQS. FIFO queues get one message
// group per document so jobs for the same document never run concurrently.
type SQSClient struct {
	api      SQSSender
	queueURL string
	fifo     bool
}

// NewSQSClient loads the default AWS config and constructs an SQS producer.
func NewSQSClient(ctx context.Context, queueURL, region string) (*SQSClient, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		region = defaultSQSRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSQSClientWithAPI(sqs.NewFromConfig(cfg), queueURL)
}

// NewSQSClientWithAPI wraps an existing sender.
func NewSQSClientWithAPI(api SQSSender, queueURL string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("RA_SQS_QUEUE_URL is required")
	}
	return &SQSClient{
		api:      api,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
	}, nil
}

// Send delivers a job for msg.DocumentID.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	if msg.RequestID == "" {
		msg.RequestID = RequestIDFromContext(ctx)
	}
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"documentId": stringAttr(msg.DocumentID),
		},
	}
	if msg.RequestID != "" {
		input.MessageAttributes["requestId"] = stringAttr(msg.RequestID)
	}
	if s.fifo {
		input.MessageGroupId = aws.String(msg.DocumentID)
		input.MessageDeduplicationId = aws.String(msg.DocumentID + ":" + msg.EnqueuedAt)
	}

	out, err := s.api.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("sqs send message document_id=%s: %w", msg.DocumentID, err)
	}
	telemetry.Info("queue.sqs.sent", map[string]any{
		"document_id":    msg.DocumentID,
		"request_id":     msg.RequestID,
		"sqs_message_id": aws.ToString(out.MessageId),
		"force":          msg.Force,
	})
	return nil
}

func stringAttr(v string) sqstypes.MessageAttributeValue {
	return sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}

var _ Client = (*SQSClient)(nil)
