package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSender struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSender) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSClientSendsJobWithAttributes(t *testing.T) {
	sender := &fakeSender{}
	client, err := NewSQSClientWithAPI(sender, "https://sqs.example/rfi-jobs")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-7")
	if err := client.Send(ctx, NewMessage("doc-1", "")); err != nil {
		t.Fatalf("send: %v", err)
	}

	in := sender.inputs[0]
	decoded, err := DecodeMessage([]byte(aws.ToString(in.MessageBody)))
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.DocumentID != "doc-1" || decoded.RequestID != "req-7" {
		t.Fatalf("unexpected body %+v", decoded)
	}
	if got := aws.ToString(in.MessageAttributes["requestId"].StringValue); got != "req-7" {
		t.Fatalf("expected requestId attribute, got %q", got)
	}
	if in.MessageGroupId != nil {
		t.Fatalf("standard queue must not set a message group")
	}
}

func TestSQSClientFIFOGroupsByDocument(t *testing.T) {
	sender := &fakeSender{}
	client, err := NewSQSClientWithAPI(sender, "https://sqs.example/rfi-jobs.fifo")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	msg := NewMessage("doc-2", "req-1")
	if err := client.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	in := sender.inputs[0]
	if aws.ToString(in.MessageGroupId) != "doc-2" {
		t.Fatalf("expected group doc-2, got %q", aws.ToString(in.MessageGroupId))
	}
	if aws.ToString(in.MessageDeduplicationId) != "doc-2:"+msg.EnqueuedAt {
		t.Fatalf("unexpected dedup id %q", aws.ToString(in.MessageDeduplicationId))
	}
}

func TestSQSClientErrors(t *testing.T) {
	if _, err := NewSQSClientWithAPI(&fakeSender{}, "  "); err == nil {
		t.Fatalf("expected error for empty queue url")
	}
	client, _ := NewSQSClientWithAPI(&fakeSender{err: errors.New("throttled")}, "https://sqs.example/q")
	if err := client.Send(context.Background(), NewMessage("doc-3", "")); err == nil {
		t.Fatalf("expected send error")
	}
}
