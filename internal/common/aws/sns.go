// internal/common/aws/sns.go
package aws

import (
	"context"
	"fmt"

	"mentor-match-workers/internal/models"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	json "github.com/goccy/go-json"
)

// SNSAPI is the subset of the SNS client the publisher needs.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// EventPublisher announces finished match requests to downstream consumers
// (booking and messaging).
type EventPublisher interface {
	PublishMatchCompleted(ctx context.Context, event models.MatchCompletedEvent) error
}

type SNSClient struct {
	client   SNSAPI
	topicArn string
}

func NewSNSClient(ctx context.Context, region, topicArn string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewSNSClientWithAPI(sns.NewFromConfig(cfg), topicArn), nil
}

func NewSNSClientWithAPI(api SNSAPI, topicArn string) *SNSClient {
	return &SNSClient{client: api, topicArn: topicArn}
}

func (s *SNSClient) PublishMatchCompleted(ctx context.Context, event models.MatchCompletedEvent) error {
	if event.Type == "" {
		event.Type = models.EventMatchCompleted
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(s.topicArn),
		Message:  awssdk.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: awssdk.String("String"), StringValue: awssdk.String(event.Type)},
			"studentId": {DataType: awssdk.String("String"), StringValue: awssdk.String(event.StudentID)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// NoopPublisher is used when events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishMatchCompleted(context.Context, models.MatchCompletedEvent) error {
	return nil
}
