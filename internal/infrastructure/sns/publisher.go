package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/task-tracker-api/internal/domain"
)

// api is the subset of the SNS client the publisher needs.
type api interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// TaskEvent is the JSON message published for each task lifecycle change.
type TaskEvent struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Task       *domain.Task `json:"task"`
}

// Publisher fans task events out to an SNS topic.
type Publisher struct {
	client   api
	topicARN string
	now      func() time.Time
}

// NewClient builds an SNS client, pointing it at endpointURL when set (LocalStack).
func NewClient(awsCfg aws.Config, endpointURL string) *sns.Client {
	var opts []func(*sns.Options)
	if endpointURL != "" {
		opts = append(opts, func(o *sns.Options) { o.BaseEndpoint = aws.String(endpointURL) })
	}
	return sns.NewFromConfig(awsCfg, opts...)
}

func NewPublisher(client api, topicARN string) *Publisher {
	return &Publisher{client: client, topicARN: topicARN, now: time.Now}
}

// PublishTaskEvent sends a "task.<action>" event. The action is also set as a
// message attribute so subscribers can filter on it.
func (p *Publisher) PublishTaskEvent(ctx context.Context, action string, t *domain.Task) error {
	evt := TaskEvent{Type: "task." + action, OccurredAt: p.now().UTC(), Task: t}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal task event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(evt.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	return nil
}
