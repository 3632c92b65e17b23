package handoff

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"card-assistant/internal/common/logger"
	"card-assistant/internal/models"
)

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes the ticket JSON to the support desk topic.
type SNSNotifier struct {
	client   SNSService
	topicARN string
	logger   logger.Logger
}

func NewSNSNotifier(client SNSService, topicARN string, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN, logger: log}
}

func (n *SNSNotifier) Name() string { return "sns" }

func (n *SNSNotifier) Dispatch(ctx context.Context, ticket *models.EscalationTicket) error {
	body, err := encodeTicket(ticket)
	if err != nil {
		return err
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject(ticket)),
		Message:  aws.String(body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"urgency": {
				DataType:    aws.String("String"),
				StringValue: aws.String(ticket.Urgency),
			},
			"issueType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(ticket.IssueType),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", n.topicARN, err)
	}

	n.logger.Debug("ticket published", map[string]interface{}{
		"caseId":    ticket.CaseID,
		"messageId": aws.ToString(out.MessageId),
	})
	return nil
}
