package handoff

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"card-assistant/internal/common/logger"
	"card-assistant/internal/models"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier emails a plain-text case summary to the support desk.
type SESNotifier struct {
	client    SESService
	fromEmail string
	deskEmail string
	logger    logger.Logger
}

func NewSESNotifier(client SESService, fromEmail, deskEmail string, log logger.Logger) *SESNotifier {
	return &SESNotifier{client: client, fromEmail: fromEmail, deskEmail: deskEmail, logger: log}
}

func (n *SESNotifier) Name() string { return "ses" }

func (n *SESNotifier) Dispatch(ctx context.Context, ticket *models.EscalationTicket) error {
	out, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{n.deskEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject(ticket))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(emailBody(ticket))},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", n.deskEmail, err)
	}

	n.logger.Debug("ticket emailed", map[string]interface{}{
		"caseId":    ticket.CaseID,
		"messageId": aws.ToString(out.MessageId),
	})
	return nil
}

func emailBody(ticket *models.EscalationTicket) string {
	vars := variables(ticket)
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("A conversation needs a specialist.\n\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, vars[k])
	}
	return b.String()
}
