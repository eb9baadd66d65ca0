package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/sfsync/sfsync-api/internal/models"
	apperrors "github.com/sfsync/sfsync-api/pkg/errors"
	"github.com/sfsync/sfsync-api/pkg/logger"
	"github.com/sfsync/sfsync-api/pkg/metrics"
)

// sendClient abstracts *sendgrid.Client so delivery can be tested without
// hitting the SendGrid API.
type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridNotifier delivers notification emails through the SendGrid v3 API.
// The API key is supplied per call because credentials are resolved fresh on
// every pipeline invocation.
type SendGridNotifier struct {
	fromEmail string
	newClient func(apiKey string) sendClient
}

// NewSendGridNotifier creates a notifier sending from the given address
func NewSendGridNotifier(fromEmail string) *SendGridNotifier {
	return &SendGridNotifier{
		fromEmail: fromEmail,
		newClient: func(apiKey string) sendClient {
			return sendgrid.NewSendClient(apiKey)
		},
	}
}

// Send delivers one message and returns the provider message id when the API
// exposes one
func (n *SendGridNotifier) Send(ctx context.Context, creds models.NotifierCredentials, msg models.NotificationMessage) (string, error) {
	start := time.Now()

	email := mail.NewV3Mail()
	email.SetFrom(mail.NewEmail("", n.fromEmail))
	email.Subject = msg.Subject
	email.AddContent(mail.NewContent("text/html", msg.HTMLBody))

	personalization := mail.NewPersonalization()
	for _, recipient := range msg.Recipients {
		personalization.AddTos(mail.NewEmail("", recipient))
	}
	email.AddPersonalizations(personalization)

	resp, err := n.newClient(creds.SendGridAPIKey).SendWithContext(ctx, email)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.NotificationsSent.WithLabelValues("sendgrid", "error").Inc()
		logger.LogAPICall("sendgrid", "send", "error", duration, zap.Error(err))
		return "", fmt.Errorf("sendgrid send: %v: %w", err, apperrors.ErrSendTransport)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		metrics.NotificationsSent.WithLabelValues("sendgrid", "error").Inc()
		logger.LogAPICall("sendgrid", "send", "error", duration,
			zap.Int("status_code", resp.StatusCode))
		return "", classifySendGridStatus(resp.StatusCode, resp.Body)
	}

	messageID := ""
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}

	metrics.NotificationsSent.WithLabelValues("sendgrid", "success").Inc()
	logger.LogAPICall("sendgrid", "send", "success", duration,
		zap.Int("status_code", resp.StatusCode),
		zap.String("message_id", messageID))

	return messageID, nil
}

func classifySendGridStatus(statusCode int, body string) error {
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return fmt.Errorf("sendgrid rejected credentials (status %d): %w", statusCode, apperrors.ErrSendAuth)
	}
	return fmt.Errorf("sendgrid send failed (status %d): %s: %w", statusCode, body, apperrors.ErrSendTransport)
}
