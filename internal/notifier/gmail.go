package notifier

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sfsync/sfsync-api/internal/models"
	apperrors "github.com/sfsync/sfsync-api/pkg/errors"
	"github.com/sfsync/sfsync-api/pkg/logger"
	"github.com/sfsync/sfsync-api/pkg/metrics"
)

// gmailAPI abstracts the Gmail users.messages.send call for tests
type gmailAPI interface {
	SendRaw(ctx context.Context, raw string) (string, error)
}

// GmailNotifier delivers notification emails through the Gmail API using a
// delegated OAuth2 refresh token. The token exchange happens on every send;
// expired or revoked grants surface as auth errors.
type GmailNotifier struct {
	fromEmail string
	newAPI    func(ctx context.Context, creds models.NotifierCredentials) (gmailAPI, error)
}

// NewGmailNotifier creates a notifier sending as the given mailbox
func NewGmailNotifier(fromEmail string) *GmailNotifier {
	return &GmailNotifier{
		fromEmail: fromEmail,
		newAPI:    newGoogleGmailAPI,
	}
}

// Send builds an RFC 2822 message, base64url-encodes it and submits it via
// users.messages.send
func (n *GmailNotifier) Send(ctx context.Context, creds models.NotifierCredentials, msg models.NotificationMessage) (string, error) {
	start := time.Now()

	api, err := n.newAPI(ctx, creds)
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("gmail", "error").Inc()
		logger.LogAPICall("gmail", "send", "error", metrics.MeasureDuration(start), zap.Error(err))
		return "", classifyGmailError(err)
	}

	raw := base64.URLEncoding.EncodeToString([]byte(n.buildRawMessage(msg)))

	messageID, err := api.SendRaw(ctx, raw)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.NotificationsSent.WithLabelValues("gmail", "error").Inc()
		logger.LogAPICall("gmail", "send", "error", duration, zap.Error(err))
		return "", classifyGmailError(err)
	}

	metrics.NotificationsSent.WithLabelValues("gmail", "success").Inc()
	logger.LogAPICall("gmail", "send", "success", duration,
		zap.String("message_id", messageID))

	return messageID, nil
}

func (n *GmailNotifier) buildRawMessage(msg models.NotificationMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.fromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return b.String()
}

func classifyGmailError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("gmail token exchange: %v: %w", err, apperrors.ErrSendAuth)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("gmail rejected credentials (status %d): %w", apiErr.Code, apperrors.ErrSendAuth)
		}
		return fmt.Errorf("gmail send failed (status %d): %v: %w", apiErr.Code, err, apperrors.ErrSendTransport)
	}

	return fmt.Errorf("gmail send: %v: %w", err, apperrors.ErrSendTransport)
}

// googleGmailAPI is the production gmailAPI backed by the Google API client
type googleGmailAPI struct {
	service *gmail.Service
}

func newGoogleGmailAPI(ctx context.Context, creds models.NotifierCredentials) (gmailAPI, error) {
	conf := &oauth2.Config{
		ClientID:     creds.GmailClientID,
		ClientSecret: creds.GmailClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.GmailRefreshToken})

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &googleGmailAPI{service: service}, nil
}

func (g *googleGmailAPI) SendRaw(ctx context.Context, raw string) (string, error) {
	sent, err := g.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}
