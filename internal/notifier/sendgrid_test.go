package notifier

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfsync/sfsync-api/internal/models"
	apperrors "github.com/sfsync/sfsync-api/pkg/errors"
)

type fakeSendClient struct {
	gotEmail *mail.SGMailV3
	response *rest.Response
	err      error
}

func (f *fakeSendClient) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.gotEmail = email
	return f.response, f.err
}

func sendGridNotifierWith(client sendClient) *SendGridNotifier {
	return &SendGridNotifier{
		fromEmail: "noreply@example.com",
		newClient: func(apiKey string) sendClient { return client },
	}
}

func testMessage() models.NotificationMessage {
	return models.NotificationMessage{
		Subject:    "New Salesforce Record Created/Updated: Acme Corp",
		HTMLBody:   "<p>body</p>",
		Recipients: []string{"ops@example.com", "sales@example.com"},
	}
}

func TestSendGridNotifier_Send_Success(t *testing.T) {
	client := &fakeSendClient{
		response: &rest.Response{
			StatusCode: http.StatusAccepted,
			Headers:    map[string][]string{"X-Message-Id": {"msg-123"}},
		},
	}
	notifier := sendGridNotifierWith(client)

	creds := models.NotifierCredentials{SendGridAPIKey: "SG.key"}
	messageID, err := notifier.Send(context.Background(), creds, testMessage())
	require.NoError(t, err)
	assert.Equal(t, "msg-123", messageID)

	require.NotNil(t, client.gotEmail)
	assert.Equal(t, "noreply@example.com", client.gotEmail.From.Address)
	assert.Equal(t, "New Salesforce Record Created/Updated: Acme Corp", client.gotEmail.Subject)
	require.Len(t, client.gotEmail.Personalizations, 1)
	assert.Len(t, client.gotEmail.Personalizations[0].To, 2)
}

func TestSendGridNotifier_Send_AuthRejected(t *testing.T) {
	client := &fakeSendClient{
		response: &rest.Response{StatusCode: http.StatusUnauthorized, Body: `{"errors":[]}`},
	}
	notifier := sendGridNotifierWith(client)

	_, err := notifier.Send(context.Background(), models.NotifierCredentials{}, testMessage())
	assert.True(t, apperrors.Is(err, apperrors.ErrSendAuth))
}

func TestSendGridNotifier_Send_ServerError(t *testing.T) {
	client := &fakeSendClient{
		response: &rest.Response{StatusCode: http.StatusInternalServerError, Body: "upstream down"},
	}
	notifier := sendGridNotifierWith(client)

	_, err := notifier.Send(context.Background(), models.NotifierCredentials{}, testMessage())
	assert.True(t, apperrors.Is(err, apperrors.ErrSendTransport))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestSendGridNotifier_Send_TransportError(t *testing.T) {
	client := &fakeSendClient{err: errors.New("connection reset")}
	notifier := sendGridNotifierWith(client)

	_, err := notifier.Send(context.Background(), models.NotifierCredentials{}, testMessage())
	assert.True(t, apperrors.Is(err, apperrors.ErrSendTransport))
}
