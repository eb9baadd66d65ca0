package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sfsync/sfsync-api/internal/models"
	apperrors "github.com/sfsync/sfsync-api/pkg/errors"
	"github.com/sfsync/sfsync-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

type pipelineMocks struct {
	secrets  *MockSecretProvider
	fetcher  *MockRecordFetcher
	sink     *MockWarehouseSink
	notifier *MockNotifier
}

func newPipeline() (*SyncService, *pipelineMocks) {
	m := &pipelineMocks{
		secrets:  new(MockSecretProvider),
		fetcher:  new(MockRecordFetcher),
		sink:     new(MockWarehouseSink),
		notifier: new(MockNotifier),
	}
	service := NewSyncService(m.secrets, m.fetcher, m.sink, m.notifier, []string{"ops@example.com"})
	return service, m
}

func testBundle() *models.CredentialBundle {
	return &models.CredentialBundle{
		Salesforce: models.SalesforceCredentials{
			Username:    "user@example.com",
			Password:    "pass",
			InstanceURL: "https://example.my.salesforce.com",
		},
		Notifier: models.NotifierCredentials{SendGridAPIKey: "SG.key"},
	}
}

func fetchedRecord() models.CrmRecord {
	return models.CrmRecord{
		"Id":       "001xx000003DHPGAA4",
		"Name":     "Acme Corp",
		"Industry": "Tech",
		"Phone":    "555-1234",
	}
}

func TestSyncService_ProcessNotification_Success(t *testing.T) {
	service, m := newPipeline()

	m.secrets.On("Resolve", mock.Anything).Return(testBundle(), nil)
	m.fetcher.On("FetchRecord", mock.Anything, testBundle().Salesforce, "001xx000003DHPGAA4").
		Return(fetchedRecord(), nil)
	m.sink.On("InsertRecord", mock.Anything, fetchedRecord()).Return(nil)
	m.notifier.On("Send", mock.Anything, testBundle().Notifier, mock.AnythingOfType("models.NotificationMessage")).
		Return("msg-123", nil)

	result, err := service.ProcessNotification(context.Background(), []byte(`{"recordId": "001xx000003DHPGAA4"}`))
	require.NoError(t, err)

	assert.Equal(t, "001xx000003DHPGAA4", result.RecordID)
	assert.Equal(t, "msg-123", result.MessageID)
	assert.NoError(t, result.InsertErr)
	assert.NoError(t, result.NotifyErr)

	m.secrets.AssertExpectations(t)
	m.fetcher.AssertExpectations(t)
	m.sink.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
}

func TestSyncService_ProcessNotification_RendersRecordIntoMessage(t *testing.T) {
	service, m := newPipeline()

	m.secrets.On("Resolve", mock.Anything).Return(testBundle(), nil)
	m.fetcher.On("FetchRecord", mock.Anything, mock.Anything, mock.Anything).
		Return(fetchedRecord(), nil)
	m.sink.On("InsertRecord", mock.Anything, mock.Anything).Return(nil)

	var sentMsg models.NotificationMessage
	m.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sentMsg = args.Get(2).(models.NotificationMessage)
		}).
		Return("msg-123", nil)

	_, err := service.ProcessNotification(context.Background(), []byte(`{"recordId": "001xx000003DHPGAA4"}`))
	require.NoError(t, err)

	assert.Equal(t, "New Salesforce Record Created/Updated: Acme Corp", sentMsg.Subject)
	assert.Equal(t, []string{"ops@example.com"}, sentMsg.Recipients)
	assert.Contains(t, sentMsg.HTMLBody, "001xx000003DHPGAA4")
}

func TestSyncService_ProcessNotification_MalformedPayload(t *testing.T) {
	service, m := newPipeline()

	result, err := service.ProcessNotification(context.Background(), []byte(`{not json`))
	assert.Nil(t, result)
	assert.True(t, apperrors.Is(err, apperrors.ErrMalformedPayload))

	m.secrets.AssertNotCalled(t, "Resolve", mock.Anything)
}

func TestSyncService_ProcessNotification_MissingRecordID(t *testing.T) {
	service, m := newPipeline()

	for _, payload := range []string{`{}`, `{"recordId": ""}`, `{"id": "001"}`} {
		result, err := service.ProcessNotification(context.Background(), []byte(payload))
		assert.Nil(t, result, "payload: %s", payload)
		assert.True(t, apperrors.Is(err, apperrors.ErrMissingField), "payload: %s", payload)
	}

	m.secrets.AssertNotCalled(t, "Resolve", mock.Anything)
}

func TestSyncService_ProcessNotification_SecretsFailureAborts(t *testing.T) {
	service, m := newPipeline()

	m.secrets.On("Resolve", mock.Anything).
		Return(nil, apperrors.SecretMissingError("salesforce-password"))

	result, err := service.ProcessNotification(context.Background(), []byte(`{"recordId": "001"}`))
	require.NotNil(t, result)
	assert.Equal(t, "001", result.RecordID)
	assert.True(t, apperrors.Is(err, apperrors.ErrSecretMissing))

	m.fetcher.AssertNotCalled(t, "FetchRecord", mock.Anything, mock.Anything, mock.Anything)
	m.sink.AssertNotCalled(t, "InsertRecord", mock.Anything, mock.Anything)
}

func TestSyncService_ProcessNotification_FetchFailureAborts(t *testing.T) {
	service, m := newPipeline()

	m.secrets.On("Resolve", mock.Anything).Return(testBundle(), nil)
	m.fetcher.On("FetchRecord", mock.Anything, mock.Anything, "001gone").
		Return(nil, apperrors.ErrRecordNotFound)

	result, err := service.ProcessNotification(context.Background(), []byte(`{"recordId": "001gone"}`))
	require.NotNil(t, result)
	assert.Equal(t, "001gone", result.RecordID)
	assert.True(t, apperrors.Is(err, apperrors.ErrRecordNotFound))

	m.sink.AssertNotCalled(t, "InsertRecord", mock.Anything, mock.Anything)
	m.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncService_ProcessNotification_InsertFailureStillNotifies(t *testing.T) {
	service, m := newPipeline()

	insertErr := &apperrors.InsertError{RowErrors: []string{"row 0: no such field"}}

	m.secrets.On("Resolve", mock.Anything).Return(testBundle(), nil)
	m.fetcher.On("FetchRecord", mock.Anything, mock.Anything, mock.Anything).
		Return(fetchedRecord(), nil)
	m.sink.On("InsertRecord", mock.Anything, mock.Anything).Return(insertErr)
	m.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return("msg-123", nil)

	result, err := service.ProcessNotification(context.Background(), []byte(`{"recordId": "001"}`))
	require.NoError(t, err)

	assert.Equal(t, insertErr, result.InsertErr)
	assert.Equal(t, "msg-123", result.MessageID)
	m.notifier.AssertNumberOfCalls(t, "Send", 1)
}

func TestSyncService_ProcessNotification_NotifyFailureStillSucceeds(t *testing.T) {
	service, m := newPipeline()

	m.secrets.On("Resolve", mock.Anything).Return(testBundle(), nil)
	m.fetcher.On("FetchRecord", mock.Anything, mock.Anything, mock.Anything).
		Return(fetchedRecord(), nil)
	m.sink.On("InsertRecord", mock.Anything, mock.Anything).Return(nil)
	m.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("sendgrid down"))

	result, err := service.ProcessNotification(context.Background(), []byte(`{"recordId": "001"}`))
	require.NoError(t, err)

	assert.Error(t, result.NotifyErr)
	assert.Empty(t, result.MessageID)
	assert.NoError(t, result.InsertErr)
}

func TestSyncService_ProcessNotification_BothDownstreamFailuresStillSucceed(t *testing.T) {
	service, m := newPipeline()

	m.secrets.On("Resolve", mock.Anything).Return(testBundle(), nil)
	m.fetcher.On("FetchRecord", mock.Anything, mock.Anything, mock.Anything).
		Return(fetchedRecord(), nil)
	m.sink.On("InsertRecord", mock.Anything, mock.Anything).
		Return(&apperrors.InsertError{RowErrors: []string{"schema mismatch"}})
	m.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection reset"))

	result, err := service.ProcessNotification(context.Background(), []byte(`{"recordId": "001"}`))
	require.NoError(t, err)

	assert.Error(t, result.InsertErr)
	assert.Error(t, result.NotifyErr)
}

func TestSyncService_ProcessNotification_RepeatedDeliveriesProcessedIndependently(t *testing.T) {
	service, m := newPipeline()

	m.secrets.On("Resolve", mock.Anything).Return(testBundle(), nil)
	m.fetcher.On("FetchRecord", mock.Anything, mock.Anything, mock.Anything).
		Return(fetchedRecord(), nil)
	m.sink.On("InsertRecord", mock.Anything, mock.Anything).Return(nil)
	m.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return("msg-123", nil)

	payload := []byte(`{"recordId": "001xx000003DHPGAA4"}`)
	_, err := service.ProcessNotification(context.Background(), payload)
	require.NoError(t, err)
	_, err = service.ProcessNotification(context.Background(), payload)
	require.NoError(t, err)

	// No dedup: each delivery inserts and notifies again.
	m.sink.AssertNumberOfCalls(t, "InsertRecord", 2)
	m.notifier.AssertNumberOfCalls(t, "Send", 2)
}
