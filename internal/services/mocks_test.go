package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sfsync/sfsync-api/internal/models"
)

// MockSecretProvider is a mock implementation of SecretProvider
type MockSecretProvider struct {
	mock.Mock
}

func (m *MockSecretProvider) Resolve(ctx context.Context) (*models.CredentialBundle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CredentialBundle), args.Error(1)
}

// MockRecordFetcher is a mock implementation of RecordFetcher
type MockRecordFetcher struct {
	mock.Mock
}

func (m *MockRecordFetcher) FetchRecord(ctx context.Context, creds models.SalesforceCredentials, recordID string) (models.CrmRecord, error) {
	args := m.Called(ctx, creds, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.CrmRecord), args.Error(1)
}

// MockWarehouseSink is a mock implementation of WarehouseSink
type MockWarehouseSink struct {
	mock.Mock
}

func (m *MockWarehouseSink) InsertRecord(ctx context.Context, record models.CrmRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, creds models.NotifierCredentials, msg models.NotificationMessage) (string, error) {
	args := m.Called(ctx, creds, msg)
	return args.String(0), args.Error(1)
}
