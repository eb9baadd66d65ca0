package services

import (
	"context"

	"github.com/sfsync/sfsync-api/internal/models"
)

// SyncProcessor is the pipeline entrypoint the HTTP handler depends on
type SyncProcessor interface {
	ProcessNotification(ctx context.Context, payload []byte) (*SyncResult, error)
}

// SecretProvider resolves the full credential bundle for one pipeline run
type SecretProvider interface {
	Resolve(ctx context.Context) (*models.CredentialBundle, error)
}

// RecordFetcher retrieves one CRM record by id using per-call credentials
type RecordFetcher interface {
	FetchRecord(ctx context.Context, creds models.SalesforceCredentials, recordID string) (models.CrmRecord, error)
}

// WarehouseSink streams a record into the analytics warehouse
type WarehouseSink interface {
	InsertRecord(ctx context.Context, record models.CrmRecord) error
}

// Notifier delivers a rendered notification message
type Notifier interface {
	Send(ctx context.Context, creds models.NotifierCredentials, msg models.NotificationMessage) (string, error)
}
