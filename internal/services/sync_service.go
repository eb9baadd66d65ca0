package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sfsync/sfsync-api/internal/models"
	"github.com/sfsync/sfsync-api/internal/notifier"
	apperrors "github.com/sfsync/sfsync-api/pkg/errors"
	"github.com/sfsync/sfsync-api/pkg/logger"
	"github.com/sfsync/sfsync-api/pkg/metrics"
)

// Pipeline stage names used in metrics labels
const (
	stageParse   = "parse"
	stageSecrets = "secrets"
	stageFetch   = "fetch"
	stageInsert  = "insert"
	stageNotify  = "notify"
)

// Pipeline run outcomes
const (
	outcomeSuccess = "success"
	outcomePartial = "partial"
	outcomeError   = "error"
)

// SyncService orchestrates the webhook pipeline: parse the trigger payload,
// resolve credentials, fetch the record, stream it to the warehouse and send
// the confirmation email. Parse, secrets and fetch failures abort the run;
// insert and notify failures are logged and the run still reports success.
type SyncService struct {
	secrets    SecretProvider
	fetcher    RecordFetcher
	sink       WarehouseSink
	notifier   Notifier
	recipients []string
}

// SyncResult reports one pipeline run. When a fatal stage fails after parsing
// it is still returned alongside the error so callers know which record was
// involved. InsertErr and NotifyErr are non-nil when those stages failed
// without aborting the run.
type SyncResult struct {
	RecordID  string
	MessageID string
	InsertErr error
	NotifyErr error
}

// NewSyncService creates the pipeline orchestrator
func NewSyncService(secrets SecretProvider, fetcher RecordFetcher, sink WarehouseSink, n Notifier, recipients []string) *SyncService {
	return &SyncService{
		secrets:    secrets,
		fetcher:    fetcher,
		sink:       sink,
		notifier:   n,
		recipients: recipients,
	}
}

// ProcessNotification runs the full pipeline on a raw webhook body
func (s *SyncService) ProcessNotification(ctx context.Context, payload []byte) (*SyncResult, error) {
	recordID, err := s.parsePayload(payload)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues(outcomeError).Inc()
		return nil, err
	}

	log := logger.With(zap.String("record_id", recordID))
	log.Info("Processing sync notification")

	result := &SyncResult{RecordID: recordID}

	bundle, err := s.resolveSecrets(ctx)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues(outcomeError).Inc()
		return result, err
	}

	record, err := s.fetchRecord(ctx, bundle.Salesforce, recordID)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues(outcomeError).Inc()
		return result, err
	}

	// Insert and notify run regardless of each other's outcome; their
	// failures never abort the pipeline.
	if err := s.insertRecord(ctx, record); err != nil {
		log.Error("Warehouse insert failed", zap.Error(err))
		result.InsertErr = err
	}

	messageID, err := s.sendNotification(ctx, bundle.Notifier, record)
	if err != nil {
		log.Error("Notification send failed", zap.Error(err))
		result.NotifyErr = err
	} else {
		result.MessageID = messageID
	}

	if result.InsertErr != nil || result.NotifyErr != nil {
		metrics.PipelineRuns.WithLabelValues(outcomePartial).Inc()
	} else {
		metrics.PipelineRuns.WithLabelValues(outcomeSuccess).Inc()
	}

	log.Info("Sync notification processed",
		zap.Bool("inserted", result.InsertErr == nil),
		zap.Bool("notified", result.NotifyErr == nil))

	return result, nil
}

// parsePayload extracts the record id from the trigger body
func (s *SyncService) parsePayload(payload []byte) (string, error) {
	start := time.Now()

	var notification models.SyncNotification
	if err := json.Unmarshal(payload, &notification); err != nil {
		s.observeStage(stageParse, start, err)
		return "", apperrors.MalformedPayloadError(err)
	}

	if notification.RecordID == "" {
		err := apperrors.MissingFieldError("recordId")
		s.observeStage(stageParse, start, err)
		return "", err
	}

	s.observeStage(stageParse, start, nil)
	return notification.RecordID, nil
}

func (s *SyncService) resolveSecrets(ctx context.Context) (*models.CredentialBundle, error) {
	start := time.Now()
	bundle, err := s.secrets.Resolve(ctx)
	s.observeStage(stageSecrets, start, err)
	return bundle, err
}

func (s *SyncService) fetchRecord(ctx context.Context, creds models.SalesforceCredentials, recordID string) (models.CrmRecord, error) {
	start := time.Now()
	record, err := s.fetcher.FetchRecord(ctx, creds, recordID)
	s.observeStage(stageFetch, start, err)
	return record, err
}

func (s *SyncService) insertRecord(ctx context.Context, record models.CrmRecord) error {
	start := time.Now()
	err := s.sink.InsertRecord(ctx, record)
	s.observeStage(stageInsert, start, err)
	return err
}

func (s *SyncService) sendNotification(ctx context.Context, creds models.NotifierCredentials, record models.CrmRecord) (string, error) {
	start := time.Now()
	msg := notifier.BuildMessage(record, s.recipients)
	messageID, err := s.notifier.Send(ctx, creds, msg)
	s.observeStage(stageNotify, start, err)
	return messageID, err
}

func (s *SyncService) observeStage(stage string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := metrics.MeasureDuration(start)
	metrics.PipelineStageDuration.WithLabelValues(stage, status).Observe(duration)
	metrics.PipelineStageTotal.WithLabelValues(stage, status).Inc()
}
