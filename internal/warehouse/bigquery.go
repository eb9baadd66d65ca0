package warehouse

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"

	"github.com/sfsync/sfsync-api/internal/models"
	apperrors "github.com/sfsync/sfsync-api/pkg/errors"
	"github.com/sfsync/sfsync-api/pkg/logger"
	"github.com/sfsync/sfsync-api/pkg/metrics"
)

// inserter abstracts *bigquery.Inserter so the sink can be tested without a
// live BigQuery connection.
type inserter interface {
	Put(ctx context.Context, src interface{}) error
}

// Sink streams CRM records into a BigQuery table. Inserts are append-only:
// the same record id may be streamed many times and every invocation adds a
// new row.
type Sink struct {
	inserter  inserter
	datasetID string
	tableID   string
}

// NewSink creates a sink writing to the given dataset and table
func NewSink(client *bigquery.Client, datasetID, tableID string) *Sink {
	return &Sink{
		inserter:  client.Dataset(datasetID).Table(tableID).Inserter(),
		datasetID: datasetID,
		tableID:   tableID,
	}
}

// Row is one streaming insert payload built from a CRM record's fields.
type Row struct {
	Fields map[string]bigquery.Value
}

// Save implements bigquery.ValueSaver. NoDedupeID disables best-effort
// deduplication so repeated deliveries of the same record append rows.
func (r Row) Save() (map[string]bigquery.Value, string, error) {
	return r.Fields, bigquery.NoDedupeID, nil
}

// InsertRecord streams one record into the table. Row-level failures are
// collected into an InsertError; callers decide whether the failure is fatal.
func (s *Sink) InsertRecord(ctx context.Context, record models.CrmRecord) error {
	start := time.Now()

	row := Row{Fields: make(map[string]bigquery.Value)}
	for name, value := range record.Fields() {
		row.Fields[name] = value
	}

	err := s.inserter.Put(ctx, row)
	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.WarehouseInsertTotal.WithLabelValues("error").Inc()
		logger.LogAPICall("bigquery", "insert", "error", duration,
			zap.String("dataset", s.datasetID),
			zap.String("table", s.tableID),
			zap.String("record_id", record.ID()),
			zap.Error(err))
		return classifyPutError(err)
	}

	metrics.WarehouseInsertTotal.WithLabelValues("success").Inc()
	logger.LogAPICall("bigquery", "insert", "success", duration,
		zap.String("dataset", s.datasetID),
		zap.String("table", s.tableID),
		zap.String("record_id", record.ID()))

	return nil
}

func classifyPutError(err error) error {
	multiErr, ok := err.(bigquery.PutMultiError)
	if !ok {
		return &apperrors.InsertError{RowErrors: []string{err.Error()}}
	}

	rowErrors := make([]string, 0, len(multiErr))
	for _, rowErr := range multiErr {
		for _, e := range rowErr.Errors {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: %v", rowErr.RowIndex, e))
		}
	}

	return &apperrors.InsertError{RowErrors: rowErrors}
}
