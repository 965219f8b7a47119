package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	pkgbigquery "github.com/campusfind/campusfind-backend/pkg/bigquery"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// WriterConfig controls the analytics writer behavior.
type WriterConfig struct {
	ItemEventsTable  string
	MatchEventsTable string
	BatchSize        int
	RetryPolicy      RetryPolicy
}

// RetryPolicy controls how many times BigQuery inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter inserts analytics rows into BigQuery with retries and
// optional batching.
type BigQueryWriter struct {
	client          tableInserter
	itemTable       string
	matchTable      string
	batchSize       int
	retry           RetryPolicy
	itemRowsBuffer  []ItemEventRow
	matchRowsBuffer []MatchEventRow
}

// NewWriter creates a BigQueryWriter backed by a shared client.
func NewWriter(client *pkgbigquery.Client, cfg WriterConfig) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	return newWriter(client, cfg)
}

func newWriter(client tableInserter, cfg WriterConfig) (*BigQueryWriter, error) {
	itemTable := strings.TrimSpace(cfg.ItemEventsTable)
	if itemTable == "" {
		return nil, errors.New("item events table is required")
	}
	matchTable := strings.TrimSpace(cfg.MatchEventsTable)
	if matchTable == "" {
		return nil, errors.New("match events table is required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	retry := cfg.RetryPolicy
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &BigQueryWriter{
		client:     client,
		itemTable:  itemTable,
		matchTable: matchTable,
		batchSize:  batchSize,
		retry:      retry,
	}, nil
}

// InsertItemEvent writes a single item event row (flushes when batch size reached).
func (w *BigQueryWriter) InsertItemEvent(ctx context.Context, row ItemEventRow) error {
	w.itemRowsBuffer = append(w.itemRowsBuffer, row)
	if len(w.itemRowsBuffer) >= w.batchSize {
		return w.flushItemEvents(ctx)
	}
	return nil
}

// InsertMatchEvent writes a single match event row (flushes when batch size reached).
func (w *BigQueryWriter) InsertMatchEvent(ctx context.Context, row MatchEventRow) error {
	w.matchRowsBuffer = append(w.matchRowsBuffer, row)
	if len(w.matchRowsBuffer) >= w.batchSize {
		return w.flushMatchEvents(ctx)
	}
	return nil
}

// Flush writes any buffered rows immediately.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	if err := w.flushItemEvents(ctx); err != nil {
		return err
	}
	return w.flushMatchEvents(ctx)
}

func (w *BigQueryWriter) flushItemEvents(ctx context.Context) error {
	if len(w.itemRowsBuffer) == 0 {
		return nil
	}
	rows := make([]any, len(w.itemRowsBuffer))
	for i := range w.itemRowsBuffer {
		rows[i] = &w.itemRowsBuffer[i]
	}
	if err := w.insertWithRetry(ctx, w.itemTable, rows); err != nil {
		return err
	}
	w.itemRowsBuffer = w.itemRowsBuffer[:0]
	return nil
}

func (w *BigQueryWriter) flushMatchEvents(ctx context.Context) error {
	if len(w.matchRowsBuffer) == 0 {
		return nil
	}
	rows := make([]any, len(w.matchRowsBuffer))
	for i := range w.matchRowsBuffer {
		rows[i] = &w.matchRowsBuffer[i]
	}
	if err := w.insertWithRetry(ctx, w.matchTable, rows); err != nil {
		return err
	}
	w.matchRowsBuffer = w.matchRowsBuffer[:0]
	return nil
}

func (w *BigQueryWriter) insertWithRetry(ctx context.Context, table string, rows []any) error {
	attempts := 0
	backoff := w.retry.InitialBackoff

	for {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		err := w.client.InsertRows(ctx, table, rows)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= w.retry.MaxAttempts || !isRetryableBigQueryError(err) {
			return fmt.Errorf("insert %s rows: %w", table, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		timer.Stop()

		if backoff*2 < w.retry.MaximumBackoff {
			backoff *= 2
		} else {
			backoff = w.retry.MaximumBackoff
		}
	}
}

func isRetryableBigQueryError(err error) bool {
	if err == nil {
		return false
	}

	var multi *cbigquery.MultiError
	if errors.As(err, &multi) {
		if multi == nil || len(*multi) == 0 {
			return false
		}
		for _, inner := range *multi {
			if !isRetryableBigQueryError(inner) {
				return false
			}
		}
		return true
	}

	var pme *cbigquery.PutMultiError
	if errors.As(err, &pme) {
		if pme == nil || len(*pme) == 0 {
			return false
		}
		for _, rowErr := range *pme {
			if !isRetryableBigQueryError(rowErr.Errors) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusRequestTimeout,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	return false
}

// encodeJSON serializes the raw payload for BigQuery JSON columns.
func encodeJSON(payload json.RawMessage) cbigquery.NullJSON {
	if len(payload) == 0 {
		return cbigquery.NullJSON{}
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(payload)}
}
