package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/grachmannico95/payments-ledger/internal/eventbus"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
)

var errHeaderRow = errors.New("header row")

// Publisher is the part of the event bus the processor needs.
type Publisher interface {
	Publish(ctx context.Context, event eventbus.Event) error
}

// IngestStats counts the records read from one stream.
type IngestStats struct {
	Rows      int
	Published int
	Skipped   int
}

type CSVProcessorInterface interface {
	ProcessStream(ctx context.Context, batchID string, reader io.Reader) (IngestStats, error)
}

// CSVProcessor parses `type, client, tx, amount` records and publishes each
// valid one as a transaction event, in file order. Types are matched exactly
// after trimming, so `Deposit` is an unknown type.
type CSVProcessor struct {
	publisher Publisher
	logger    *logger.Logger
}

func NewCSVProcessor(publisher Publisher, log *logger.Logger) *CSVProcessor {
	return &CSVProcessor{
		publisher: publisher,
		logger:    log,
	}
}

// ProcessStream reads until EOF. Malformed records are skipped; only a
// failing reader or a cancelled context stop it early.
func (p *CSVProcessor) ProcessStream(ctx context.Context, batchID string, reader io.Reader) (IngestStats, error) {
	ctx = logger.WithBatchID(ctx, batchID)

	p.logger.Debug(ctx, "Starting CSV processing")

	csvReader := csv.NewReader(reader)
	csvReader.ReuseRecord = true
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	var stats IngestStats
	lineNumber := 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}

		lineNumber++

		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return stats, fmt.Errorf("read line %d: %w", lineNumber, err)
			}
			p.logger.Debug(ctx, "Skipping malformed CSV line",
				"line", lineNumber,
				"error", err,
			)
			stats.Rows++
			stats.Skipped++
			continue
		}

		stats.Rows++

		event, err := parseTransaction(record)
		if err != nil {
			p.logger.Debug(ctx, "Skipping record",
				"line", lineNumber,
				"error", err,
			)
			stats.Skipped++
			continue
		}

		err = p.publisher.Publish(ctx, eventbus.Event{
			ID:   fmt.Sprintf("%s-%d", batchID, lineNumber),
			Type: eventbus.EventTypeTransaction,
			Payload: eventbus.TransactionPayload{
				BatchID:    batchID,
				Event:      event,
				LineNumber: lineNumber,
			},
			Timestamp: time.Now(),
		})
		if err != nil {
			p.logger.Error(ctx, "Failed to publish event",
				"line", lineNumber,
				"error", err,
			)
			stats.Skipped++
			continue
		}

		stats.Published++
	}

	p.logger.Debug(ctx, "CSV processing completed",
		"rows", stats.Rows,
		"published", stats.Published,
		"skipped", stats.Skipped,
	)

	return stats, nil
}

func parseTransaction(record []string) (domain.TransactionEvent, error) {
	if len(record) < 3 {
		return domain.TransactionEvent{}, fmt.Errorf("invalid record format: expected at least 3 fields, got %d", len(record))
	}

	rawType := strings.TrimSpace(record[0])
	if rawType == "type" {
		return domain.TransactionEvent{}, errHeaderRow
	}

	eventType, ok := domain.ParseEventType(rawType)
	if !ok {
		return domain.TransactionEvent{}, fmt.Errorf("unknown transaction type: %q", rawType)
	}

	client, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 16)
	if err != nil {
		return domain.TransactionEvent{}, fmt.Errorf("invalid client: %w", err)
	}

	tx, err := strconv.ParseUint(strings.TrimSpace(record[2]), 10, 32)
	if err != nil {
		return domain.TransactionEvent{}, fmt.Errorf("invalid tx: %w", err)
	}

	event := domain.TransactionEvent{
		Type:   eventType,
		Client: domain.ClientID(client),
		Tx:     domain.TransactionID(tx),
	}

	if !eventType.CarriesAmount() {
		return event, nil
	}

	if len(record) < 4 || strings.TrimSpace(record[3]) == "" {
		return domain.TransactionEvent{}, fmt.Errorf("missing amount for %s", eventType)
	}

	amount, err := domain.ParseAmount(strings.TrimSpace(record[3]))
	if err != nil {
		return domain.TransactionEvent{}, err
	}
	event.Amount = amount

	return event, nil
}
