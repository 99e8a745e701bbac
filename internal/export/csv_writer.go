package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/grachmannico95/payments-ledger/internal/domain"
)

// Exporter writes the final account snapshot of a batch somewhere.
type Exporter interface {
	Export(ctx context.Context, batchID string, accounts []domain.Account) error
}

var csvHeader = []string{"client", "available", "held", "total", "locked"}

// CSVWriter renders accounts as CSV, one row per client, sorted by client id.
type CSVWriter struct {
	w io.Writer
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

func (c *CSVWriter) Export(ctx context.Context, batchID string, accounts []domain.Account) error {
	writer := csv.NewWriter(c.w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, account := range SortByClient(accounts) {
		record := []string{
			strconv.FormatUint(uint64(account.Client), 10),
			domain.FormatMoney(account.Available),
			domain.FormatMoney(account.Held),
			domain.FormatMoney(account.Total),
			strconv.FormatBool(account.Locked),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write account %d: %w", account.Client, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SortByClient returns a copy of accounts ordered by client id.
func SortByClient(accounts []domain.Account) []domain.Account {
	sorted := make([]domain.Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Client < sorted[j].Client
	})
	return sorted
}
