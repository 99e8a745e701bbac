package export

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
	"github.com/grachmannico95/payments-ledger/pkg/retry"
)

const batchesBucket = "batches"

// BoltArchive stores final account snapshots in a bolt file, one nested
// bucket per batch keyed by client id. It is written at batch end and never
// read back into a running ledger.
type BoltArchive struct {
	db     *bolt.DB
	logger *logger.Logger
}

// OpenBoltArchive opens or creates the archive at path. Another process
// holding the file lock makes bolt time out, which is retried.
func OpenBoltArchive(ctx context.Context, path string, attempts int, log *logger.Logger) (*BoltArchive, error) {
	var db *bolt.DB

	err := retry.Do(ctx, func() error {
		var openErr error
		db, openErr = bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
		return openErr
	},
		retry.WithMaxAttempts(attempts),
		retry.WithRetryIf(func(err error) bool { return errors.Is(err, bolt.ErrTimeout) }),
	)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(batchesBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive %s: %w", path, err)
	}

	return &BoltArchive{db: db, logger: log}, nil
}

func (a *BoltArchive) Close() error {
	return a.db.Close()
}

// Export replaces any snapshot previously archived under batchID.
func (a *BoltArchive) Export(ctx context.Context, batchID string, accounts []domain.Account) error {
	err := a.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(batchesBucket))

		if err := root.DeleteBucket([]byte(batchID)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}

		b, err := root.CreateBucket([]byte(batchID))
		if err != nil {
			return err
		}

		for _, account := range accounts {
			value, err := json.Marshal(account)
			if err != nil {
				return err
			}
			if err := b.Put(clientKey(account.Client), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive batch %s: %w", batchID, err)
	}

	a.logger.Info(ctx, "Batch snapshot archived",
		"accounts", len(accounts),
	)
	return nil
}

// load returns the archived accounts of batchID ordered by client id.
func (a *BoltArchive) load(batchID string) ([]domain.Account, error) {
	accounts := []domain.Account{}

	err := a.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(batchesBucket)).Bucket([]byte(batchID))
		if b == nil {
			return domain.ErrBatchNotFound
		}
		return b.ForEach(func(_, v []byte) error {
			var account domain.Account
			if err := json.Unmarshal(v, &account); err != nil {
				return err
			}
			accounts = append(accounts, account)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (a *BoltArchive) batchIDs() ([]string, error) {
	var ids []string

	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(batchesBucket)).ForEach(func(k, v []byte) error {
			if v == nil {
				ids = append(ids, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// clientKey is big-endian so bolt's byte ordering matches client order.
func clientKey(client domain.ClientID) []byte {
	key := make([]byte, 2)
	binary.BigEndian.PutUint16(key, uint16(client))
	return key
}
