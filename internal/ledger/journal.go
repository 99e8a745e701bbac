package ledger

import "github.com/grachmannico95/payments-ledger/internal/domain"

// Journal keeps every accepted deposit and withdrawal, keyed by client and
// then transaction id. Entries are never removed.
type Journal struct {
	entries map[domain.ClientID]map[domain.TransactionID]domain.TransactionEvent
	size    int
}

func NewJournal() *Journal {
	return &Journal{
		entries: make(map[domain.ClientID]map[domain.TransactionID]domain.TransactionEvent),
	}
}

func (j *Journal) Record(event domain.TransactionEvent) {
	txs, ok := j.entries[event.Client]
	if !ok {
		txs = make(map[domain.TransactionID]domain.TransactionEvent)
		j.entries[event.Client] = txs
	}
	if _, exists := txs[event.Tx]; !exists {
		j.size++
	}
	txs[event.Tx] = event
}

func (j *Journal) Lookup(client domain.ClientID, tx domain.TransactionID) (domain.TransactionEvent, bool) {
	event, ok := j.entries[client][tx]
	return event, ok
}

func (j *Journal) Len() int {
	return j.size
}
