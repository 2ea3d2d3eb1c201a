package mempool

import (
	"sync"
	"time"

	"medledger/core/ledger"
)

// Mempool manages validated pending transactions for gossip and block
// inclusion. Only transactions that already passed schema validation
// and carry a txId are admitted.
type Mempool struct {
	mu          sync.Mutex
	txs         map[string]ledger.Tx // txId -> Tx
	order       []string             // FIFO order for eviction
	maxTxs      int
	ExpiredPool *ExpiredTxPool
}

// NewMempool creates a new mempool with a maximum size.
func NewMempool(maxTxs int) *Mempool {
	return &Mempool{
		txs:         make(map[string]ledger.Tx),
		order:       make([]string, 0),
		maxTxs:      maxTxs,
		ExpiredPool: NewExpiredTxPool(),
	}
}

// AddTx adds a transaction to the pool (returns false if duplicate,
// unsigned, or evicting failed).
func (mp *Mempool) AddTx(tx ledger.Tx) bool {
	if tx.TxID == "" {
		return false
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if _, exists := mp.txs[tx.TxID]; exists {
		return false
	}
	if len(mp.txs) >= mp.maxTxs {
		oldest := mp.order[0]
		delete(mp.txs, oldest)
		mp.order = mp.order[1:]
	}
	mp.txs[tx.TxID] = tx
	mp.order = append(mp.order, tx.TxID)
	return true
}

// RemoveTx removes a transaction by txId.
func (mp *Mempool) RemoveTx(txID string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if _, exists := mp.txs[txID]; !exists {
		return
	}
	delete(mp.txs, txID)
	for i, id := range mp.order {
		if id == txID {
			mp.order = append(mp.order[:i], mp.order[i+1:]...)
			break
		}
	}
}

// GetTx returns a transaction by txId.
func (mp *Mempool) GetTx(txID string) (ledger.Tx, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	tx, ok := mp.txs[txID]
	return tx, ok
}

// ListTxs returns all pending transactions in FIFO order.
func (mp *Mempool) ListTxs() []ledger.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make([]ledger.Tx, 0, len(mp.txs))
	for _, id := range mp.order {
		out = append(out, mp.txs[id])
	}
	return out
}

// Size returns the number of pending transactions.
func (mp *Mempool) Size() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.txs)
}

// ExpireConsents moves CONSENT_GRANT transactions whose consent has
// lapsed into the expired pool. Lookup of consents already on chain is
// the storage layer's concern; this only prunes the pending set.
func (mp *Mempool) ExpireConsents(now time.Time) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	expired := 0
	for id, tx := range mp.txs {
		if tx.Type != ledger.TxConsentGrant || tx.Consent == nil {
			continue
		}
		exp, err := time.Parse(time.RFC3339, tx.Consent.ExpiresAt)
		if err != nil || !exp.Before(now) {
			continue
		}
		mp.ExpiredPool.AddExpiredTx(ExpiredTx{
			TxID:      id,
			Tx:        tx,
			ExpiredAt: now,
			Reason:    "consent expired before inclusion",
		})
		delete(mp.txs, id)
		for i, oid := range mp.order {
			if oid == id {
				mp.order = append(mp.order[:i], mp.order[i+1:]...)
				break
			}
		}
		expired++
	}
	return expired
}
