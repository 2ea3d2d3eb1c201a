package mempool

import (
	"sync"
	"time"

	"medledger/core/ledger"
)

// ExpiredTx is a transaction that left the mempool without being
// included in a block.
type ExpiredTx struct {
	TxID          string
	Tx            ledger.Tx
	ExpiredAt     time.Time
	Reason        string // e.g. "consent expired before inclusion"
	ResubmitCount int
}

// ExpiredTxPool is a thread-safe archive of expired transactions, kept
// so clients can inspect and resubmit.
type ExpiredTxPool struct {
	pool map[string]ExpiredTx
	lock sync.RWMutex
}

func NewExpiredTxPool() *ExpiredTxPool {
	return &ExpiredTxPool{pool: make(map[string]ExpiredTx)}
}

// AddExpiredTx adds an expired transaction to the pool.
func (e *ExpiredTxPool) AddExpiredTx(tx ExpiredTx) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.pool[tx.TxID] = tx
}

// GetExpiredTx retrieves an expired transaction by txId.
func (e *ExpiredTxPool) GetExpiredTx(txID string) (ExpiredTx, bool) {
	e.lock.RLock()
	defer e.lock.RUnlock()
	tx, ok := e.pool[txID]
	return tx, ok
}

// ListExpiredTxs returns all expired transactions.
func (e *ExpiredTxPool) ListExpiredTxs() []ExpiredTx {
	e.lock.RLock()
	defer e.lock.RUnlock()
	txs := make([]ExpiredTx, 0, len(e.pool))
	for _, tx := range e.pool {
		txs = append(txs, tx)
	}
	return txs
}
