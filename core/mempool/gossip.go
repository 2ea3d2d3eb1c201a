package mempool

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"medledger/core/ledger"
)

// GossipMessage is the wire form of a transaction gossip push.
type GossipMessage struct {
	Kind string    `json:"kind"` // currently always "tx"
	Tx   ledger.Tx `json:"tx"`
}

// GossipEngine pushes signed transactions to peer node endpoints over
// websocket. Call UpdatePeersFromSet to sync peers from a PeerSet.
type GossipEngine struct {
	mu      sync.Mutex
	peers   []Peer
	seenTxs map[string]struct{} // txId -> seen, for dedup
	mempool *Mempool
	dialer  *websocket.Dialer
}

// NewGossipEngine creates a gossip engine over the given peers.
func NewGossipEngine(peers []Peer, mp *Mempool) *GossipEngine {
	return &GossipEngine{
		peers:   peers,
		seenTxs: make(map[string]struct{}),
		mempool: mp,
		dialer:  &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}
}

// UpdatePeersFromSet replaces the engine's peer list from a PeerSet.
func (ge *GossipEngine) UpdatePeersFromSet(ps *PeerSet) {
	peers := ps.ListPeers()
	ge.mu.Lock()
	ge.peers = peers
	ge.mu.Unlock()
}

// BroadcastTx gossips a transaction to all peers. Already-seen txIds
// are dropped so gossip does not loop.
func (ge *GossipEngine) BroadcastTx(tx ledger.Tx) {
	ge.mu.Lock()
	if _, seen := ge.seenTxs[tx.TxID]; seen {
		ge.mu.Unlock()
		return
	}
	ge.seenTxs[tx.TxID] = struct{}{}
	peers := make([]Peer, len(ge.peers))
	copy(peers, ge.peers)
	ge.mu.Unlock()

	msg := GossipMessage{Kind: "tx", Tx: tx}
	for _, peer := range peers {
		conn, _, err := ge.dialer.Dial(peer.Endpoint, nil)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"txId": tx.TxID, "peer": peer.NodeID,
			}).Warn("gossip dial failed")
			continue
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"txId": tx.TxID, "peer": peer.NodeID,
			}).Warn("gossip send failed")
		}
		_ = conn.Close()
	}
}

// ReceiveTx handles a gossiped transaction from a peer: the raw bytes
// go through schema validation before the pool ever sees them.
func (ge *GossipEngine) ReceiveTx(raw []byte) (bool, error) {
	tx, err := ledger.ValidateTx(raw)
	if err != nil {
		return false, err
	}
	ge.mu.Lock()
	if _, seen := ge.seenTxs[tx.TxID]; seen {
		ge.mu.Unlock()
		return false, nil
	}
	ge.seenTxs[tx.TxID] = struct{}{}
	ge.mu.Unlock()
	added := ge.mempool.AddTx(*tx)
	if added {
		log.WithField("txId", tx.TxID).Debug("gossiped tx admitted to mempool")
	}
	return added, nil
}
