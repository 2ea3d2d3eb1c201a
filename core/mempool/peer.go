package mempool

import "sync"

// Peer is a gossip peer: a network member node reachable at its
// websocket endpoint.
type Peer struct {
	NodeID   string // nodeId from the member's NODE_JOIN
	Endpoint string // ws:// or wss:// URL
}

// PeerSet manages the set of peers for the gossip layer.
type PeerSet struct {
	mu    sync.Mutex
	peers map[string]Peer // NodeID -> Peer
}

// NewPeerSet creates a new empty PeerSet.
func NewPeerSet() *PeerSet {
	return &PeerSet{peers: make(map[string]Peer)}
}

// AddPeer adds or updates a peer.
func (ps *PeerSet) AddPeer(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.peers[peer.NodeID] = peer
}

// RemovePeer removes a peer by nodeId.
func (ps *PeerSet) RemovePeer(nodeID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.peers, nodeID)
}

// GetPeer returns a peer by nodeId.
func (ps *PeerSet) GetPeer(nodeID string) (Peer, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	peer, ok := ps.peers[nodeID]
	return peer, ok
}

// ListPeers returns a slice of all peers.
func (ps *PeerSet) ListPeers() []Peer {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	peers := make([]Peer, 0, len(ps.peers))
	for _, peer := range ps.peers {
		peers = append(peers, peer)
	}
	return peers
}
