package genesis

import (
	"time"

	"medledger/core/ledger"
)

// NodeConfig is a founding network member in the genesis config.
type NodeConfig struct {
	NodeID    string `json:"nodeId"`
	OrgName   string `json:"orgName"`
	PubKeyHex string `json:"pubKeyHex"`
	Endpoint  string `json:"endpoint"`
}

// InitialParams holds chain parameters in the genesis config.
type InitialParams struct {
	ProtocolVersion   string `json:"protocolVersion"`
	BlockTimeMs       int    `json:"blockTimeMs,omitempty"`
	MaxBlockTxs       int    `json:"maxBlockTxs,omitempty"`
	ConfirmationDepth int    `json:"confirmationDepth,omitempty"`
}

// Config is the full genesis configuration schema.
type Config struct {
	ChainID       string        `json:"chainId"`
	GenesisTime   time.Time     `json:"genesisTime"`
	InitialNodes  []NodeConfig  `json:"initialNodes"`
	InitialParams InitialParams `json:"initialParams"`
}

// Nodes converts the founding members to ledger Nodes, active from the
// genesis timestamp.
func (c *Config) Nodes() []ledger.Node {
	active := true
	joined := c.GenesisTime.UTC().Format(time.RFC3339)
	nodes := make([]ledger.Node, 0, len(c.InitialNodes))
	for _, n := range c.InitialNodes {
		nodes = append(nodes, ledger.Node{
			NodeID:    n.NodeID,
			OrgName:   n.OrgName,
			PubKeyHex: n.PubKeyHex,
			Endpoint:  n.Endpoint,
			JoinedAt:  joined,
			Active:    &active,
		})
	}
	return nodes
}
