package genesis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"medledger/core"
	"medledger/core/ledger"
)

// LoadConfig loads the genesis config from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read genesis config")
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "could not parse genesis config")
	}
	if cfg.ChainID == "" {
		return nil, errors.New("genesis config missing chainId")
	}
	if len(cfg.InitialNodes) == 0 {
		return nil, errors.New("genesis config lists no initial nodes")
	}
	return &cfg, nil
}

// Build constructs the height-0 block from a loaded config and runs it
// through schema validation before returning it, so a malformed config
// can never seed a chain.
func Build(cfg *Config) (*ledger.Block, error) {
	nodes := cfg.Nodes()
	for i := range nodes {
		if err := ledger.ValidateNode(fmt.Sprintf("initialNodes[%d]", i), &nodes[i]); err != nil {
			return nil, errors.Wrap(err, "genesis config lists an invalid node")
		}
	}
	seed := sha256.Sum256([]byte(cfg.ChainID))
	b := &ledger.Block{
		Height:     ledger.GenesisHeight,
		Timestamp:  cfg.GenesisTime.UTC().Format(time.RFC3339),
		PrevHash:   nil, // only height 0 may omit the parent hash
		MerkleRoot: ledger.TxMerkleRoot(nil),
		ConsensusData: ledger.ConsensusData{
			Epoch:       0,
			Proposer:    cfg.InitialNodes[0].NodeID,
			Seed:        hex.EncodeToString(seed[:]),
			Importance:  0,
			ProposerSig: strings.Repeat("0", ledger.SigHexLen), // genesis carries no real proposer signature
		},
		Txs: []ledger.Tx{},
	}
	b.BlockHash = core.HashBlock(b)
	if err := b.Validate(); err != nil {
		return nil, errors.Wrap(err, "genesis block failed validation")
	}
	log.WithFields(log.Fields{
		"chainId":   cfg.ChainID,
		"blockHash": b.BlockHash,
		"nodes":     len(cfg.InitialNodes),
	}).Info("genesis block built")
	return b, nil
}
