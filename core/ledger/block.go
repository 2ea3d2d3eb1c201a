package ledger

import (
	"encoding/json"
	"fmt"
)

// GenesisHeight is the only height allowed to omit prevHash.
const GenesisHeight = 0

// ConsensusData is the consensus-round metadata carried in a block
// header. It is consumed by the proposer-selection algorithm; this
// package checks shape only.
type ConsensusData struct {
	Epoch       int64   `json:"epoch"`
	Proposer    string  `json:"proposer"`
	Seed        string  `json:"seed"`
	Importance  float64 `json:"importance"`
	ProposerSig string  `json:"proposerSig"`
}

// Block groups an ordered transaction sequence under a header. The
// merkleRoot and blockHash are derived by the hashing collaborator;
// validation asserts their hex shape, never their consistency with
// the transaction sequence.
type Block struct {
	Height        int64         `json:"height"`
	Timestamp     string        `json:"timestamp"`
	PrevHash      *string       `json:"prevHash"` // null only at genesis
	MerkleRoot    string        `json:"merkleRoot"`
	ConsensusData ConsensusData `json:"consensusData"`
	Txs           []Tx          `json:"txs"`
	BlockHash     string        `json:"blockHash,omitempty"` // filled after hashing
}

// ValidateBlock decodes untrusted bytes into a block and validates the
// header, the consensus metadata and every transaction in sequence
// order, short-circuiting on the first invalid one.
func ValidateBlock(data []byte) (*Block, error) {
	var b Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, rejectf("", "not a decodable block: %v", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks the block envelope and each contained transaction.
func (b *Block) Validate() error {
	if b.Height < 0 {
		return rejectf("height", "must not be negative")
	}
	if err := checkTimestamp("timestamp", b.Timestamp); err != nil {
		return err
	}
	// prevHash is null exactly at the genesis height, never elsewhere.
	if b.PrevHash == nil {
		if b.Height != GenesisHeight {
			return rejectf("prevHash", "is required above height %d", GenesisHeight)
		}
	} else {
		if b.Height == GenesisHeight {
			return rejectf("prevHash", "must be null at the genesis height")
		}
		if err := checkHexN("prevHash", *b.PrevHash, HashHexLen); err != nil {
			return err
		}
	}
	if err := checkHexN("merkleRoot", b.MerkleRoot, HashHexLen); err != nil {
		return err
	}
	if err := b.ConsensusData.validate("consensusData"); err != nil {
		return err
	}
	if b.BlockHash != "" {
		if err := checkHexN("blockHash", b.BlockHash, HashHexLen); err != nil {
			return err
		}
	}
	for i := range b.Txs {
		if err := b.Txs[i].validate(fmt.Sprintf("txs[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (cd *ConsensusData) validate(prefix string) error {
	if cd.Epoch < 0 {
		return rejectf(joinPath(prefix, "epoch"), "must not be negative")
	}
	if err := checkNonEmpty(joinPath(prefix, "proposer"), cd.Proposer); err != nil {
		return err
	}
	if err := checkHexN(joinPath(prefix, "seed"), cd.Seed, HashHexLen); err != nil {
		return err
	}
	if cd.Importance < 0 {
		return rejectf(joinPath(prefix, "importance"), "must not be negative")
	}
	return checkHexN(joinPath(prefix, "proposerSig"), cd.ProposerSig, SigHexLen)
}
