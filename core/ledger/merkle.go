package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MerkleRoot computes the merkle root of a list of hex hashes. An odd
// node is hashed with itself; an empty list yields an empty string.
func MerkleRoot(hashes []string) string {
	n := len(hashes)
	if n == 0 {
		return ""
	}
	for n > 1 {
		var next []string
		for i := 0; i < n; i += 2 {
			h := sha256.New()
			h.Write([]byte(hashes[i]))
			if i+1 < n {
				h.Write([]byte(hashes[i+1]))
			} else {
				h.Write([]byte(hashes[i]))
			}
			next = append(next, hex.EncodeToString(h.Sum(nil)))
		}
		hashes = next
		n = len(hashes)
	}
	return hashes[0]
}

// TxMerkleRoot computes the merkle root over a block's transaction ids,
// canonicalized to lowercase. An empty sequence gets the hash of no
// input, so every block header carries a well-formed root. The result
// belongs in Block.MerkleRoot; whether it matches is the proposer's
// concern, not the validator's.
func TxMerkleRoot(txs []Tx) string {
	if len(txs) == 0 {
		empty := sha256.Sum256(nil)
		return hex.EncodeToString(empty[:])
	}
	ids := make([]string, 0, len(txs))
	for i := range txs {
		ids = append(ids, strings.ToLower(txs[i].TxID))
	}
	return MerkleRoot(ids)
}
