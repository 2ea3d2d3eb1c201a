package core

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"medledger/core/ledger"
)

// Canonicalize lowercases every hex-carrying field of the transaction.
// The schema validator accepts mixed-case hex but never normalizes, so
// canonical form is established here before any hashing or signing.
func Canonicalize(tx *ledger.Tx) {
	tx.Signer = strings.ToLower(tx.Signer)
	tx.Sig = strings.ToLower(tx.Sig)
	tx.TxID = strings.ToLower(tx.TxID)
	if tx.PayloadHash != nil {
		lower := strings.ToLower(*tx.PayloadHash)
		tx.PayloadHash = &lower
	}
	if tx.User != nil {
		tx.User.PubKeyHex = strings.ToLower(tx.User.PubKeyHex)
	}
	if tx.Applicant != nil {
		tx.Applicant.PubKeyHex = strings.ToLower(tx.Applicant.PubKeyHex)
	}
	for i := range tx.Approvals {
		tx.Approvals[i].SigHex = strings.ToLower(tx.Approvals[i].SigHex)
	}
}

// canonicalTxBytes returns the canonical JSON of the transaction with
// the signing fields cleared, which is the exact payload that gets
// hashed and signed.
func canonicalTxBytes(tx *ledger.Tx) ([]byte, error) {
	unsigned := *tx
	unsigned.Signer = ""
	unsigned.Sig = ""
	unsigned.TxID = ""
	return json.Marshal(&unsigned)
}

// SignTx signs an unsigned transaction in place: it canonicalizes hex
// fields, signs the sha256 of the canonical payload, then computes the
// txId over the signed form.
func SignTx(pub ed25519.PublicKey, priv ed25519.PrivateKey, tx *ledger.Tx) error {
	if len(priv) != ed25519.PrivateKeySize {
		return errors.New("invalid Ed25519 private key size")
	}
	Canonicalize(tx)
	payload, err := canonicalTxBytes(tx)
	if err != nil {
		return errors.Wrap(err, "canonicalizing tx")
	}
	hash := sha256.Sum256(payload)
	tx.Signer = hex.EncodeToString(pub)
	tx.Sig = hex.EncodeToString(ed25519.Sign(priv, hash[:]))

	signed := *tx
	signed.TxID = ""
	signedBytes, err := json.Marshal(&signed)
	if err != nil {
		return errors.Wrap(err, "hashing signed tx")
	}
	id := sha256.Sum256(signedBytes)
	tx.TxID = hex.EncodeToString(id[:])
	return nil
}

// VerifyTxSignature checks that the transaction's sig was produced by
// its signer over the canonical payload, and that txId matches the
// signed form. Schema validation is separate and should run first.
func VerifyTxSignature(tx *ledger.Tx) error {
	pub, err := hex.DecodeString(tx.Signer)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return errors.New("signer is not a valid Ed25519 public key")
	}
	sig, err := hex.DecodeString(tx.Sig)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return errors.New("sig is not a valid Ed25519 signature")
	}
	payload, err := canonicalTxBytes(tx)
	if err != nil {
		return errors.Wrap(err, "canonicalizing tx")
	}
	hash := sha256.Sum256(payload)
	if !ed25519.Verify(ed25519.PublicKey(pub), hash[:], sig) {
		return errors.New("signature does not verify against signer")
	}
	signed := *tx
	signed.TxID = ""
	signedBytes, err := json.Marshal(&signed)
	if err != nil {
		return errors.Wrap(err, "hashing signed tx")
	}
	id := sha256.Sum256(signedBytes)
	if hex.EncodeToString(id[:]) != tx.TxID {
		return errors.New("txId does not match signed transaction")
	}
	return nil
}

// HashBlock computes the block hash over the header fields, excluding
// BlockHash itself. The result belongs in Block.BlockHash; the schema
// validator only ever checks its shape.
func HashBlock(b *ledger.Block) string {
	header := struct {
		Height        int64                `json:"height"`
		Timestamp     string               `json:"timestamp"`
		PrevHash      *string              `json:"prevHash"`
		MerkleRoot    string               `json:"merkleRoot"`
		ConsensusData ledger.ConsensusData `json:"consensusData"`
	}{
		b.Height, b.Timestamp, b.PrevHash, strings.ToLower(b.MerkleRoot), b.ConsensusData,
	}
	data, _ := json.Marshal(header)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
