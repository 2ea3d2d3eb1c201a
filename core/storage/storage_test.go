package storage

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medledger/core/ledger"
)

func testStore(t *testing.T) *Storage {
	t.Helper()
	t.Setenv("MEDLEDGER_DEK", base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32))))
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func storedBlock(height int64, hash string) *ledger.Block {
	prev := strings.Repeat("aa", 32)
	b := &ledger.Block{
		Height:     height,
		Timestamp:  "2025-06-01T10:00:00Z",
		MerkleRoot: strings.Repeat("bb", 32),
		ConsensusData: ledger.ConsensusData{
			Proposer: "n-1", Seed: strings.Repeat("cc", 32),
			ProposerSig: strings.Repeat("dd", 64),
		},
		BlockHash: hash,
	}
	if height != ledger.GenesisHeight {
		b.PrevHash = &prev
	}
	return b
}

func TestSaveAndLoadBlock(t *testing.T) {
	s := testStore(t)
	hash := strings.Repeat("12", 32)
	require.NoError(t, s.SaveBlock(storedBlock(0, hash)))

	got, err := s.GetBlock(hash)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Height)
	assert.Equal(t, hash, got.BlockHash)

	byHeight, err := s.GetBlockByHeight(0)
	require.NoError(t, err)
	assert.Equal(t, hash, byHeight.BlockHash)

	has, err := s.HasGenesisBlock()
	require.NoError(t, err)
	assert.True(t, has)

	err = s.SaveBlock(&ledger.Block{Height: 1})
	assert.Error(t, err, "block without blockHash must be refused")
}

func TestTipAdvances(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveBlock(storedBlock(0, strings.Repeat("12", 32))))
	require.NoError(t, s.SaveBlock(storedBlock(1, strings.Repeat("34", 32))))

	height, hash, err := s.Tip()
	require.NoError(t, err)
	assert.Equal(t, int64(1), height)
	assert.Equal(t, strings.Repeat("34", 32), hash)
}

func TestConsentIndex(t *testing.T) {
	s := testStore(t)
	b := storedBlock(0, strings.Repeat("12", 32))
	b.Txs = []ledger.Tx{{
		Type: ledger.TxConsentGrant,
		CommonTx: ledger.CommonTx{
			Hospital:  &ledger.Party{ID: "hosp-1", Name: "St. Jude"},
			Patient:   &ledger.Party{ID: "p-1", Name: "Ana"},
			Timestamp: "2025-06-01T10:00:00Z",
		},
		Consent: &ledger.Consent{
			ConsentTxID: "ct-1", PatientID: "p-1", DoctorID: "d-1",
			Scope: []string{"Diagnosis"}, ExpiresAt: "2026-01-01T00:00:00Z",
		},
	}}
	require.NoError(t, s.SaveBlock(b))

	has, err := s.HasConsent("ct-1")
	require.NoError(t, err)
	assert.True(t, has)

	c, err := s.GetConsent("ct-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Diagnosis"}, c.Scope)

	has, err = s.HasConsent("ct-missing")
	require.NoError(t, err)
	assert.False(t, has)
}
