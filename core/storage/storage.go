package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	leveldbutil "github.com/syndtr/goleveldb/leveldb/util"

	"medledger/core/ledger"
)

// Storage is the LevelDB-backed chain store: blocks by hash with a
// height index, plus a consent index so the caller can perform the
// consentRef existence check that schema validation leaves to it.
type Storage struct {
	db *leveldb.DB
}

func NewStorage(path string) (*Storage, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %s", path)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func blockKey(blockHash string) []byte {
	return []byte("block:" + strings.ToLower(blockHash))
}

func heightKey(height int64) []byte {
	return []byte(fmt.Sprintf("height:%d", height))
}

func consentKey(consentTxID string) []byte {
	return []byte("consent:" + consentTxID)
}

// SaveBlock persists a validated block, indexes it by height, records
// any CONSENT_GRANT transactions it carries, and advances the tip if
// the block is higher. Block bytes are encrypted at rest.
func (s *Storage) SaveBlock(b *ledger.Block) error {
	if b.BlockHash == "" {
		return errors.New("refusing to store block without blockHash")
	}
	data, err := json.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "marshaling block")
	}
	enc, err := Encrypt(data)
	if err != nil {
		return errors.Wrap(err, "encrypting block")
	}
	batch := new(leveldb.Batch)
	batch.Put(blockKey(b.BlockHash), enc)
	batch.Put(heightKey(b.Height), []byte(strings.ToLower(b.BlockHash)))
	for i := range b.Txs {
		tx := &b.Txs[i]
		if tx.Type != ledger.TxConsentGrant || tx.Consent == nil {
			continue
		}
		consentData, err := json.Marshal(tx.Consent)
		if err != nil {
			return errors.Wrap(err, "marshaling consent")
		}
		batch.Put(consentKey(tx.Consent.ConsentTxID), consentData)
	}
	tipHeight, _, err := s.Tip()
	if err != nil || b.Height >= tipHeight {
		batch.Put([]byte("tip"), []byte(fmt.Sprintf("%d:%s", b.Height, strings.ToLower(b.BlockHash))))
	}
	return s.db.Write(batch, nil)
}

// GetBlock loads a block by its hash.
func (s *Storage) GetBlock(blockHash string) (*ledger.Block, error) {
	enc, err := s.db.Get(blockKey(blockHash), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "block %s not found", blockHash)
	}
	data, err := Decrypt(enc)
	if err != nil {
		return nil, errors.Wrap(err, "decrypting block")
	}
	var b ledger.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errors.Wrap(err, "unmarshaling block")
	}
	return &b, nil
}

// GetBlockByHeight uses the height index for direct lookup.
func (s *Storage) GetBlockByHeight(height int64) (*ledger.Block, error) {
	hash, err := s.db.Get(heightKey(height), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "no block at height %d", height)
	}
	return s.GetBlock(string(hash))
}

// HasGenesisBlock reports whether a height-0 block has been stored.
func (s *Storage) HasGenesisBlock() (bool, error) {
	_, err := s.db.Get(heightKey(ledger.GenesisHeight), nil)
	if err == leveldb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Tip returns the height and hash of the highest stored block.
func (s *Storage) Tip() (int64, string, error) {
	data, err := s.db.Get([]byte("tip"), nil)
	if err == leveldb.ErrNotFound {
		return -1, "", nil
	}
	if err != nil {
		return -1, "", err
	}
	var height int64
	var hash string
	if _, err := fmt.Sscanf(string(data), "%d:%s", &height, &hash); err != nil {
		return -1, "", errors.Wrap(err, "corrupt tip record")
	}
	return height, hash, nil
}

// HasConsent reports whether a CONSENT_GRANT with the given consentTxId
// has been admitted to the chain. This backs the RECORD consentRef
// existence check that schema validation does not perform.
func (s *Storage) HasConsent(consentTxID string) (bool, error) {
	_, err := s.db.Get(consentKey(consentTxID), nil)
	if err == leveldb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetConsent loads an admitted consent by its consentTxId.
func (s *Storage) GetConsent(consentTxID string) (*ledger.Consent, error) {
	data, err := s.db.Get(consentKey(consentTxID), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "consent %s not found", consentTxID)
	}
	var c ledger.Consent
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "unmarshaling consent")
	}
	return &c, nil
}

// BlockIterator iterates raw stored blocks, for chain scans.
func (s *Storage) BlockIterator() iterator.Iterator {
	return s.db.NewIterator(leveldbutil.BytesPrefix([]byte("block:")), nil)
}
