package fs

import (
	"encoding/json"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/wavecore/blockseq/pkg/sample"
)

// blockMeta is the badger-persisted record for one block file. The store
// writes and deletes these records; nothing in this package reads them
// back to enumerate blocks.
type blockMeta struct {
	Length    int64         `json:"length"`
	Format    sample.Format `json:"format"`
	AliasPath string        `json:"alias_path,omitempty"`
}

const metaKeyPrefix = "block:"

func metaKey(id string) []byte {
	return []byte(metaKeyPrefix + id)
}

func openIndex(path string) (*badgerdb.DB, error) {
	opts := badgerdb.DefaultOptions(path).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("fs: open badger index: %w", err)
	}
	return db, nil
}

func (s *Store) putMeta(id string, m blockMeta) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("fs: marshal block metadata: %w", err)
	}
	return s.index.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(metaKey(id), data)
	})
}

func (s *Store) getMeta(id string) (blockMeta, error) {
	var m blockMeta
	err := s.index.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(metaKey(id))
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return errMetaNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	return m, err
}

func (s *Store) deleteMeta(id string) error {
	return s.index.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(metaKey(id))
	})
}

var errMetaNotFound = fmt.Errorf("fs: block metadata not found")
