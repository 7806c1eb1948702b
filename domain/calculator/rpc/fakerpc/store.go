package fakerpc

import (
	"encoding/binary"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/serialization"
	"github.com/kaspanet/cinnabar/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

var (
	cellsBucket     = ldb.MakeBucket([]byte("cells"))
	outPointsBucket = ldb.MakeBucket([]byte("outpoints"))
	countersBucket  = ldb.MakeBucket([]byte("counters"))

	nextSeqKey   = countersBucket.Key([]byte("next-seq"))
	mintCountKey = countersBucket.Key([]byte("mint-count"))
)

// cellStore is the live cell set. Cells are keyed by insertion sequence so
// that queries return them in the order they were created.
type cellStore struct {
	db      *ldb.LevelDB
	nextSeq uint64
}

// newCellStore opens the live cell set kept in dataDir, or an in-memory one
// when dataDir is empty
func newCellStore(dataDir string) (*cellStore, error) {
	var db *ldb.LevelDB
	var err error
	if dataDir == "" {
		db, err = ldb.NewMemoryLevelDB()
	} else {
		db, err = ldb.NewLevelDB(dataDir)
	}
	if err != nil {
		return nil, err
	}
	store := &cellStore{db: db}
	store.nextSeq, err = store.counter(nextSeqKey)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *cellStore) counter(key []byte) (uint64, error) {
	value, err := s.db.Get(key)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return 0, nil
	}
	if len(value) != 8 {
		return 0, errors.Errorf("counter %s has %d bytes", key, len(value))
	}
	return binary.BigEndian.Uint64(value), nil
}

func (s *cellStore) putCounter(batch *ldb.Batch, key []byte, value uint64) {
	batch.Put(key, sequenceKey(value))
}

func (s *cellStore) has(outPoint externalapi.OutPoint) (bool, error) {
	return s.db.Has(outPointsBucket.Key(serialization.SerializeOutPoint(outPoint)))
}

func sequenceKey(seq uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return key[:]
}

func (s *cellStore) add(batch *ldb.Batch, cell *rpc.Cell) {
	seqKey := sequenceKey(s.nextSeq)
	s.nextSeq++
	s.putCounter(batch, nextSeqKey, s.nextSeq)

	outPointBytes := serialization.SerializeOutPoint(cell.OutPoint)
	value := append(outPointBytes, serialization.SerializeCell(cell.Output, cell.Data)...)
	batch.Put(cellsBucket.Key(seqKey), value)
	batch.Put(outPointsBucket.Key(serialization.SerializeOutPoint(cell.OutPoint)), seqKey)
}

func (s *cellStore) remove(batch *ldb.Batch, outPoint externalapi.OutPoint) error {
	outPointKey := outPointsBucket.Key(serialization.SerializeOutPoint(outPoint))
	seqKey, err := s.db.Get(outPointKey)
	if err != nil {
		return err
	}
	if seqKey == nil {
		return errors.Wrapf(rpc.ErrCellNotFound, "out point %s", outPoint)
	}
	batch.Delete(cellsBucket.Key(seqKey))
	batch.Delete(outPointKey)
	return nil
}

func (s *cellStore) get(outPoint externalapi.OutPoint) (*rpc.Cell, error) {
	seqKey, err := s.db.Get(outPointsBucket.Key(serialization.SerializeOutPoint(outPoint)))
	if err != nil {
		return nil, err
	}
	if seqKey == nil {
		return nil, errors.Wrapf(rpc.ErrCellNotFound, "out point %s", outPoint)
	}
	value, err := s.db.Get(cellsBucket.Key(seqKey))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, errors.Errorf("out point %s is indexed but its cell is missing", outPoint)
	}
	return deserializeStoredCell(value)
}

func (s *cellStore) find(query *rpc.CellQuery) (cells []*rpc.Cell, err error) {
	cursor := s.db.Cursor(cellsBucket)
	defer func() {
		closeErr := cursor.Close()
		if err == nil {
			err = closeErr
		}
	}()

	for cursor.Next() {
		value, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		cell, err := deserializeStoredCell(value)
		if err != nil {
			return nil, err
		}
		if !query.Matches(cell) {
			continue
		}
		cells = append(cells, cell)
		if query.Limit > 0 && len(cells) == query.Limit {
			break
		}
	}
	return cells, nil
}

func (s *cellStore) close() error {
	return s.db.Close()
}

func deserializeStoredCell(value []byte) (*rpc.Cell, error) {
	if len(value) < serialization.OutPointSize {
		return nil, errors.Errorf("stored cell of %d bytes is too short", len(value))
	}
	outPoint, err := serialization.DeserializeOutPoint(value[:serialization.OutPointSize])
	if err != nil {
		return nil, err
	}
	output, data, err := serialization.DeserializeCell(value[serialization.OutPointSize:])
	if err != nil {
		return nil, err
	}
	return &rpc.Cell{OutPoint: outPoint, Output: output, Data: data}, nil
}
