package cache

import (
	"github.com/dgraph-io/badger"
	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmconvert/cache/binary"
	"github.com/omniscale/osmconvert/logging"
	"github.com/pkg/errors"
)

type BadgerDB struct {
	db *badger.DB
}

var log = logging.NewLogger("cache")

// badgerLogger forwards badger messages to the cache logger. Only errors
// and warnings are visible with the default level.
type badgerLogger struct{}

func (badgerLogger) Errorf(msg string, args ...interface{})   { log.Errorf(msg, args...) }
func (badgerLogger) Warningf(msg string, args ...interface{}) { log.Warnf(msg, args...) }
func (badgerLogger) Infof(msg string, args ...interface{})    { log.Debugf(msg, args...) }
func (badgerLogger) Debugf(msg string, args ...interface{})   { log.Debugf(msg, args...) }

func OpenBadger(dir string) (*BadgerDB, error) {
	opts := badger.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	opts.Logger = badgerLogger{}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening badger cache %s", dir)
	}
	return &BadgerDB{db: db}, nil
}

// PutCoords stores all nodes. Large batches are split into multiple
// transactions.
func (b *BadgerDB) PutCoords(nodes []osm.Node) error {
	txn := b.db.NewTransaction(true)
	defer func() { txn.Discard() }()
	for _, nd := range nodes {
		key := idToKeyBuf(nd.ID)
		val := binary.MarshalCoord(nd.Long, nd.Lat)
		err := txn.Set(key, val)
		if err == badger.ErrTxnTooBig {
			if err := txn.Commit(); err != nil {
				return errors.Wrap(err, "committing coords")
			}
			txn = b.db.NewTransaction(true)
			err = txn.Set(key, val)
		}
		if err != nil {
			return errors.Wrap(err, "storing coords")
		}
	}
	return errors.Wrap(txn.Commit(), "committing coords")
}

func (b *BadgerDB) GetCoord(id int64) (*osm.Node, error) {
	nd := &osm.Node{Element: osm.Element{ID: id}}
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idToKeyBuf(id))
		if err == badger.ErrKeyNotFound {
			return notFound(id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			nd.Long, nd.Lat, err = binary.UnmarshalCoord(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return nd, nil
}

// GetCoords reads all refs in a single transaction.
func (b *BadgerDB) GetCoords(refs []int64) ([]osm.Node, error) {
	var nodes []osm.Node
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		nodes, err = getCoords(refs, func(id int64) (*osm.Node, error) {
			item, err := txn.Get(idToKeyBuf(id))
			if err == badger.ErrKeyNotFound {
				return nil, notFound(id)
			}
			if err != nil {
				return nil, err
			}
			nd := &osm.Node{Element: osm.Element{ID: id}}
			err = item.Value(func(val []byte) error {
				var err error
				nd.Long, nd.Lat, err = binary.UnmarshalCoord(val)
				return err
			})
			return nd, err
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (b *BadgerDB) Close() error {
	return b.db.Close()
}
