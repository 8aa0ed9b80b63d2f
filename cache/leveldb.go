package cache

import (
	"github.com/jmhodges/levigo"
	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmconvert/cache/binary"
	"github.com/pkg/errors"
)

// LevelDB stores the coordinates in a LevelDB with an LRU block cache.
type LevelDB struct {
	db    *levigo.DB
	cache *levigo.Cache
	wo    *levigo.WriteOptions
	ro    *levigo.ReadOptions
}

const levelDBCacheSizeM = 64

func OpenLevelDB(dir string) (*LevelDB, error) {
	opts := levigo.NewOptions()
	defer opts.Close()
	opts.SetCreateIfMissing(true)
	c := &LevelDB{}
	c.cache = levigo.NewLRUCache(levelDBCacheSizeM * 1024 * 1024)
	opts.SetCache(c.cache)

	db, err := levigo.Open(dir, opts)
	if err != nil {
		c.cache.Close()
		return nil, errors.Wrapf(err, "opening leveldb cache %s", dir)
	}
	c.db = db
	c.wo = levigo.NewWriteOptions()
	c.ro = levigo.NewReadOptions()
	return c, nil
}

func (c *LevelDB) PutCoords(nodes []osm.Node) error {
	batch := levigo.NewWriteBatch()
	defer batch.Close()

	for _, nd := range nodes {
		batch.Put(idToKeyBuf(nd.ID), binary.MarshalCoord(nd.Long, nd.Lat))
	}
	return errors.Wrap(c.db.Write(c.wo, batch), "storing coords")
}

func (c *LevelDB) GetCoord(id int64) (*osm.Node, error) {
	data, err := c.db.Get(c.ro, idToKeyBuf(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, notFound(id)
	}
	nd := &osm.Node{Element: osm.Element{ID: id}}
	nd.Long, nd.Lat, err = binary.UnmarshalCoord(data)
	if err != nil {
		return nil, err
	}
	return nd, nil
}

func (c *LevelDB) GetCoords(refs []int64) ([]osm.Node, error) {
	return getCoords(refs, c.GetCoord)
}

func (c *LevelDB) Close() error {
	if c.ro != nil {
		c.ro.Close()
		c.ro = nil
	}
	if c.wo != nil {
		c.wo.Close()
		c.wo = nil
	}
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
	if c.cache != nil {
		c.cache.Close()
		c.cache = nil
	}
	return nil
}
