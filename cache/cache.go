// Package cache stores node coordinates for resolving way geometries.
package cache

import (
	bin "encoding/binary"
	"os"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmconvert/cache/binary"
	"github.com/pkg/errors"
)

var NotFound = errors.New("not found")

// Coords stores the coordinates of nodes by ID.
type Coords interface {
	PutCoords(nodes []osm.Node) error
	GetCoord(id int64) (*osm.Node, error)
	// GetCoords returns the nodes for all refs in the same order. It fails
	// with NotFound if any node is missing.
	GetCoords(refs []int64) ([]osm.Node, error)
	Close() error
}

// Backends lists all available cache backends.
var Backends = []string{"memory", "badger", "leveldb"}

// Open opens a cache backend. Badger and LevelDB store the cache in
// dir, which is created if missing.
func Open(backend, dir string) (Coords, error) {
	switch backend {
	case "", "memory":
		return NewMemory(), nil
	case "badger", "leveldb":
		if dir == "" {
			return nil, errors.Errorf("%s cache requires a cache directory", backend)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "creating cache dir")
		}
		if backend == "badger" {
			return OpenBadger(dir)
		}
		return OpenLevelDB(dir)
	}
	return nil, errors.Errorf("unknown cache backend %q", backend)
}

func idToKeyBuf(id int64) []byte {
	b := make([]byte, 8)
	bin.BigEndian.PutUint64(b, uint64(id))
	return b[:8]
}

func notFound(id int64) error {
	return errors.Wrapf(NotFound, "node %d", id)
}

// getCoords calls get for each ref.
func getCoords(refs []int64, get func(id int64) (*osm.Node, error)) ([]osm.Node, error) {
	nodes := make([]osm.Node, len(refs))
	for i, ref := range refs {
		nd, err := get(ref)
		if err != nil {
			return nil, err
		}
		nodes[i] = *nd
	}
	return nodes, nil
}

// Memory keeps all coordinates in a map. Coordinates are stored with the
// same precision as on disk.
type Memory struct {
	coords map[int64]uint64
}

func NewMemory() *Memory {
	return &Memory{coords: make(map[int64]uint64)}
}

func (m *Memory) PutCoords(nodes []osm.Node) error {
	for _, nd := range nodes {
		m.coords[nd.ID] = binary.PackCoord(nd.Long, nd.Lat)
	}
	return nil
}

func (m *Memory) GetCoord(id int64) (*osm.Node, error) {
	c, ok := m.coords[id]
	if !ok {
		return nil, notFound(id)
	}
	nd := &osm.Node{Element: osm.Element{ID: id}}
	nd.Long, nd.Lat = binary.UnpackCoord(c)
	return nd, nil
}

func (m *Memory) GetCoords(refs []int64) ([]osm.Node, error) {
	return getCoords(refs, m.GetCoord)
}

func (m *Memory) Len() int { return len(m.coords) }

func (m *Memory) Close() error {
	m.coords = nil
	return nil
}
