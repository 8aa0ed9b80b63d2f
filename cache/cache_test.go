package cache

import (
	"math"
	"path/filepath"
	"testing"

	osm "github.com/omniscale/go-osm"
	"github.com/pkg/errors"
)

func testCoords(t *testing.T, c Coords) {
	nodes := []osm.Node{
		{Element: osm.Element{ID: 1}, Long: 8.5, Lat: 53.25},
		{Element: osm.Element{ID: 2}, Long: -120.125, Lat: -45},
		{Element: osm.Element{ID: 1 << 40}, Long: 0, Lat: 0},
	}
	if err := c.PutCoords(nodes); err != nil {
		t.Fatal(err)
	}

	nd, err := c.GetCoord(2)
	if err != nil {
		t.Fatal(err)
	}
	if nd.ID != 2 || math.Abs(nd.Long+120.125) > 1e-7 || math.Abs(nd.Lat+45) > 1e-7 {
		t.Error(nd)
	}

	result, err := c.GetCoords([]int64{1 << 40, 1, 2, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 4 || result[0].ID != 1<<40 || result[1].ID != 1 || result[3].ID != 1 {
		t.Fatal(result)
	}
	if math.Abs(result[1].Long-8.5) > 1e-7 || math.Abs(result[1].Lat-53.25) > 1e-7 {
		t.Error(result[1])
	}

	if _, err := c.GetCoord(3); !errors.Is(err, NotFound) {
		t.Error(err)
	}
	if _, err := c.GetCoords([]int64{1, 3}); !errors.Is(err, NotFound) {
		t.Error(err)
	}
}

func TestMemory(t *testing.T) {
	c := NewMemory()
	testCoords(t, c)
	if c.Len() != 3 {
		t.Error(c.Len())
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestBadger(t *testing.T) {
	c, err := Open("badger", filepath.Join(t.TempDir(), "coords"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	testCoords(t, c)
}

func TestBadgerLargeBatch(t *testing.T) {
	c, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	nodes := make([]osm.Node, 200000)
	for i := range nodes {
		nodes[i] = osm.Node{Element: osm.Element{ID: int64(i)}, Long: float64(i%360) - 180, Lat: 1}
	}
	if err := c.PutCoords(nodes); err != nil {
		t.Fatal(err)
	}
	nd, err := c.GetCoord(199999)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(nd.Long-float64(199999%360-180)) > 1e-7 {
		t.Error(nd)
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open("rocksdb", t.TempDir()); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := Open("badger", ""); err == nil {
		t.Error("expected error for missing dir")
	}
	c, err := Open("", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*Memory); !ok {
		t.Errorf("%T", c)
	}
}
