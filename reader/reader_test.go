package reader

import (
	"bytes"
	"io"
	"testing"
	"time"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmconvert/cache"
	"github.com/omniscale/osmconvert/element"
	"github.com/pkg/errors"
)

func TestSlice(t *testing.T) {
	e1 := element.New(element.Node, 1, nil, nil)
	e2 := element.New(element.Way, 2, nil, nil)
	s := NewSlice(e1, e2)
	for _, want := range []*element.Entity{e1, e2} {
		e, err := s.Next()
		if err != nil {
			t.Fatal(err)
		}
		if e != want {
			t.Fatal(e)
		}
	}
	if _, err := s.Next(); err != io.EOF {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := s.Next(); err != ErrDrained {
			t.Fatal(err)
		}
	}
}

func feed(p *PBF, nodes [][]osm.Node, ways [][]osm.Way, rels [][]osm.Relation) {
	go func() {
		for _, nds := range nodes {
			p.nodes <- nds
		}
		for _, ws := range ways {
			p.ways <- ws
		}
		for _, rs := range rels {
			p.relations <- rs
		}
		close(p.nodes)
		close(p.ways)
		close(p.relations)
		p.done <- nil
	}()
}

func drain(t *testing.T, src Source) []*element.Entity {
	var result []*element.Entity
	for {
		e, err := src.Next()
		if err == io.EOF {
			return result
		}
		if err != nil {
			t.Fatal(err)
		}
		result = append(result, e)
	}
}

func TestPBFEntities(t *testing.T) {
	coords := cache.NewMemory()
	p := newPBF(coords)
	feed(p,
		[][]osm.Node{
			{
				{Element: osm.Element{ID: 1}, Long: 0, Lat: 0},
				{Element: osm.Element{ID: 2, Tags: osm.Tags{"amenity": "pub"}}, Long: 1, Lat: 0},
			},
			{
				{Element: osm.Element{ID: 3}, Long: 1, Lat: 1},
			},
		},
		[][]osm.Way{
			{
				{Element: osm.Element{ID: 10, Tags: osm.Tags{"highway": "primary"}}, Refs: []int64{1, 2}},
				{Element: osm.Element{ID: 11, Tags: osm.Tags{"building": "yes"}}, Refs: []int64{1, 2, 3, 1}},
				{Element: osm.Element{ID: 12, Tags: osm.Tags{"highway": "pedestrian", "area": "no"}}, Refs: []int64{1, 2, 3, 1}},
				{Element: osm.Element{ID: 13}, Refs: []int64{1, 2}},
			},
		},
		[][]osm.Relation{
			{{Element: osm.Element{ID: 100, Tags: osm.Tags{"type": "multipolygon"}}}},
		},
	)

	entities := drain(t, p)
	var got []string
	for _, e := range entities {
		got = append(got, e.Kind.String()+"/"+string(rune('0'+e.ID%10)))
	}
	expected := []string{"node/2", "way/0", "way/1", "area/1", "way/2"}
	if len(got) != len(expected) {
		t.Fatal(got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatal(got)
		}
	}

	// way geometry from cached coords
	g, err := entities[1].Geometry()
	if err != nil {
		t.Fatal(err)
	}
	if g.WKT() != "LINESTRING(0 0, 1 0)" {
		t.Error(g.WKT())
	}
	g, err = entities[3].Geometry()
	if err != nil {
		t.Fatal(err)
	}
	if g.WKT() != "MULTIPOLYGON(((0 0, 1 0, 1 1, 0 0)))" {
		t.Error(g.WKT())
	}
	if p.skipped != 1 {
		t.Error(p.skipped)
	}

	if _, err := p.Next(); err != ErrDrained {
		t.Fatal(err)
	}
}

func TestPBFParseError(t *testing.T) {
	p := newPBF(cache.NewMemory())
	go func() {
		p.done <- errors.New("broken block")
	}()
	if _, err := p.Next(); err == nil {
		t.Fatal("expected error")
	}
	if _, err := p.Next(); err != ErrDrained {
		t.Fatal(err)
	}
}

func TestPBFCloseAfterParseError(t *testing.T) {
	p := newPBF(cache.NewMemory())
	p.done <- errors.New("broken block")
	if _, err := p.Next(); err == nil {
		t.Fatal("expected error")
	}

	// a parser worker still sending the batch of another block
	sent := make(chan struct{})
	go func() {
		p.nodes <- []osm.Node{{Element: osm.Element{ID: 1}}}
		close(sent)
	}()
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("parser worker blocked after Close")
	}
	close(p.nodes)
	close(p.ways)
	close(p.relations)
}

func TestPBFInvalidFile(t *testing.T) {
	p := NewPBF(bytes.NewReader([]byte("no pbf")), cache.NewMemory())
	defer p.Close()
	if _, err := p.Next(); err == nil {
		t.Fatal("expected error")
	}
}
