package reader

import (
	"context"
	"io"
	"os"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/go-osm/parser/pbf"
	"github.com/omniscale/osmconvert/cache"
	"github.com/omniscale/osmconvert/element"
	"github.com/omniscale/osmconvert/logging"
	"github.com/pkg/errors"
)

var log = logging.NewLogger("reader")

// PBF reads entities from an OSM PBF file. All node coordinates are stored
// in the coords cache to build the way and area geometries. Only tagged
// nodes are delivered. Each way is delivered as way entity and closed ways
// are additionally delivered as area entity, unless they are tagged with
// area=no. Relations are skipped.
//
// The file is parsed in a background goroutine with a single parser, so
// entities are delivered in file order. PBF files need to be sorted with
// nodes before ways.
type PBF struct {
	f      io.Closer
	coords cache.Coords
	cancel context.CancelFunc

	nodes     chan []osm.Node
	ways      chan []osm.Way
	relations chan []osm.Relation
	done      chan error

	pending []*element.Entity
	parsed  bool
	eof     bool
	closed  bool
	skipped int64
}

// OpenPBF opens filename and starts parsing.
func OpenPBF(filename string, coords cache.Coords) (*PBF, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	p := NewPBF(f, coords)
	p.f = f
	return p, nil
}

// NewPBF starts parsing r.
func NewPBF(r io.Reader, coords cache.Coords) *PBF {
	p := newPBF(coords)
	parser := pbf.New(r, pbf.Config{
		Nodes:       p.nodes,
		Ways:        p.ways,
		Relations:   p.relations,
		Concurrency: 1,
	})
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go func() {
		header, err := parser.Header()
		if err != nil {
			p.done <- err
			return
		}
		if !header.Time.IsZero() {
			log.Printf("reading PBF with data till %v", header.Time.Local())
		}
		p.done <- parser.Parse(ctx)
	}()
	return p
}

func newPBF(coords cache.Coords) *PBF {
	return &PBF{
		coords:    coords,
		nodes:     make(chan []osm.Node),
		ways:      make(chan []osm.Way),
		relations: make(chan []osm.Relation),
		done:      make(chan error, 1),
		cancel:    func() {},
	}
}

func (p *PBF) Next() (*element.Entity, error) {
	if p.eof {
		return nil, ErrDrained
	}
	for len(p.pending) == 0 {
		if p.parsed && p.nodes == nil && p.ways == nil && p.relations == nil {
			p.eof = true
			if p.skipped > 0 {
				log.Printf("skipped %d relations", p.skipped)
			}
			return nil, io.EOF
		}
		if err := p.receive(); err != nil {
			p.eof = true
			return nil, err
		}
	}
	e := p.pending[0]
	p.pending[0] = nil
	p.pending = p.pending[1:]
	return e, nil
}

// receive waits for the next batch of the parser.
func (p *PBF) receive() error {
	select {
	case nds, ok := <-p.nodes:
		if !ok {
			p.nodes = nil
			return nil
		}
		if err := p.coords.PutCoords(nds); err != nil {
			return errors.Wrap(err, "caching coords")
		}
		for i := range nds {
			if len(nds[i].Tags) == 0 {
				continue
			}
			p.pending = append(p.pending, element.NewNode(&nds[i]))
		}
	case ws, ok := <-p.ways:
		if !ok {
			p.ways = nil
			return nil
		}
		for i := range ws {
			w := &ws[i]
			if len(w.Tags) == 0 {
				continue
			}
			p.pending = append(p.pending, element.NewWay(w, p.coords))
			if w.IsClosed() && w.Tags["area"] != "no" {
				p.pending = append(p.pending, element.NewArea(w, p.coords))
			}
		}
	case rels, ok := <-p.relations:
		if !ok {
			p.relations = nil
			return nil
		}
		p.skipped += int64(len(rels))
	case err := <-p.done:
		p.parsed = true
		if err != nil {
			return errors.Wrap(err, "parsing PBF")
		}
	}
	return nil
}

// Close stops the parser and closes the file. The coords cache is not
// closed.
func (p *PBF) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.cancel()
	if p.nodes != nil || p.ways != nil || p.relations != nil {
		done := p.done
		if p.parsed {
			done = nil
		}
		go drainParser(p.nodes, p.ways, p.relations, done)
	}
	p.eof = true
	if p.f != nil {
		return p.f.Close()
	}
	return nil
}

// drainParser receives until all channels are closed, so that no parser
// worker stays blocked on a send. The parser does not close the channels
// when it fails on a block.
func drainParser(nodes chan []osm.Node, ways chan []osm.Way, rels chan []osm.Relation, done chan error) {
	for nodes != nil || ways != nil || rels != nil {
		select {
		case _, ok := <-nodes:
			if !ok {
				nodes = nil
			}
		case _, ok := <-ways:
			if !ok {
				ways = nil
			}
		case _, ok := <-rels:
			if !ok {
				rels = nil
			}
		case <-done:
			done = nil
		}
	}
}
