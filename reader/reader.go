// Package reader provides entity streams for the converter.
package reader

import (
	"io"

	"github.com/omniscale/osmconvert/element"
	"github.com/pkg/errors"
)

// ErrDrained is returned by Next after the source returned io.EOF.
var ErrDrained = errors.New("entity stream already drained")

// Source delivers entities in stream order. Next returns io.EOF after the
// last entity and ErrDrained for all calls after that.
type Source interface {
	Next() (*element.Entity, error)
}

// Slice is a source of a fixed list of entities.
type Slice struct {
	entities []*element.Entity
	pos      int
	eof      bool
}

func NewSlice(entities ...*element.Entity) *Slice {
	return &Slice{entities: entities}
}

func (s *Slice) Next() (*element.Entity, error) {
	if s.eof {
		return nil, ErrDrained
	}
	if s.pos >= len(s.entities) {
		s.eof = true
		return nil, io.EOF
	}
	e := s.entities[s.pos]
	s.pos++
	return e, nil
}
