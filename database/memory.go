package database

import (
	"github.com/omniscale/osmconvert/mapping"
	"github.com/pkg/errors"
)

// Memory keeps all committed records in memory. Records of an open
// transaction are only visible after End.
type Memory struct {
	Layers  []*mapping.LayerSchema
	Records map[string][]Record
	// Calls lists all method calls in call order.
	Calls []string
	// FailInsert is called for each Insert and can inject writer errors.
	FailInsert func(rec Record) error

	pending []Record
	open    bool
	closed  bool
}

func NewMemory() *Memory {
	return &Memory{Records: make(map[string][]Record)}
}

var ErrNotOpen = errors.New("no open transaction")

func (m *Memory) Init(layers []*mapping.LayerSchema) error {
	m.Calls = append(m.Calls, "init")
	m.Layers = layers
	for _, l := range layers {
		m.Records[l.Name] = nil
	}
	return nil
}

func (m *Memory) Begin() error {
	m.Calls = append(m.Calls, "begin")
	m.open = true
	return nil
}

func (m *Memory) Insert(rec Record) error {
	if !m.open {
		return ErrNotOpen
	}
	if _, ok := m.Records[rec.Layer]; !ok {
		return errors.Errorf("unknown layer %s", rec.Layer)
	}
	if m.FailInsert != nil {
		if err := m.FailInsert(rec); err != nil {
			return err
		}
	}
	m.pending = append(m.pending, rec)
	return nil
}

func (m *Memory) End() error {
	m.Calls = append(m.Calls, "end")
	if !m.open {
		return ErrNotOpen
	}
	for _, rec := range m.pending {
		m.Records[rec.Layer] = append(m.Records[rec.Layer], rec)
	}
	m.pending = nil
	m.open = false
	return nil
}

func (m *Memory) Abort() error {
	m.Calls = append(m.Calls, "abort")
	m.pending = nil
	m.open = false
	return nil
}

func (m *Memory) Close() error {
	m.Calls = append(m.Calls, "close")
	m.closed = true
	return nil
}

func (m *Memory) Closed() bool { return m.closed }

// Count returns the number of committed records of all layers.
func (m *Memory) Count() int {
	n := 0
	for _, recs := range m.Records {
		n += len(recs)
	}
	return n
}

func init() {
	Register("memory", func(Config) (DB, error) { return NewMemory(), nil })
}
