// Package database defines the writer interface for converted records and
// the registry of writer backends.
package database

import (
	"fmt"
	"sort"
	"strings"

	"github.com/omniscale/osmconvert/mapping"
	"github.com/pkg/errors"
)

type Config struct {
	ConnectionParams string
	Srid             int
}

// Record is a single output row. Values are in the attribute order of the
// layer. Geometry is WKB.
type Record struct {
	Layer    string
	EntityID int64
	Values   []interface{}
	Geometry []byte
}

// DB writes records into one table per layer.
//
// Init is called once with all layers before Begin. Insert is only called
// between Begin and End. After End or Abort the records are either all
// committed or all discarded. Close releases the connection.
type DB interface {
	Init(layers []*mapping.LayerSchema) error
	Begin() error
	Insert(rec Record) error
	End() error
	Abort() error
	Close() error
}

// Finisher is implemented by writers that need a final step after End,
// e.g. to create indices.
type Finisher interface {
	Finish() error
}

// SinkError is returned for all writer failures of a conversion.
type SinkError struct {
	Layer string
	Op    string
	Err   error
}

func (e *SinkError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("writer %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("writer %s failed for layer %s: %v", e.Op, e.Layer, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

var databases map[string]func(Config) (DB, error)

func init() {
	databases = make(map[string]func(Config) (DB, error))
}

// Register makes a writer available for connection strings with the
// name as prefix (name:...).
func Register(name string, f func(Config) (DB, error)) {
	databases[name] = f
}

// Types returns the names of all registered writers.
func Types() []string {
	names := make([]string, 0, len(databases))
	for n := range databases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func Open(conf Config) (DB, error) {
	typ := ConnectionType(conf.ConnectionParams)
	newFunc, ok := databases[typ]
	if !ok {
		return nil, errors.Errorf("unsupported database type: %q (available: %s)", typ, strings.Join(Types(), ", "))
	}

	db, err := newFunc(conf)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func ConnectionType(param string) string {
	parts := strings.SplitN(param, ":", 2)
	return parts[0]
}

type NullDb struct{}

func (n *NullDb) Init([]*mapping.LayerSchema) error { return nil }
func (n *NullDb) Begin() error                       { return nil }
func (n *NullDb) Insert(Record) error                { return nil }
func (n *NullDb) End() error                         { return nil }
func (n *NullDb) Close() error                       { return nil }
func (n *NullDb) Abort() error                       { return nil }

func NewNullDb(conf Config) (DB, error) {
	return &NullDb{}, nil
}

func init() {
	Register("null", NewNullDb)
}
