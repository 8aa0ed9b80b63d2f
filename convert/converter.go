/*
Package convert routes the entities of a stream into the layers of a
database writer.

A Converter is configured with layers and rules first. The first entity
freezes the configuration, creates the tables and opens the writer
transactions. The end of the stream (or Close) commits all layers.
*/
package convert

import (
	"context"
	"io"
	"time"

	"github.com/omniscale/osmconvert/database"
	"github.com/omniscale/osmconvert/element"
	"github.com/omniscale/osmconvert/logging"
	"github.com/omniscale/osmconvert/mapping"
	"github.com/omniscale/osmconvert/reader"
	"github.com/omniscale/osmconvert/stats"
	"github.com/pkg/errors"
)

var log = logging.NewLogger("convert")

type State int

const (
	Configuring State = iota
	Frozen
	Streaming
	Done
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case Frozen:
		return "frozen"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	}
	return "unknown"
}

type Options struct {
	// AbortOnInvalidGeometry stops the conversion at the first entity
	// without geometry. By default these entities are skipped.
	AbortOnInvalidGeometry bool
	// ProgressInterval for progress logging, 0 disables the progress.
	ProgressInterval time.Duration
}

// Converter owns the layer registry and the rule table of one
// conversion. It is not safe for concurrent use.
type Converter struct {
	db       database.DB
	opts     Options
	registry *mapping.Registry
	rules    *mapping.RuleTable
	state    State
	err      error
	counter  *stats.Counter
	result   *stats.Stats
}

// New returns a Converter that writes into db. The caller closes db after
// the conversion.
func New(db database.DB, opts Options) *Converter {
	reg := mapping.NewRegistry()
	return &Converter{
		db:       db,
		opts:     opts,
		registry: reg,
		rules:    mapping.NewRuleTable(reg),
	}
}

func (c *Converter) State() State { return c.state }

// Err returns the first configuration error.
func (c *Converter) Err() error { return c.err }

func (c *Converter) Registry() *mapping.Registry { return c.registry }

func (c *Converter) Rules() *mapping.RuleTable { return c.rules }

func (c *Converter) configErr(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}

// Stats returns the statistics of the current or last run. It returns nil
// before the first entity.
func (c *Converter) Stats() *stats.Stats {
	if c.result != nil {
		return c.result
	}
	if c.counter != nil {
		return c.counter.Stats()
	}
	return nil
}

// start freezes the configuration and starts the writer transactions.
func (c *Converter) start(op string) error {
	switch c.state {
	case Streaming:
		return nil
	case Done:
		return &LifecycleError{Op: op, State: c.state, Err: ErrDone}
	}
	if c.err != nil {
		return c.err
	}
	if err := c.rules.Freeze(); err != nil {
		c.configErr(err)
		return err
	}
	c.state = Frozen
	log.Debugf("frozen with %d layers and %d rules", len(c.registry.Layers()), c.rules.Len())

	if err := c.db.Init(c.registry.Layers()); err != nil {
		c.state = Done
		return &database.SinkError{Op: "init", Err: err}
	}
	if err := c.db.Begin(); err != nil {
		c.state = Done
		return &database.SinkError{Op: "begin", Err: err}
	}
	c.counter = stats.NewCounter(c.opts.ProgressInterval)
	c.state = Streaming
	return nil
}

// Process converts a single entity. The first call freezes the
// configuration.
func (c *Converter) Process(e *element.Entity) error {
	if err := c.start("process"); err != nil {
		return err
	}
	return c.process(e)
}

func (c *Converter) process(e *element.Entity) error {
	c.counter.AddEntity(e.Kind)

	matches := c.rules.Match(e)
	if len(matches) == 0 {
		return nil
	}

	g, err := e.Geometry()
	if err != nil {
		c.counter.AddGeometryError()
		if c.opts.AbortOnInvalidGeometry {
			c.abort()
			return err
		}
		log.Warnf("skipping %s: %s", e, err)
		return nil
	}
	wkb := g.WKB()
	c.counter.AddMatched()

	for i := range matches {
		m := &matches[i]
		rec := database.Record{
			Layer:    m.Rule.Layer.Name,
			EntityID: e.ID,
			Values:   m.Row(e),
			Geometry: wkb,
		}
		if err := c.db.Insert(rec); err != nil {
			c.abort()
			return &database.SinkError{Layer: rec.Layer, Op: "insert", Err: err}
		}
		c.counter.AddRecord(rec.Layer)
	}
	return nil
}

func (c *Converter) abort() {
	c.state = Done
	if err := c.db.Abort(); err != nil {
		log.Errorf("aborting writer: %s", err)
	}
	c.result = c.counter.Stats()
}

// Close commits all layers. The configuration is frozen and empty tables
// are created if no entity was processed.
func (c *Converter) Close() error {
	if err := c.start("close"); err != nil {
		return err
	}
	return c.finish()
}

func (c *Converter) finish() error {
	c.state = Done
	if err := c.db.End(); err != nil {
		c.result = c.counter.Stats()
		if abortErr := c.db.Abort(); abortErr != nil {
			log.Errorf("aborting writer: %s", abortErr)
		}
		return &database.SinkError{Op: "end", Err: err}
	}
	if f, ok := c.db.(database.Finisher); ok {
		if err := f.Finish(); err != nil {
			c.result = c.counter.Stats()
			return &database.SinkError{Op: "finish", Err: err}
		}
	}
	c.result = c.counter.Stats()
	return nil
}

// Run converts all entities of src until the end of the stream. Run can
// only be called once.
func (c *Converter) Run(ctx context.Context, src reader.Source) (*stats.Stats, error) {
	switch c.state {
	case Done:
		return nil, &LifecycleError{Op: "run", State: c.state, Err: ErrDone}
	case Streaming:
		return nil, &LifecycleError{Op: "run", State: c.state, Err: ErrStreaming}
	}

	defer log.StopStep(log.StartStep("Converting entities"))

	for {
		select {
		case <-ctx.Done():
			if c.state == Streaming {
				c.abort()
			}
			return c.Stats(), ctx.Err()
		default:
		}

		e, err := src.Next()
		if err == io.EOF {
			if err := c.Close(); err != nil {
				return c.Stats(), err
			}
			log.Print(c.result)
			return c.result, nil
		}
		if err != nil {
			if errors.Is(err, reader.ErrDrained) {
				err = &LifecycleError{Op: "run", State: c.state, Err: err}
			} else {
				err = errors.Wrap(err, "reading entities")
			}
			if c.state == Streaming {
				c.abort()
			}
			return c.Stats(), err
		}

		if err := c.Process(e); err != nil {
			return c.Stats(), err
		}
	}
}
