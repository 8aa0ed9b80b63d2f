// Package stats counts processed entities and written records of a
// conversion and reports the progress.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/omniscale/osmconvert/element"
	"github.com/omniscale/osmconvert/logging"
)

// Stats is the summary of a conversion run.
type Stats struct {
	Nodes          int64
	Ways           int64
	Areas          int64
	Matched        int64
	GeometryErrors int64
	Records        map[string]int64
	Duration       time.Duration
}

// Entities returns the number of entities of all kinds.
func (s *Stats) Entities() int64 { return s.Nodes + s.Ways + s.Areas }

// TotalRecords returns the number of records of all layers.
func (s *Stats) TotalRecords() int64 {
	var n int64
	for _, c := range s.Records {
		n += c
	}
	return n
}

func (s *Stats) String() string {
	layers := make([]string, 0, len(s.Records))
	for l := range s.Records {
		layers = append(layers, l)
	}
	sort.Strings(layers)
	records := make([]string, len(layers))
	for i, l := range layers {
		records[i] = fmt.Sprintf("%s: %d", l, s.Records[l])
	}
	return fmt.Sprintf("Nodes: %d Ways: %d Areas: %d Matched: %d Invalid geometries: %d Records: [%s] in %s",
		s.Nodes, s.Ways, s.Areas, s.Matched, s.GeometryErrors,
		strings.Join(records, ", "), s.Duration.Round(time.Millisecond))
}

var log = logging.NewLogger("stats")

// checked every checkInterval entities to keep time.Now out of the loop
const checkInterval = 1024

// Counter collects the statistics of a single run. It is not safe for
// concurrent use.
type Counter struct {
	stats      Stats
	start      time.Time
	interval   time.Duration
	lastReport time.Time
	lastCount  int64
}

// NewCounter starts a new counter. With interval > 0 the progress is
// printed at most once per interval.
func NewCounter(interval time.Duration) *Counter {
	now := time.Now()
	return &Counter{
		stats:      Stats{Records: make(map[string]int64)},
		start:      now,
		lastReport: now,
		interval:   interval,
	}
}

func (c *Counter) AddEntity(kind element.Kind) {
	switch kind {
	case element.Node:
		c.stats.Nodes++
	case element.Way:
		c.stats.Ways++
	case element.Area:
		c.stats.Areas++
	}
	if c.interval > 0 && c.stats.Entities()%checkInterval == 0 {
		c.tick()
	}
}

func (c *Counter) AddMatched()                { c.stats.Matched++ }
func (c *Counter) AddGeometryError()          { c.stats.GeometryErrors++ }
func (c *Counter) AddRecord(layer string)     { c.stats.Records[layer]++ }
func (c *Counter) Records(layer string) int64 { return c.stats.Records[layer] }

func (c *Counter) tick() {
	now := time.Now()
	dur := now.Sub(c.lastReport)
	if dur < c.interval {
		return
	}
	total := c.stats.Entities()
	eps := int64(float64(total-c.lastCount)/dur.Seconds()/100) * 100
	log.Progress(fmt.Sprintf("Nodes: %9d Ways: %8d Areas: %8d (%7d/s) Records: %9d",
		c.stats.Nodes, c.stats.Ways, c.stats.Areas, eps, c.stats.TotalRecords()))
	c.lastReport = now
	c.lastCount = total
}

// Stats returns a copy of the current statistics.
func (c *Counter) Stats() *Stats {
	s := c.stats
	s.Records = make(map[string]int64, len(c.stats.Records))
	for k, v := range c.stats.Records {
		s.Records[k] = v
	}
	s.Duration = time.Since(c.start)
	return &s
}
