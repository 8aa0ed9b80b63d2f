// Package config parses the command line options and the optional JSON
// config file of osmconvert.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/omniscale/osmconvert/cache"
	"github.com/pkg/errors"
)

// Config is the content of the JSON config file. Options that are set on
// the command line take precedence.
type Config struct {
	MappingFile            string `json:"mapping"`
	Cache                  string `json:"cache"`
	CacheDir               string `json:"cachedir"`
	PlainSQLite            bool   `json:"plain_sqlite"`
	AbortOnInvalidGeometry bool   `json:"abort_on_invalid_geometry"`
}

const defaultCache = "memory"

type Options struct {
	MappingFile            string `short:"m" long:"mapping" description:"YAML mapping file (default: built-in demo mapping)"`
	ConfigFile             string `long:"config" description:"JSON config file"`
	Cache                  string `long:"cache" description:"coordinate cache: memory, badger or leveldb (default: memory)"`
	CacheDir               string `long:"cachedir" description:"directory of the badger or leveldb cache"`
	PlainSQLite            bool   `long:"plain-sqlite" description:"write plain SQLite tables with WKB geometries"`
	Quiet                  bool   `long:"quiet" description:"only log warnings and errors"`
	Debug                  bool   `long:"debug" description:"log debug messages"`
	AbortOnInvalidGeometry bool   `long:"abort-on-invalid-geometry" description:"stop at the first entity without geometry"`

	Args struct {
		Input  string `positional-arg-name:"OSMFILE" description:"input .osm.pbf file"`
		Output string `positional-arg-name:"OUTPUT" description:"output .sqlite file, postgis:// URL or null:"`
	} `positional-args:"yes" required:"yes"`
}

func newParser(opts *Options) *flags.Parser {
	p := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	p.Usage = "[OPTIONS] OSMFILE OUTPUT"
	return p
}

// Parse parses the command line arguments (without program name) and
// merges the config file. flags.ErrHelp is returned as *flags.Error for
// -h/--help.
func Parse(args []string) (*Options, error) {
	opts := &Options{}
	rest, err := newParser(opts).ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, errors.Errorf("expected two arguments, got %d", len(rest)+2)
	}
	if err := opts.updateFromConfig(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Usage writes the help message.
func Usage(w io.Writer) {
	newParser(&Options{}).WriteHelp(w)
}

// IsHelp returns true for the error of -h/--help.
func IsHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}

func (o *Options) updateFromConfig() error {
	conf := &Config{}
	if o.ConfigFile != "" {
		f, err := os.Open(o.ConfigFile)
		if err != nil {
			return errors.Wrap(err, "reading config")
		}
		defer f.Close()
		decoder := json.NewDecoder(f)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(conf); err != nil {
			return errors.Wrapf(err, "parsing config %s", o.ConfigFile)
		}
	}

	if o.MappingFile == "" {
		o.MappingFile = conf.MappingFile
	}
	if o.Cache == "" {
		o.Cache = conf.Cache
	}
	if o.Cache == "" {
		o.Cache = defaultCache
	}
	if o.CacheDir == "" {
		o.CacheDir = conf.CacheDir
	}
	if !o.PlainSQLite {
		o.PlainSQLite = conf.PlainSQLite
	}
	if !o.AbortOnInvalidGeometry {
		o.AbortOnInvalidGeometry = conf.AbortOnInvalidGeometry
	}
	return nil
}

// Check returns all errors of the options.
func (o *Options) Check() []error {
	errs := []error{}
	if _, err := os.Stat(o.Args.Input); err != nil {
		errs = append(errs, errors.Errorf("input %s not found", o.Args.Input))
	}
	if IsFileOutput(o.Args.Output) {
		if _, err := os.Stat(o.Args.Output); err == nil {
			errs = append(errs, errors.Errorf("output %s already exists", o.Args.Output))
		}
	}
	known := false
	for _, b := range cache.Backends {
		if o.Cache == b {
			known = true
		}
	}
	if !known {
		errs = append(errs, errors.Errorf("unknown cache %q, use one of %s", o.Cache, strings.Join(cache.Backends, ", ")))
	} else if o.Cache != defaultCache && o.CacheDir == "" {
		errs = append(errs, errors.Errorf("--cachedir required for %s cache", o.Cache))
	}
	if o.Quiet && o.Debug {
		errs = append(errs, errors.New("--quiet and --debug are exclusive"))
	}
	return errs
}

var connectionPrefixes = []string{"postgis://", "postgres://", "null:"}

// IsFileOutput returns true if the output is a SQLite file.
func IsFileOutput(output string) bool {
	for _, p := range connectionPrefixes {
		if strings.HasPrefix(output, p) {
			return false
		}
	}
	return true
}

// Connection returns the database connection for the output.
func (o *Options) Connection() string {
	out := o.Args.Output
	if !IsFileOutput(out) {
		return out
	}
	if o.PlainSQLite {
		return "sqlite://" + out
	}
	return "spatialite://" + out
}

func (o *Options) String() string {
	return fmt.Sprintf("input=%s output=%s mapping=%s cache=%s", o.Args.Input, o.Args.Output, o.MappingFile, o.Cache)
}
