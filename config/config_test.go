package config

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	opts, err := Parse([]string{"-m", "roads.yml", "--cache", "badger", "--cachedir", "/tmp/cache", "in.pbf", "out.sqlite"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.MappingFile != "roads.yml" || opts.Cache != "badger" || opts.CacheDir != "/tmp/cache" {
		t.Error(opts)
	}
	if opts.Args.Input != "in.pbf" || opts.Args.Output != "out.sqlite" {
		t.Error(opts.Args)
	}
	if c := opts.Connection(); c != "spatialite://out.sqlite" {
		t.Error(c)
	}

	opts, err = Parse([]string{"--plain-sqlite", "in.pbf", "out.sqlite"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Cache != "memory" {
		t.Error("default cache", opts.Cache)
	}
	if c := opts.Connection(); c != "sqlite://out.sqlite" {
		t.Error(c)
	}
}

func TestParseArgCount(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"in.pbf"},
		{"in.pbf", "out.sqlite", "more"},
	} {
		if _, err := Parse(args); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
	_, err := Parse([]string{"--help"})
	if !IsHelp(err) {
		t.Error("expected help, got", err)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "config.json")
	err := ioutil.WriteFile(conf, []byte(`{"mapping": "conf.yml", "cache": "leveldb", "cachedir": "/tmp/ldb", "plain_sqlite": true}`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	opts, err := Parse([]string{"--config", conf, "--mapping", "cmd.yml", "in.pbf", "out.sqlite"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.MappingFile != "cmd.yml" {
		t.Error("command line option not preferred", opts.MappingFile)
	}
	if opts.Cache != "leveldb" || opts.CacheDir != "/tmp/ldb" || !opts.PlainSQLite {
		t.Error("config not merged", opts)
	}

	if err := ioutil.WriteFile(conf, []byte(`{"srid": 3857}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse([]string{"--config", conf, "in.pbf", "out.sqlite"}); err == nil {
		t.Error("expected error for unknown config field")
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.pbf")
	output := filepath.Join(dir, "out.sqlite")
	if err := ioutil.WriteFile(input, nil, 0644); err != nil {
		t.Fatal(err)
	}

	opts, err := Parse([]string{input, output})
	if err != nil {
		t.Fatal(err)
	}
	if errs := opts.Check(); len(errs) != 0 {
		t.Fatal(errs)
	}

	if err := ioutil.WriteFile(output, nil, 0644); err != nil {
		t.Fatal(err)
	}
	errs := opts.Check()
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "already exists") {
		t.Error(errs)
	}

	opts.Args.Output = "postgis://localhost/osm"
	opts.Args.Input = filepath.Join(dir, "missing.pbf")
	opts.Cache = "badger"
	opts.Quiet, opts.Debug = true, true
	if errs := opts.Check(); len(errs) != 3 {
		t.Error(errs)
	}
	opts.Cache = "redis"
	opts.CacheDir = dir
	if errs := opts.Check(); len(errs) != 3 {
		t.Error(errs)
	}
}

func TestConnection(t *testing.T) {
	for _, tc := range []struct {
		output, conn string
	}{
		{"postgis://localhost/osm", "postgis://localhost/osm"},
		{"postgres://localhost/osm", "postgres://localhost/osm"},
		{"null:", "null:"},
		{"out.sqlite", "spatialite://out.sqlite"},
	} {
		opts := &Options{}
		opts.Args.Output = tc.output
		if c := opts.Connection(); c != tc.conn {
			t.Errorf("%s: %s != %s", tc.output, c, tc.conn)
		}
	}
}
