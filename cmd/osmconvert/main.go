package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omniscale/osmconvert"
	"github.com/omniscale/osmconvert/cache"
	"github.com/omniscale/osmconvert/config"
	"github.com/omniscale/osmconvert/convert"
	"github.com/omniscale/osmconvert/database"
	_ "github.com/omniscale/osmconvert/database/sql/postgis"
	_ "github.com/omniscale/osmconvert/database/sql/spatialite"
	"github.com/omniscale/osmconvert/logging"
	mconfig "github.com/omniscale/osmconvert/mapping/config"
	"github.com/omniscale/osmconvert/reader"
)

var log = logging.NewLogger("")

func usage() {
	fmt.Fprintf(os.Stderr, "osmconvert %s\n", osmconvert.Version)
	config.Usage(os.Stderr)
}

func main() {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			usage()
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(1)
	}
	if errs := opts.Check(); len(errs) != 0 {
		fmt.Fprintln(os.Stderr, "errors in config/options:")
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "\t%s\n", err)
		}
		os.Exit(1)
	}

	if opts.Quiet {
		logging.SetQuiet(true)
	}
	if opts.Debug {
		logging.SetLevel(logging.DEBUG)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}

// run converts the input into the output. A file output is removed again
// if the conversion fails, as it did not exist before.
func run(ctx context.Context, opts *config.Options) (err error) {
	var m *mconfig.Mapping
	if opts.MappingFile != "" {
		if m, err = mconfig.FromFile(opts.MappingFile); err != nil {
			return err
		}
	}

	coords, err := cache.Open(opts.Cache, opts.CacheDir)
	if err != nil {
		return err
	}
	defer coords.Close()

	src, err := reader.OpenPBF(opts.Args.Input, coords)
	if err != nil {
		return err
	}
	defer src.Close()

	db, err := database.Open(database.Config{
		ConnectionParams: opts.Connection(),
		Srid:             4326,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil && config.IsFileOutput(opts.Args.Output) {
			if rmErr := os.Remove(opts.Args.Output); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warnf("removing %s: %s", opts.Args.Output, rmErr)
			}
		}
	}()

	c := convert.New(db, convert.Options{
		AbortOnInvalidGeometry: opts.AbortOnInvalidGeometry,
		ProgressInterval:       time.Second,
	})
	if m != nil {
		err = c.Load(m)
	} else {
		err = defaultMapping(c)
	}
	if err != nil {
		return err
	}

	st, err := c.Run(ctx, src)
	if err != nil {
		return err
	}
	log.Printf("wrote %d records into %d layers", st.TotalRecords(), len(c.Registry().Layers()))
	return nil
}
