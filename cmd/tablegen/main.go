// Command tablegen fetches the dew point calculator source, extracts the
// preservation lookup tables, and writes the table artifact that evald
// serves from.
//
// Usage:
//
//	go run ./cmd/tablegen -out tables.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/preservation-eval/internal/dpcalc"
	"github.com/couchcryptid/preservation-eval/internal/observability"
	"github.com/couchcryptid/preservation-eval/internal/tables"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	url := flag.String("url", "http://www.dpcalc.org/dp.js", "dew point calculator source URL")
	out := flag.String("out", "tables.json", "output path for the table artifact")
	timeout := flag.Duration("timeout", 10*time.Second, "fetch timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	metrics := observability.NewMetrics()

	client := dpcalc.NewClient(*url, *timeout, metrics, logger)

	set, artifact, err := tables.Generate(context.Background(), client, clockwork.NewRealClock(), metrics, logger)
	if err != nil {
		return fmt.Errorf("generate tables: %w", err)
	}

	if err := artifact.WriteFile(*out); err != nil {
		return err
	}

	piRows, piCols := set.PI.Dims()
	moldRows, moldCols := set.Mold.Dims()
	emcRows, emcCols := set.EMC.Dims()
	log.Printf("pi: %dx%d, mold: %dx%d, emc: %dx%d", piRows, piCols, moldRows, moldCols, emcRows, emcCols)
	log.Printf("source checksum: %s", artifact.SourceChecksum)
	log.Printf("wrote %s", *out)
	return nil
}
