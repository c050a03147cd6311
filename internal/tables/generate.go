package tables

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/preservation-eval/internal/dpcalc"
	"github.com/couchcryptid/preservation-eval/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Generate runs the full table-generation pipeline: fetch the source
// document, parse and cross-check it, assemble the table set, and capture an
// artifact with provenance. Each run is independent; no state survives
// between runs.
func Generate(ctx context.Context, client *dpcalc.Client, clk clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) (*Set, *Artifact, error) {
	src, err := client.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}

	meta, piArr, emcArr, err := dpcalc.Parse(string(src))
	if err != nil {
		metrics.ParseFailures.WithLabelValues(parseStage(err)).Inc()
		return nil, nil, fmt.Errorf("parse source: %w", err)
	}

	set, err := Assemble(meta, piArr, emcArr, logger)
	if err != nil {
		metrics.ParseFailures.WithLabelValues(parseStage(err)).Inc()
		return nil, nil, fmt.Errorf("assemble tables: %w", err)
	}

	sum := sha256.Sum256(src)
	artifact := NewArtifact(set, client.URL(), hex.EncodeToString(sum[:]), clk.Now().UTC())

	metrics.TablesGenerated.Inc()
	logger.Info("generated table set",
		"source", client.URL(),
		"pi_size", set.PI.Size(),
		"mold_size", set.Mold.Size(),
		"emc_size", set.EMC.Size(),
	)
	return set, artifact, nil
}

func parseStage(err error) string {
	var ve *dpcalc.ValidationError
	if errors.As(err, &ve) {
		return "validation"
	}
	return "extraction"
}
