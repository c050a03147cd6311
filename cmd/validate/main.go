// Command validate checks a table artifact for internal consistency and for
// drift against the live dew point calculator source: table geometry, cell
// values, the source checksum, and spot lookups.
//
// Usage:
//
//	go run ./cmd/validate -artifact tables.json
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/preservation-eval/internal/dpcalc"
	"github.com/couchcryptid/preservation-eval/internal/lookup"
	"github.com/couchcryptid/preservation-eval/internal/observability"
	"github.com/couchcryptid/preservation-eval/internal/tables"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	artifactPath := flag.String("artifact", "tables.json", "path to the table artifact")
	url := flag.String("url", "", "source URL to compare against (defaults to the artifact's recorded source)")
	timeout := flag.Duration("timeout", 10*time.Second, "fetch timeout")
	flag.Parse()

	if code := run(*artifactPath, *url, *timeout); code != 0 {
		os.Exit(code)
	}
}

func run(artifactPath, url string, timeout time.Duration) int {
	fmt.Println("=== Preservation Table Validation ===")
	fmt.Println()

	artifact, err := tables.ReadArtifact(artifactPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load artifact: %v\n", err)
		return 1
	}

	stored, err := artifact.Tables()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: rebuild tables from artifact: %v\n", err)
		return 1
	}

	if url == "" {
		url = artifact.SourceURL
	}
	if url == "" {
		fmt.Fprintln(os.Stderr, "FATAL: artifact has no source URL; pass -url")
		return 1
	}

	live, checksum, err := fetchLiveTables(url, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build tables from live source: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateArtifactIntegrity(artifact, stored),
		validateSourceParity(artifact, stored, live, checksum),
		validateValueDrift(stored, live),
		validateSpotLookups(stored, live),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// fetchLiveTables downloads and assembles the tables from the live source.
func fetchLiveTables(url string, timeout time.Duration) (*tables.Set, string, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	// One-shot command with no metrics endpoint: keep the collectors
	// unregistered.
	metrics := observability.NewMetricsForTesting()

	client := dpcalc.NewClient(url, timeout, metrics, logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	src, err := client.Fetch(ctx)
	if err != nil {
		return nil, "", err
	}

	meta, piArr, emcArr, err := dpcalc.Parse(string(src))
	if err != nil {
		return nil, "", err
	}

	set, err := tables.Assemble(meta, piArr, emcArr, logger)
	if err != nil {
		return nil, "", err
	}

	sum := sha256.Sum256(src)
	return set, hex.EncodeToString(sum[:]), nil
}

// ── Phase 1: Artifact Integrity ──
// The artifact must rebuild into tables with the expected boundary policies
// and coherent geometry.

func validateArtifactIntegrity(artifact *tables.Artifact, stored *tables.Set) *phase {
	p := &phase{name: "Phase 1: Artifact Integrity"}

	if stored.PI.Behavior() != lookup.Clamp {
		p.errorf("pi table boundary is %s, want clamp", stored.PI.Behavior())
	}
	if stored.Mold.Behavior() != lookup.Raise {
		p.errorf("mold table boundary is %s, want raise", stored.Mold.Behavior())
	}
	if stored.EMC.Behavior() != lookup.Clamp {
		p.errorf("emc table boundary is %s, want clamp", stored.EMC.Behavior())
	}

	if artifact.GeneratedAt.IsZero() {
		p.errorf("generated_at is zero")
	}
	if artifact.SourceChecksum == "" {
		p.errorf("source_checksum is empty")
	}

	if stored.PI.TempMin() > stored.Mold.TempMin() || stored.PI.TempMax() < stored.Mold.TempMax() {
		p.errorf("mold temperature window %d..%d is not inside the pi window %d..%d",
			stored.Mold.TempMin(), stored.Mold.TempMax(), stored.PI.TempMin(), stored.PI.TempMax())
	}

	return p
}

// ── Phase 2: Source Parity ──
// The artifact's recorded geometry and checksum must match a fresh extraction.

func validateSourceParity(artifact *tables.Artifact, stored, live *tables.Set, liveChecksum string) *phase {
	p := &phase{name: "Phase 2: Source Parity (geometry)"}

	if artifact.SourceChecksum != "" && artifact.SourceChecksum != liveChecksum {
		p.errorf("source checksum changed: artifact=%s live=%s", artifact.SourceChecksum, liveChecksum)
	}

	compareGeometry(p, "pi", stored.PI, live.PI)
	compareGeometry(p, "mold", stored.Mold, live.Mold)
	compareGeometry(p, "emc", stored.EMC, live.EMC)

	return p
}

func compareGeometry[T lookup.Value](p *phase, name string, stored, live *lookup.Table[T]) {
	if stored.TempMin() != live.TempMin() || stored.TempMax() != live.TempMax() {
		p.errorf("%s temperature range: artifact %d..%d, live %d..%d",
			name, stored.TempMin(), stored.TempMax(), live.TempMin(), live.TempMax())
	}
	if stored.RHMin() != live.RHMin() || stored.RHMax() != live.RHMax() {
		p.errorf("%s humidity range: artifact %d..%d, live %d..%d",
			name, stored.RHMin(), stored.RHMax(), live.RHMin(), live.RHMax())
	}
}

// ── Phase 3: Value Drift ──
// Every cell in the artifact must match the live extraction.

func validateValueDrift(stored, live *tables.Set) *phase {
	p := &phase{name: "Phase 3: Value Drift (cells)"}

	compareGrids(p, "pi", stored.PI, live.PI)
	compareGrids(p, "mold", stored.Mold, live.Mold)
	compareGrids(p, "emc", stored.EMC, live.EMC)

	return p
}

func compareGrids[T lookup.Value](p *phase, name string, stored, live *lookup.Table[T]) {
	sRows, sCols := stored.Dims()
	lRows, lCols := live.Dims()
	if sRows != lRows || sCols != lCols {
		p.errorf("%s dimensions: artifact %dx%d, live %dx%d", name, sRows, sCols, lRows, lCols)
		return
	}

	sGrid, lGrid := stored.Grid(), live.Grid()
	diffs := 0
	for i := range sGrid {
		for j := range sGrid[i] {
			if !valueEq(sGrid[i][j], lGrid[i][j]) {
				diffs++
			}
		}
	}
	if diffs > 0 {
		p.errorf("%s: %d of %d cells differ from the live source", name, diffs, stored.Size())
	}
}

func valueEq[T lookup.Value](a, b T) bool {
	return math.Abs(float64(a)-float64(b)) < 1e-9
}

// ── Phase 4: Spot Lookups ──
// A handful of lookups across the grid, including clamped edges and the
// mold window boundary, must agree between the artifact and the live source.

func validateSpotLookups(stored, live *tables.Set) *phase {
	p := &phase{name: "Phase 4: Spot Lookups"}

	points := samplePoints(stored.PI.TempMin(), stored.PI.TempMax(), stored.PI.RHMin(), stored.PI.RHMax())

	for _, pt := range points {
		checkLookup(p, "pi", stored.PI, live.PI, pt.t, pt.rh)
		checkLookup(p, "mold", stored.Mold, live.Mold, pt.t, pt.rh)
		checkLookup(p, "emc", stored.EMC, live.EMC, pt.t, pt.rh)
	}

	return p
}

type point struct{ t, rh float64 }

// samplePoints covers the corners, the center, and coordinates outside the
// grid that exercise the boundary behavior.
func samplePoints(tempMin, tempMax, rhMin, rhMax int) []point {
	tMid := float64(tempMin+tempMax) / 2
	rhMid := float64(rhMin+rhMax) / 2
	return []point{
		{float64(tempMin), float64(rhMin)},
		{float64(tempMin), float64(rhMax)},
		{float64(tempMax), float64(rhMin)},
		{float64(tempMax), float64(rhMax)},
		{tMid, rhMid},
		{tMid + 0.4, rhMid - 0.4},
		{float64(tempMin) - 5, rhMid},
		{float64(tempMax) + 5, rhMid},
		{tMid, float64(rhMax) + 5},
	}
}

func checkLookup[T lookup.Value](p *phase, name string, stored, live *lookup.Table[T], t, rh float64) {
	sv, sErr := stored.At(t, rh)
	lv, lErr := live.At(t, rh)

	if (sErr == nil) != (lErr == nil) {
		p.errorf("%s at (%g, %g): artifact err=%v, live err=%v", name, t, rh, sErr, lErr)
		return
	}
	if sErr == nil && !valueEq(sv, lv) {
		p.errorf("%s at (%g, %g): artifact=%v, live=%v", name, t, rh, sv, lv)
	}
}
