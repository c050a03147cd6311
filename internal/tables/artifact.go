package tables

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/preservation-eval/internal/lookup"
)

// tableDoc is the persisted form of one lookup table: enough to rebuild it
// without re-parsing the source.
type tableDoc[T lookup.Value] struct {
	TempMin  int    `json:"temp_min"`
	RHMin    int    `json:"rh_min"`
	Boundary string `json:"boundary"`
	Values   [][]T  `json:"values"`
}

func toDoc[T lookup.Value](t *lookup.Table[T]) tableDoc[T] {
	return tableDoc[T]{
		TempMin:  t.TempMin(),
		RHMin:    t.RHMin(),
		Boundary: t.Behavior().String(),
		Values:   t.Grid(),
	}
}

func (d tableDoc[T]) table(name string) (*lookup.Table[T], error) {
	behavior, err := lookup.ParseBoundary(d.Boundary)
	if err != nil {
		return nil, fmt.Errorf("%s table: %w", name, err)
	}
	t, err := lookup.New(d.Values, d.TempMin, d.RHMin, behavior)
	if err != nil {
		return nil, fmt.Errorf("%s table: %w", name, err)
	}
	return t, nil
}

// Artifact is the serialized representation of a generated table set, with
// provenance for the source it was extracted from.
type Artifact struct {
	SourceURL      string    `json:"source_url,omitempty"`
	SourceChecksum string    `json:"source_checksum,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`

	PI   tableDoc[int16]   `json:"pi_table"`
	Mold tableDoc[int16]   `json:"mold_table"`
	EMC  tableDoc[float64] `json:"emc_table"`
}

// NewArtifact captures a table set for persistence.
func NewArtifact(set *Set, sourceURL, checksum string, generatedAt time.Time) *Artifact {
	return &Artifact{
		SourceURL:      sourceURL,
		SourceChecksum: checksum,
		GeneratedAt:    generatedAt,
		PI:             toDoc(set.PI),
		Mold:           toDoc(set.Mold),
		EMC:            toDoc(set.EMC),
	}
}

// Tables rebuilds the table set from the artifact.
func (a *Artifact) Tables() (*Set, error) {
	pi, err := a.PI.table("pi")
	if err != nil {
		return nil, err
	}
	mold, err := a.Mold.table("mold")
	if err != nil {
		return nil, err
	}
	emc, err := a.EMC.table("emc")
	if err != nil {
		return nil, err
	}
	return &Set{PI: pi, Mold: mold, EMC: emc}, nil
}

// WriteFile persists the artifact as indented JSON.
func (a *Artifact) WriteFile(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// ReadArtifact loads a previously written artifact.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return &a, nil
}
