// Package dpcalc extracts preservation lookup tables from the Image
// Permanence Institute's Dew Point Calculator JavaScript source (dp.js).
//
// The source packs two logical tables (decay index and mold risk) into one
// flat pitable array back-to-back, and a third (equilibrium moisture content)
// into emctable. Table geometry is not declared anywhere; it is recovered
// from the boundary-clamp expressions inside the calculator's own lookup
// functions, then cross-checked against the declared array sizes so a
// reformatted or misparsed source can never produce silently wrong tables.
package dpcalc

import (
	"math"
	"strconv"
	"strings"
)

// TableMeta describes the geometry of one logical table inside the source:
// its real-world axis ranges and its start offset within the shared flat
// array. Produced fresh on every parse and consumed immediately.
type TableMeta struct {
	TempMin int
	TempMax int
	RHMin   int
	RHMax   int

	// ArrayOffset is the table's start position within the shared pitable
	// array. Zero for all tables except mold risk.
	ArrayOffset int
}

// TempRange returns the number of temperature steps (rows).
func (m TableMeta) TempRange() int { return m.TempMax - m.TempMin + 1 }

// RHRange returns the number of humidity steps (columns).
func (m TableMeta) RHRange() int { return m.RHMax - m.RHMin + 1 }

// Size returns the element count the table occupies in its flat array.
func (m TableMeta) Size() int { return m.TempRange() * m.RHRange() }

// Metadata holds the geometry of all three logical tables.
type Metadata struct {
	PI   TableMeta
	Mold TableMeta
	EMC  TableMeta
}

// The full humidity range 0..100; the emc lookup carries no explicit
// humidity bounds, so the row width must account for every percentage point.
const fullRHRange = 101

// Parse runs the complete extraction pipeline against the source text:
// array sizes, per-table geometry, cross-checks, and the raw data arrays.
// Any failure aborts the parse with no partial results.
func Parse(src string) (Metadata, []int16, []float64, error) {
	piSize, emcSize, err := ExtractArraySizes(src)
	if err != nil {
		return Metadata{}, nil, nil, err
	}

	meta, err := ExtractMetadata(src)
	if err != nil {
		return Metadata{}, nil, nil, err
	}

	if err := CrossCheck(meta, piSize, emcSize); err != nil {
		return Metadata{}, nil, nil, err
	}

	piArr, emcArr, err := ExtractRawArrays(src, meta)
	if err != nil {
		return Metadata{}, nil, nil, err
	}
	return meta, piArr, emcArr, nil
}

// ExtractArraySizes returns the declared element counts of the combined
// pi/mold array and the emc array.
func ExtractArraySizes(src string) (piSize, emcSize int, err error) {
	piSize, err = extractSize(src, piArraySizeRule)
	if err != nil {
		return 0, 0, err
	}
	emcSize, err = extractSize(src, emcArraySizeRule)
	if err != nil {
		return 0, 0, err
	}
	return piSize, emcSize, nil
}

func extractSize(src string, r rule) (int, error) {
	groups, err := r.match(src)
	if err != nil {
		return 0, err
	}
	size, err := strconv.Atoi(groups["size"])
	if err != nil || size <= 0 {
		return 0, &ExtractionError{Rule: r.name, Reason: "declared size must be a positive integer, got " + groups["size"]}
	}
	return size, nil
}

// ExtractMetadata recovers the geometry of all three tables from the
// calculator's boundary-clamp expressions. Each table's declared offsets are
// checked against its minimums: the source indexes its arrays with
// `Math.round(t) + offset`, so offset must equal the negated minimum or the
// expressions were misread.
func ExtractMetadata(src string) (Metadata, error) {
	pi, err := extractPIMeta(src)
	if err != nil {
		return Metadata{}, err
	}
	mold, err := extractMoldMeta(src)
	if err != nil {
		return Metadata{}, err
	}
	emc, err := extractEMCMeta(src)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{PI: pi, Mold: mold, EMC: emc}, nil
}

func extractPIMeta(src string) (TableMeta, error) {
	groups, err := piRangesRule.match(src)
	if err != nil {
		return TableMeta{}, err
	}

	meta := TableMeta{
		TempMin: toInt(groups["temp_min"]),
		TempMax: toInt(groups["temp_max"]),
		RHMin:   toInt(groups["rh_min"]),
		RHMax:   toInt(groups["rh_max"]),
	}
	if rhSize := toInt(groups["rh_size"]); rhSize != meta.RHRange() {
		return TableMeta{}, validationErrorf(
			"pi table row width %d disagrees with humidity range %d..%d", rhSize, meta.RHMin, meta.RHMax)
	}
	if err := checkOffsets(meta, groups["temp_offset"], groups["rh_offset"], "pi"); err != nil {
		return TableMeta{}, err
	}
	return meta, nil
}

func extractMoldMeta(src string) (TableMeta, error) {
	groups, err := moldRangesRule.match(src)
	if err != nil {
		return TableMeta{}, err
	}

	meta := TableMeta{
		TempMin:     toInt(groups["temp_min"]),
		TempMax:     toInt(groups["temp_max"]),
		RHMin:       toInt(groups["rh_min"]),
		ArrayOffset: toInt(groups["offset"]),
	}
	meta.RHMax = meta.RHMin + toInt(groups["rh_size"]) - 1

	if rhOffset := toInt(groups["rh_offset"]); rhOffset != -meta.RHMin {
		return TableMeta{}, validationErrorf(
			"mold table humidity offset %d must equal negated humidity minimum %d", rhOffset, meta.RHMin)
	}
	return meta, nil
}

func extractEMCMeta(src string) (TableMeta, error) {
	groups, err := emcRangesRule.match(src)
	if err != nil {
		return TableMeta{}, err
	}

	meta := TableMeta{
		TempMin: toInt(groups["temp_min"]),
		TempMax: toInt(groups["temp_max"]),
	}
	rhSize := toInt(groups["rh_size"])
	if rhSize != fullRHRange {
		return TableMeta{}, validationErrorf(
			"emc table row width %d cannot resolve a humidity minimum; expected the full range %d", rhSize, fullRHRange)
	}
	meta.RHMin = 0
	meta.RHMax = fullRHRange - 1

	if tempOffset := toInt(groups["temp_offset"]); tempOffset != -meta.TempMin {
		return TableMeta{}, validationErrorf(
			"emc table temperature offset %d must equal negated temperature minimum %d", tempOffset, meta.TempMin)
	}
	return meta, nil
}

// checkOffsets enforces offset == -minimum on both axes.
func checkOffsets(meta TableMeta, tempOffset, rhOffset, table string) error {
	if off := toInt(tempOffset); off != -meta.TempMin {
		return validationErrorf(
			"%s table temperature offset %d must equal negated temperature minimum %d", table, off, meta.TempMin)
	}
	if off := toInt(rhOffset); off != -meta.RHMin {
		return validationErrorf(
			"%s table humidity offset %d must equal negated humidity minimum %d", table, off, meta.RHMin)
	}
	return nil
}

// CrossCheck validates the extracted geometry against the declared array
// sizes. The mold table's offset equaling the pi table's size is the only
// guarantee that the two tables sharing one physical array can be sliced
// apart correctly.
func CrossCheck(meta Metadata, piArraySize, emcArraySize int) error {
	if got := meta.PI.Size() + meta.Mold.Size(); got != piArraySize {
		return validationErrorf(
			"pi + mold table sizes %d disagree with declared pitable size %d", got, piArraySize)
	}
	if meta.Mold.ArrayOffset != meta.PI.Size() {
		return validationErrorf(
			"mold table offset %d must equal pi table size %d", meta.Mold.ArrayOffset, meta.PI.Size())
	}
	if meta.EMC.Size() != emcArraySize {
		return validationErrorf(
			"emc table size %d disagrees with declared emctable size %d", meta.EMC.Size(), emcArraySize)
	}
	return nil
}

// ExtractRawArrays pulls the comma-separated data literals out of the source
// and checks their element counts against the metadata exactly.
func ExtractRawArrays(src string, meta Metadata) ([]int16, []float64, error) {
	piGroups, err := piDataRule.match(src)
	if err != nil {
		return nil, nil, err
	}
	piArr, err := parseIntValues(piGroups["values"])
	if err != nil {
		return nil, nil, err
	}

	emcGroups, err := emcDataRule.match(src)
	if err != nil {
		return nil, nil, err
	}
	emcArr, err := parseFloatValues(emcGroups["values"])
	if err != nil {
		return nil, nil, err
	}

	if want := meta.PI.Size() + meta.Mold.Size(); len(piArr) != want {
		return nil, nil, validationErrorf("pitable has %d elements, metadata implies %d", len(piArr), want)
	}
	if want := meta.EMC.Size(); len(emcArr) != want {
		return nil, nil, validationErrorf("emctable has %d elements, metadata implies %d", len(emcArr), want)
	}
	return piArr, emcArr, nil
}

func parseIntValues(values string) ([]int16, error) {
	parts := strings.Split(values, ",")
	out := make([]int16, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &ExtractionError{Rule: piDataRule.name, Reason: "element " + strconv.Itoa(i) + " is not an integer"}
		}
		if v < math.MinInt16 || v > math.MaxInt16 {
			return nil, validationErrorf("pitable element %d (%d) outside int16 range", i, v)
		}
		out[i] = int16(v)
	}
	return out, nil
}

func parseFloatValues(values string) ([]float64, error) {
	parts := strings.Split(values, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, &ExtractionError{Rule: emcDataRule.name, Reason: "element " + strconv.Itoa(i) + " is not a number"}
		}
		out[i] = v
	}
	return out, nil
}

// toInt parses an integer that may carry whitespace between a sign and its
// digits, as the source formats negative offsets ("- 6").
func toInt(s string) int {
	v, _ := strconv.Atoi(strings.ReplaceAll(s, " ", ""))
	return v
}
