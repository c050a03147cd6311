package dpcalc

import "regexp"

// Extraction rules for the dp.js source. Each rule is independent: a change
// in the upstream formatting of one construct only requires updating that
// rule. The patterns mirror the JavaScript the calculator actually ships:
//
//	pitable = new Array(9594);
//	var pi = function(t, rh) {
//	    return pitable[((t < -23 ? -23 : t > 65 ? 65 : Math.round(t)) + 23) * 90
//	        + (rh < 6 ? 6 : rh > 95 ? 95 : Math.round(rh)) - 6];
//	}
//	if (t > 45 || t < 2 || rh < 65) return 0;
//	return pitable[8010 + (Math.round(t) - 2) * 36 + Math.round(rh) - 65];
//	return emctable[(Math.max(-20, Math.min(65, Math.round(t))) + 20) * 101
//	    + Math.round(rh)];
//	pitable = [6245,5883, ...];
//	emctable = [0.0,0.6, ...];
//
// A rule failing to match is an extraction failure for the whole run; the
// parser never falls back to partial results.

// rule is a named, independently failable field extractor.
type rule struct {
	name string
	re   *regexp.Regexp
}

// match runs the rule against the source and returns named capture groups.
// A miss is reported as an ExtractionError carrying the rule name.
func (r rule) match(src string) (map[string]string, error) {
	m := r.re.FindStringSubmatch(src)
	if m == nil {
		return nil, &ExtractionError{Rule: r.name}
	}
	groups := make(map[string]string)
	for i, name := range r.re.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}
	return groups, nil
}

var (
	// Array size declarations: pitable = new Array(9594).
	piArraySizeRule = rule{"pi_array_size", regexp.MustCompile(
		`pitable\s*=\s*new\s*Array\s*\(\s*(?P<size>\d+)\s*\)`)}
	emcArraySizeRule = rule{"emc_array_size", regexp.MustCompile(
		`emctable\s*=\s*new\s*Array\s*\(\s*(?P<size>\d+)\s*\)`)}

	// The pi function's boundary-clamp expression declares the decay-index
	// table's full geometry: temperature min/max, offset, humidity min/max,
	// offset, and row width.
	piRangesRule = rule{"pi_ranges", regexp.MustCompile(
		`var\s+pi\s*=\s*function\s*\(\s*t\s*,\s*rh\s*\)\s*\{` +
			`\s*return\s+pitable\s*\[\s*\(\s*\(\s*` +
			`t\s*<\s*(?P<temp_min>-\d+)\s*\?\s*-\d+\s*:\s*` +
			`t\s*>\s*(?P<temp_max>\d+)\s*\?\s*\d+\s*:\s*` +
			`Math\.round\s*\(\s*t\s*\)\s*\)\s*\+\s*` +
			`(?P<temp_offset>\d+)\s*\)\s*\*\s*` +
			`(?P<rh_size>\d+)\s*\+\s*\(\s*` +
			`rh\s*<\s*(?P<rh_min>\d+)\s*\?\s*\d+\s*:\s*` +
			`rh\s*>\s*(?P<rh_max>\d+)\s*\?\s*\d+\s*:\s*` +
			`Math\.round\s*\(\s*rh\s*\)\s*\)\s*` +
			`(?P<rh_offset>-\s*\d+)\s*\]`)}

	// The mold function guards its validity window with an early return, then
	// indexes the shared pitable at a fixed offset.
	moldRangesRule = rule{"mold_ranges", regexp.MustCompile(
		`if\s*\(\s*` +
			`t\s*>\s*(?P<temp_max>\d+)\s*\|\|\s*` +
			`t\s*<\s*(?P<temp_min>\d+)\s*\|\|\s*` +
			`rh\s*<\s*(?P<rh_min>\d+)\s*\)\s*return\s*0\s*;` +
			`\s*return\s+pitable\s*\[\s*` +
			`(?P<offset>\d+)\s*\+\s*` +
			`\(\s*Math\.round\s*\(\s*t\s*\)\s*-\s*\d+\s*\)\s*\*\s*` +
			`(?P<rh_size>\d+)\s*\+\s*` +
			`Math\.round\s*\(\s*rh\s*\)\s*` +
			`(?P<rh_offset>-\s*\d+)\s*\]`)}

	// The emc function clamps with Math.max/Math.min instead of ternaries and
	// carries no humidity bounds: the full 0..100 range is implied by the row
	// width.
	emcRangesRule = rule{"emc_ranges", regexp.MustCompile(
		`return\s+emctable\s*\[\s*\(\s*` +
			`Math\.max\s*\(\s*(?P<temp_min>-\d+)\s*,\s*` +
			`Math\.min\s*\(\s*(?P<temp_max>\d+)\s*,\s*` +
			`Math\.round\s*\(\s*t\s*\)\s*\)\s*\)\s*\+\s*` +
			`(?P<temp_offset>\d+)\s*\)\s*\*\s*` +
			`(?P<rh_size>\d+)\s*\+\s*` +
			`Math\.round\s*\(\s*rh\s*\)\s*\]`)}

	// Data literal blocks: integer values for the shared pi/mold array,
	// decimal values for the emc array.
	piDataRule = rule{"pi_data", regexp.MustCompile(
		`pitable\s*=\s*\[\s*(?P<values>\d+\s*(?:,\s*\d+\s*)*)\s*\]`)}
	emcDataRule = rule{"emc_data", regexp.MustCompile(
		`emctable\s*=\s*\[\s*(?P<values>\d*\.?\d+\s*(?:,\s*\d*\.?\d+\s*)*)\s*\]`)}
)
