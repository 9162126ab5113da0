package bands

import (
	"fmt"
	"math"
	"sort"
)

// Validate re-checks every scale of the table. Tables built through NewTable
// are already valid; this is used by the property tests and the CLI.
func (t *Table) Validate() []string {
	var errs []string
	for _, s := range t.Scales() {
		errs = append(errs, validateScale(s)...)
	}
	sort.Strings(errs)
	return errs
}

func validateScale(s Scale) []string {
	name := scaleName(s)
	var errs []string
	if string(s.Kind) == "" {
		errs = append(errs, "scale kind is required")
	}
	if !s.Direction.Valid() {
		errs = append(errs, fmt.Sprintf("%s: direction must be one of: %s, %s", name, HigherIsWorse, HigherIsBetter))
	}
	if len(s.Bands) == 0 {
		return append(errs, fmt.Sprintf("%s: at least one band is required", name))
	}
	first := s.Bands[0]
	last := s.Bands[len(s.Bands)-1]
	if !math.IsInf(first.Lower, -1) {
		errs = append(errs, fmt.Sprintf("%s: first band %s must start at -Inf, got %g", name, first.Label, first.Lower))
	}
	if !math.IsInf(last.Upper, 1) {
		errs = append(errs, fmt.Sprintf("%s: last band %s must end at +Inf, got %g", name, last.Label, last.Upper))
	}
	seen := map[Label]bool{}
	for i, b := range s.Bands {
		if !b.Label.Valid() {
			errs = append(errs, fmt.Sprintf("%s: band %d has unknown label %q", name, i, b.Label))
		}
		if seen[b.Label] {
			errs = append(errs, fmt.Sprintf("%s: duplicate label %s", name, b.Label))
		}
		seen[b.Label] = true
		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || !(b.Lower < b.Upper) {
			errs = append(errs, fmt.Sprintf("%s: band %s must satisfy lower < upper, got [%g, %g]", name, b.Label, b.Lower, b.Upper))
		}
		if i == 0 {
			continue
		}
		prev := s.Bands[i-1]
		switch {
		case prev.Upper < b.Lower:
			errs = append(errs, fmt.Sprintf("%s: gap between %s and %s (%g..%g)", name, prev.Label, b.Label, prev.Upper, b.Lower))
		case prev.Upper > b.Lower:
			errs = append(errs, fmt.Sprintf("%s: overlap between %s and %s (%g..%g)", name, prev.Label, b.Label, b.Lower, prev.Upper))
		}
		if !severityOrdered(s.Direction, prev, b) {
			errs = append(errs, fmt.Sprintf("%s: bands %s and %s are not ordered by severity", name, prev.Label, b.Label))
		}
	}
	return errs
}

func severityOrdered(dir Direction, lower, upper Band) bool {
	if dir == HigherIsWorse {
		return upper.Severity < lower.Severity
	}
	return upper.Severity > lower.Severity
}
