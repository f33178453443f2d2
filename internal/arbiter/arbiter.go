// Package arbiter combines per-axis quality verdicts into a single
// continue/stop decision for the refinement loop.
//
// The decision is a pure function of the verdicts it is given. Free-form
// reviewer text never influences it.
package arbiter

import (
	"fmt"
	"strings"

	"github.com/valpere/postcraft/internal/quality"
)

// Reasons reported on a Decision.
const (
	ReasonAccepted   = "all quality checks passed"
	ReasonIncomplete = "incomplete evaluation"
)

// Decision is the control-flow outcome of one review.
type Decision struct {
	ShouldExit bool              `json:"should_exit"`
	Reason     string            `json:"reason"`
	Verdicts   []quality.Verdict `json:"verdicts"`
}

// Acceptable reports whether status does not block exit on axis.
// belowRange is tolerated for tags and symbols but never for length.
func Acceptable(axis quality.Axis, status quality.Status) bool {
	switch status {
	case quality.StatusGood, quality.StatusAboveRangeButAcceptable:
		return true
	case quality.StatusBelowRange:
		return axis == quality.AxisTagDensity || axis == quality.AxisSymbolDensity
	default:
		return false
	}
}

// Decide returns ShouldExit=true only when every required axis is present
// and every supplied verdict is acceptable for its axis.
func Decide(verdicts []quality.Verdict) Decision {
	d := Decision{Verdicts: append([]quality.Verdict(nil), verdicts...)}

	seen := make(map[quality.Axis]bool, len(verdicts))
	for _, v := range verdicts {
		seen[v.Axis] = true
	}
	var missing []string
	for _, axis := range quality.Axes {
		if !seen[axis] {
			missing = append(missing, string(axis))
		}
	}
	if len(missing) > 0 {
		d.Reason = fmt.Sprintf("%s: missing %s", ReasonIncomplete, strings.Join(missing, ", "))
		return d
	}

	var blocking []string
	for _, v := range verdicts {
		if !Acceptable(v.Axis, v.Status) {
			blocking = append(blocking, fmt.Sprintf("%s is %s", v.Axis, v.Status))
		}
	}
	if len(blocking) > 0 {
		d.Reason = "needs revision: " + strings.Join(blocking, "; ")
		return d
	}

	d.ShouldExit = true
	d.Reason = ReasonAccepted
	return d
}

// Blocking returns the verdicts that prevent exit, in input order.
func Blocking(verdicts []quality.Verdict) []quality.Verdict {
	var out []quality.Verdict
	for _, v := range verdicts {
		if !Acceptable(v.Axis, v.Status) {
			out = append(out, v)
		}
	}
	return out
}
