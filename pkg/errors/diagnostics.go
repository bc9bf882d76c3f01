package errors

import (
	"fmt"
	"strings"
)

// Diagnostic is a non-fatal finding about a hierarchy. The engine attaches
// diagnostics to its output instead of failing: an organization with zero
// allocated GPU still renders, it just cannot report a percentage.
type Diagnostic struct {
	Code    Code   `json:"code"`
	NodeID  string `json:"node_id,omitempty"`
	Message string `json:"message"`
}

// String formats the diagnostic as "CODE [node]: message".
func (d Diagnostic) String() string {
	if d.NodeID == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Code, d.NodeID, d.Message)
}

// Malformed builds a MALFORMED_HIERARCHY diagnostic.
func Malformed(nodeID, format string, args ...any) Diagnostic {
	return Diagnostic{Code: ErrCodeMalformedHierarchy, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

// Degenerate builds a DEGENERATE_ALLOCATION diagnostic.
func Degenerate(nodeID, format string, args ...any) Diagnostic {
	return Diagnostic{Code: ErrCodeDegenerateAllocation, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

// Diagnostics is an ordered collection of findings. Duplicates (same code,
// node and message) are dropped on Add so repeated passes over the same node
// report it once.
type Diagnostics []Diagnostic

// Add appends d unless an identical diagnostic is already present.
func (ds *Diagnostics) Add(d Diagnostic) {
	for _, existing := range *ds {
		if existing == d {
			return
		}
	}
	*ds = append(*ds, d)
}

// Merge adds every diagnostic of other.
func (ds *Diagnostics) Merge(other Diagnostics) {
	for _, d := range other {
		ds.Add(d)
	}
}

// Count returns how many diagnostics carry code.
func (ds Diagnostics) Count(code Code) int {
	n := 0
	for _, d := range ds {
		if d.Code == code {
			n++
		}
	}
	return n
}

// ForNode returns the diagnostics attached to nodeID.
func (ds Diagnostics) ForNode(nodeID string) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.NodeID == nodeID {
			out = append(out, d)
		}
	}
	return out
}

// Err converts the diagnostics into a single error, or nil when empty.
// Callers that want strict loading (e.g. `gpuviz layout --strict`) use it.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	msgs := make([]string, len(ds))
	for i, d := range ds {
		msgs[i] = d.String()
	}
	return New(ds[0].Code, "%d diagnostic(s): %s", len(ds), strings.Join(msgs, "; "))
}
