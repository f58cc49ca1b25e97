package keying

import (
	"fmt"
	"sort"
	"strings"
)

// Outcome is the result of keying one array element.
type Outcome int

const (
	Success Outcome = iota
	CannotResolveTarget
	NoCurveAndNotCreatable
	UnchangedUnderNeededPolicy
	NoMatchingKeyUnderReplacePolicy
	QuaternionGroupSuppressed
	BakedCurveRejected
)

var outcomeNames = map[Outcome]string{
	Success:                         "success",
	CannotResolveTarget:             "cannot_resolve_target",
	NoCurveAndNotCreatable:          "no_curve_not_creatable",
	UnchangedUnderNeededPolicy:      "unchanged_needed",
	NoMatchingKeyUnderReplacePolicy: "no_matching_key_replace",
	QuaternionGroupSuppressed:       "quaternion_group_suppressed",
	BakedCurveRejected:              "baked_curve_rejected",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText lets outcomes key JSON objects by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	parsed, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome converts an outcome name to its value.
func ParseOutcome(s string) (Outcome, error) {
	for k, v := range outcomeNames {
		if v == s {
			return k, nil
		}
	}
	return Success, fmt.Errorf("unknown outcome %q", s)
}

// Entry records the outcome of one element.
type Entry struct {
	Path    string  `json:"path"`
	Index   int     `json:"index"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}

// CombinedResult aggregates the outcomes of one InsertKeys call.
type CombinedResult struct {
	BatchID   string   `json:"batch_id"`
	Seq       int64    `json:"seq"`
	Owner     string   `json:"owner"`
	Time      float64  `json:"time"`
	LocalTime float64  `json:"local_time"`
	Flags     []string `json:"flags,omitempty"`

	Counts  map[Outcome]int `json:"counts"`
	Entries []Entry         `json:"entries"`
}

// NewCombinedResult creates an empty result.
func NewCombinedResult() *CombinedResult {
	return &CombinedResult{
		Counts:  make(map[Outcome]int),
		Entries: []Entry{},
	}
}

// Add records one outcome.
func (r *CombinedResult) Add(e Entry) {
	r.Counts[e.Outcome]++
	r.Entries = append(r.Entries, e)
}

// GetCount returns how many elements ended in the given outcome.
func (r *CombinedResult) GetCount(o Outcome) int {
	return r.Counts[o]
}

// Inserted returns the number of keys written.
func (r *CombinedResult) Inserted() int {
	return r.Counts[Success]
}

// Total returns the number of recorded outcomes.
func (r *CombinedResult) Total() int {
	return len(r.Entries)
}

// Failures returns the entries that did not write a key.
func (r *CombinedResult) Failures() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Outcome != Success {
			out = append(out, e)
		}
	}
	return out
}

// Merge folds the outcomes of other into r.
func (r *CombinedResult) Merge(other *CombinedResult) {
	for _, e := range other.Entries {
		r.Add(e)
	}
}

// String renders the non-zero counts, e.g. "success=3 unchanged_needed=1".
func (r *CombinedResult) String() string {
	parts := make([]string, 0, len(r.Counts))
	for o, n := range r.Counts {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", o, n))
		}
	}
	sort.Strings(parts)
	if len(parts) == 0 {
		return "no targets"
	}
	return strings.Join(parts, " ")
}
