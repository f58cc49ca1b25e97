package harness

// TraceEvent records one insert step.
type TraceEvent struct {
	Step      int            `json:"step"`
	BatchID   string         `json:"batch_id"`
	Seq       int64          `json:"seq"`
	Owner     string         `json:"owner"`
	Time      float64        `json:"time"`
	LocalTime float64        `json:"local_time"`
	Flags     []string       `json:"flags"`
	Counts    map[string]int `json:"counts"`
}

// CurveSnapshot is the observable state of one curve.
type CurveSnapshot struct {
	Object  string    `json:"object"`
	Path    string    `json:"path"`
	Index   int       `json:"index"`
	Driver  bool      `json:"driver,omitempty"`
	Times   []float64 `json:"times"`
	Values  []float64 `json:"values"`
	Interp  []string  `json:"interpolation"`
	Handles []string  `json:"handles"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per insert step, in order.
	Trace []TraceEvent `json:"trace"`

	// Curves holds the final state of every curve, objects in name order.
	Curves []CurveSnapshot `json:"curves"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Curves: []CurveSnapshot{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
