package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/scene"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failures, non-deterministic replay
	ExitCommandError = 2 // Command error (unreadable scene, bad flags, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success outputs data. In text mode text renders it; a nil text prints
// data with fmt.
func (f *OutputFormatter) Success(data interface{}, text func(io.Writer)) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}

	if text != nil {
		text(f.Writer)
		return nil
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Failure outputs a failed result and returns the ExitError for code.
// JSON output carries data alongside the error so callers can inspect it.
func (f *OutputFormatter) Failure(exitCode int, code, message string, data interface{}, text func(io.Writer)) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Code: code, Message: message},
		}); err != nil {
			return err
		}
		return NewExitError(exitCode, message)
	}

	if text != nil {
		text(f.Writer)
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return NewExitError(exitCode, message)
}

// writeResult renders a keying batch: a summary line, then one line per
// element that was not keyed. Verbose also lists the keyed elements.
func writeResult(w io.Writer, res *keying.CombinedResult, verbose bool) {
	fmt.Fprintf(w, "batch %s (seq %d) %s @ %g", res.BatchID, res.Seq, res.Owner, res.Time)
	if res.LocalTime != res.Time {
		fmt.Fprintf(w, " -> local %g", res.LocalTime)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", res)

	for _, e := range res.Entries {
		if e.Outcome == keying.Success && !verbose {
			continue
		}
		line := fmt.Sprintf("  %-28s %s[%d]", e.Outcome, e.Path, e.Index)
		if e.Detail != "" {
			line += ": " + e.Detail
		}
		fmt.Fprintln(w, line)
	}
}

// writeCurve renders one curve as "path[index]  t=v t=v ...".
func writeCurve(w io.Writer, c *fcurve.Curve, driver bool) {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s[%d]", c.Path, c.Index)
	if driver {
		b.WriteString(" (driver)")
	}
	if kind := fcurve.CycleType(c); kind != fcurve.CycleNone {
		fmt.Fprintf(&b, " (cycle %s)", kind)
	}
	if len(c.Samples) > 0 {
		fmt.Fprintf(&b, " baked %d samples", len(c.Samples))
	}
	for i := range c.Points {
		p := &c.Points[i]
		fmt.Fprintf(&b, " %g=%g", p.Time(), p.Value())
	}
	fmt.Fprintln(w, b.String())
}

// sortedCounts renders outcome counts by name for text output.
func sortedCounts(counts map[keying.Outcome]int) string {
	parts := make([]string, 0, len(counts))
	for o, n := range counts {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", o, n))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

type curveRef struct {
	curve  *fcurve.Curve
	driver bool
}

// objectCurves lists the action curves of obj followed by its driver
// curves. A nil object has none.
func objectCurves(obj *scene.Object) []curveRef {
	if obj == nil || obj.Anim == nil {
		return nil
	}
	var refs []curveRef
	if obj.Anim.Action != nil {
		for _, c := range obj.Anim.Action.Curves {
			refs = append(refs, curveRef{curve: c})
		}
	}
	for _, c := range obj.Anim.Drivers {
		refs = append(refs, curveRef{curve: c, driver: true})
	}
	return refs
}
