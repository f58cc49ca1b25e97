package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/keyframe/internal/keying"
)

// RemapOptions holds flags for the remap command.
type RemapOptions struct {
	*RootOptions
	Object string
	Time   float64
	To     string
}

// RemapResult is the output of the remap command.
type RemapResult struct {
	Object string  `json:"object"`
	Strip  string  `json:"strip,omitempty"`
	To     string  `json:"to"`
	Time   float64 `json:"time"`
	Result float64 `json:"result"`
}

// NewRemapCommand creates the remap command.
func NewRemapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remap <scene>",
		Short: "Convert a time through an object's active NLA strip",
		Long: `Convert between global scene time and the local time of the action
in an object's tweaked NLA strip. Without an active strip, or with NLA
evaluation disabled, the time is returned unchanged.

Examples:
  keyframe remap rig.yaml --object Rig --time 1
  keyframe remap rig.yaml --object Rig --time 11 --to global`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemap(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Object, "object", "", "object whose strip is used (required)")
	cmd.Flags().Float64Var(&opts.Time, "time", 0, "time to convert")
	cmd.Flags().StringVar(&opts.To, "to", "local", "target time-space (local|global)")
	_ = cmd.MarkFlagRequired("object")

	return cmd
}

func runRemap(opts *RemapOptions, path string, cmd *cobra.Command) error {
	doc, err := loadScene(opts.RootOptions, path)
	if err != nil {
		return err
	}
	if doc.Object(opts.Object) == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("object not found: %s", opts.Object))
	}

	result := RemapResult{Object: opts.Object, To: opts.To, Time: opts.Time}
	switch opts.To {
	case "local":
		result.Result = keying.RemapTime(doc, opts.Object, opts.Time)
	case "global":
		result.Result = keying.MapTime(doc, opts.Object, opts.Time)
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --to %q: must be local or global", opts.To))
	}
	if doc.NLAEnabled(opts.Object) {
		if strip := doc.ActiveStrip(opts.Object); strip != nil {
			result.Strip = strip.Name
		}
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return f.Success(result, func(w io.Writer) {
		if result.Strip == "" {
			fmt.Fprintf(w, "%g -> %g (no active strip)\n", result.Time, result.Result)
			return
		}
		fmt.Fprintf(w, "%g -> %g (%s time of strip %s)\n", result.Time, result.Result, result.To, result.Strip)
	})
}
