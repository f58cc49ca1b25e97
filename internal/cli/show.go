package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/keyframe/internal/api"
	"github.com/roach88/keyframe/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Object   string
	Log      bool
}

// ShowObject is one object of the show output.
type ShowObject struct {
	Name   string              `json:"name"`
	Curves []api.CurveResponse `json:"curves"`
}

// ShowResult is the output of the show command.
type ShowResult struct {
	Objects []ShowObject     `json:"objects"`
	Log     []store.LogEntry `json:"log,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the curves saved in a database",
		Long: `Show the curves of the scene saved in a database, and optionally
the keying log.

Examples:
  keyframe show --db anim.db
  keyframe show --db anim.db --object Cube --log
  keyframe show --db anim.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Object, "object", "", "show one object only")
	cmd.Flags().BoolVar(&opts.Log, "log", false, "include the keying log")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	doc, err := st.LoadScene(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scene", err)
	}

	names := doc.ObjectNames()
	if opts.Object != "" {
		if doc.Object(opts.Object) == nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("object not found: %s", opts.Object))
		}
		names = []string{opts.Object}
	}

	result := ShowResult{Objects: make([]ShowObject, 0, len(names))}
	for _, name := range names {
		so := ShowObject{Name: name, Curves: []api.CurveResponse{}}
		for _, ref := range objectCurves(doc.Object(name)) {
			so.Curves = append(so.Curves, api.CurveToResponse(ref.curve, ref.driver))
		}
		result.Objects = append(result.Objects, so)
	}
	if opts.Log {
		result.Log, err = st.ReadLog(ctx, opts.Object)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read keying log", err)
		}
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return f.Success(result, func(w io.Writer) {
		for _, name := range names {
			fmt.Fprintln(w, name)
			refs := objectCurves(doc.Object(name))
			if len(refs) == 0 {
				fmt.Fprintln(w, "  (no curves)")
			}
			for _, ref := range refs {
				writeCurve(w, ref.curve, ref.driver)
			}
		}
		if opts.Log {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Keying log: %d batches\n", len(result.Log))
			for _, e := range result.Log {
				fmt.Fprintf(w, "  %4d %s %s @ %g %v %s\n", e.Seq, e.BatchID, e.Owner, e.Time, e.Targets, sortedCounts(e.Counts))
			}
		}
	})
}
