package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/scene"
	"github.com/roach88/keyframe/internal/store"
)

// InsertOptions holds flags for the insert command.
type InsertOptions struct {
	*RootOptions
	Object   string
	Targets  []string
	Time     float64
	Flags    []string
	KeyType  string
	Database string

	// IDGenerator overrides the batch ID generator (for testing).
	IDGenerator keying.IDGenerator
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insert [scene]",
		Short: "Insert keys into a scene",
		Long: `Insert keys for one object at one time.

Targets name a whole property ("location") or one element
("location[1]"). Flags are keying policy names: NEEDED, VISUAL, FAST,
REPLACE, CYCLE_AWARE, AVAILABLE, NO_USER_PREF, OVERWRITE_FULL, DRIVER.

With --db the scene is read from and saved back to the database, and the
batch is appended to its keying log. The scene file is only read when the
database holds no scene yet.

Examples:
  keyframe insert cube.yaml --object Cube --target location --time 1
  keyframe insert cube.yaml --object Cube --target location[2] --time 10 --flag NEEDED
  keyframe insert --db anim.db --object Cube --target rotation_quaternion --time 24`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runInsert(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Object, "object", "", "object to key (required)")
	cmd.Flags().StringArrayVar(&opts.Targets, "target", nil, "property target, repeatable (required)")
	cmd.Flags().Float64Var(&opts.Time, "time", 0, "global scene time")
	cmd.Flags().StringArrayVar(&opts.Flags, "flag", nil, "keying flag, repeatable")
	cmd.Flags().StringVar(&opts.KeyType, "key-type", "keyframe", "key type tag")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	_ = cmd.MarkFlagRequired("object")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runInsert(opts *InsertOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	targets := make([]keying.Target, len(opts.Targets))
	for i, s := range opts.Targets {
		t, err := keying.ParseTarget(s)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --target", err)
		}
		targets[i] = t
	}
	flags, err := keying.ParseFlags(opts.Flags)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --flag", err)
	}
	keyType, err := fcurve.ParseKeyType(opts.KeyType)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --key-type", err)
	}

	var (
		st  *store.Store
		doc *scene.Document
	)
	dopts := []keying.Option{}
	if opts.IDGenerator != nil {
		dopts = append(dopts, keying.WithIDGenerator(opts.IDGenerator))
	}

	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		doc, err = loadStoredScene(ctx, opts.RootOptions, st, path)
		if err != nil {
			return err
		}
		seq, err := st.LastSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read keying log", err)
		}
		dopts = append(dopts, keying.WithClock(keying.NewClockAt(seq)))
	} else {
		if path == "" {
			return NewExitError(ExitCommandError, "a scene file or --db is required")
		}
		doc, err = loadScene(opts.RootOptions, path)
		if err != nil {
			return err
		}
	}

	d := newDispatcher(doc, logger, dopts...)
	res := d.InsertKeys(opts.Object, targets, opts.Time, flags, keyType)

	if st != nil {
		if err := st.SaveBatch(ctx, doc, store.NewLogEntry(targets, keyType, res)); err != nil {
			return WrapExitError(ExitCommandError, "failed to save scene and keying log", err)
		}
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return f.Success(res, func(w io.Writer) {
		writeResult(w, res, opts.Verbose)
		for _, ref := range objectCurves(doc.Object(opts.Object)) {
			if ref.driver == flags.Driver && touched(res, ref.curve) {
				writeCurve(w, ref.curve, ref.driver)
			}
		}
	})
}

// touched reports whether res keyed c.
func touched(res *keying.CombinedResult, c *fcurve.Curve) bool {
	for _, e := range res.Entries {
		if e.Outcome == keying.Success && e.Path == c.Path && e.Index == c.Index {
			return true
		}
	}
	return false
}
