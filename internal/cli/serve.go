package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/keyframe/internal/api"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/scene"
	"github.com/roach88/keyframe/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port     int
	Database string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "Serve a scene over HTTP",
		Long: `Load a scene and serve key insertion over HTTP on 127.0.0.1.

With --db, batches are appended to the database's keying log and the
scene is saved back on shutdown. The scene file is only read when the
database holds no scene yet.

Example:
  keyframe serve cube.yaml --port 8787
  keyframe serve --db anim.db --verbose`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runServe(opts, path, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 8787, "port to listen on")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runServe(opts *ServeOptions, path string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	var (
		st  *store.Store
		doc *scene.Document
		err error
	)
	dopts := []keying.Option{}
	if opts.Database != "" {
		logger.Info("opening database", "path", opts.Database)
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		if doc, err = loadStoredScene(parentCtx, opts.RootOptions, st, path); err != nil {
			return err
		}
		seq, err := st.LastSeq(parentCtx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read keying log", err)
		}
		dopts = append(dopts, keying.WithClock(keying.NewClockAt(seq)))
	} else {
		if path == "" {
			return NewExitError(ExitCommandError, "a scene file or --db is required")
		}
		if doc, err = loadScene(opts.RootOptions, path); err != nil {
			return err
		}
	}

	server := api.NewServer(api.ServerConfig{
		Port:       opts.Port,
		Document:   doc,
		Dispatcher: newDispatcher(doc, logger, dopts...),
		Store:      st,
		Logger:     logger,
		StartTime:  time.Now(),
	})

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d objects on http://%s\n", len(doc.ObjectNames()), server.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	if st != nil {
		err := doc.Edit(func() error {
			return st.SaveScene(shutdownCtx, doc)
		})
		if err != nil {
			return WrapExitError(ExitFailure, "failed to save scene", err)
		}
		logger.Info("scene saved", "path", opts.Database)
	}
	return nil
}
