package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/scene"
	"github.com/roach88/keyframe/internal/store"
)

// newLogger returns a text logger on w. Verbose lowers the level to Debug.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadScene reads a scene file and applies the preference overrides.
func loadScene(opts *RootOptions, path string) (*scene.Document, error) {
	doc, err := scene.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load scene", err)
	}
	if err := applyPreferences(opts, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// loadStoredScene returns the scene saved in st. When st holds no scene it
// falls back to the scene file at path.
func loadStoredScene(ctx context.Context, opts *RootOptions, st *store.Store, path string) (*scene.Document, error) {
	doc, err := st.LoadScene(ctx)
	switch {
	case errors.Is(err, store.ErrNoScene):
		if path == "" {
			return nil, NewExitError(ExitCommandError, "database holds no scene and no scene file was given")
		}
		return loadScene(opts, path)
	case err != nil:
		return nil, WrapExitError(ExitCommandError, "failed to load scene from database", err)
	}
	if err := applyPreferences(opts, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func applyPreferences(opts *RootOptions, doc *scene.Document) error {
	if opts.Handle != "" {
		h, err := fcurve.ParseHandleType(opts.Handle)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --handle", err)
		}
		doc.Preferences.Handle = h
	}
	if opts.Interpolation != "" {
		i, err := fcurve.ParseInterpolation(opts.Interpolation)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --interpolation", err)
		}
		doc.Preferences.Interpolation = i
	}
	return nil
}

// newDispatcher builds a dispatcher over doc using its preferences.
func newDispatcher(doc *scene.Document, logger *slog.Logger, opts ...keying.Option) *keying.Dispatcher {
	base := []keying.Option{
		keying.WithDefaults(doc.Preferences),
		keying.WithLogger(logger),
	}
	return keying.New(doc, append(base, opts...)...)
}
