package store

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/scene"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const testScene = `
preferences:
  handle: auto_clamped
objects:
  - name: Cube
    properties:
      - {path: location, values: [1, 2, 3]}
      - {path: hide, values: [0], kind: bool}
      - {path: seed, values: [4], kind: int, animatable: false}
    visual:
      location: [5, 6, 7]
    curves:
      - path: location
        index: 1
        extrapolation: linear
        cycle: {before: repeat, after: repeat_offset}
        keys:
          - {time: 0, value: 0}
          - {time: 10, value: 4, interpolation: linear}
      - path: hide
        index: 0
        driver: true
        samples:
          - {time: 0, value: 0}
          - {time: 5, value: 1}
  - name: Rig
    properties:
      - {path: rotation_quaternion, values: [1, 0, 0, 0], subtype: quaternion}
    nla:
      tweak: {name: Walk, start: 10, end: 20, action_start: 0, action_end: 10, blend: combine}
`

// createTestScene decodes testScene.
func createTestScene(t *testing.T) *scene.Document {
	t.Helper()
	doc, err := scene.DecodeYAML(strings.NewReader(testScene))
	if err != nil {
		t.Fatalf("DecodeYAML() failed: %v", err)
	}
	return doc
}

// createTestDispatcher keys doc with fixed batch IDs and a silent logger.
func createTestDispatcher(doc *scene.Document, ids ...string) *keying.Dispatcher {
	return keying.New(doc,
		keying.WithDefaults(doc.Preferences),
		keying.WithIDGenerator(keying.NewFixedGenerator(ids...)),
		keying.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
}
