package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/scene"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CubeScene returns a document with one object, Cube, carrying a float
// location[3], a quaternion rotation and a bool visibility flag.
func CubeScene() *scene.Document {
	doc := scene.New()
	cube := scene.NewObject("Cube")
	cube.AddProperty(&keying.Property{Path: "location", Values: []float64{0, 0, 0}, Animatable: true})
	cube.AddProperty(&keying.Property{
		Path:       "rotation_quaternion",
		Values:     []float64{1, 0, 0, 0},
		Subtype:    keying.SubtypeQuaternion,
		Animatable: true,
	})
	cube.AddProperty(&keying.Property{Path: "hide", Values: []float64{0}, Kind: keying.KindBool, Animatable: true})
	doc.Add(cube)
	return doc
}

// Dispatcher returns a dispatcher over doc with the document preferences,
// predictable batch IDs and no log output. opts are applied last.
func Dispatcher(doc *scene.Document, opts ...keying.Option) *keying.Dispatcher {
	base := []keying.Option{
		keying.WithDefaults(doc.Preferences),
		keying.WithIDGenerator(NewSequenceGenerator("")),
		keying.WithLogger(DiscardLogger()),
	}
	return keying.New(doc, append(base, opts...)...)
}
