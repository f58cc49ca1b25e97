package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keyframe/internal/fcurve"
	"github.com/roach88/keyframe/internal/keying"
	"github.com/roach88/keyframe/internal/testutil"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Success(map[string]string{"result": "success"}, func(w io.Writer) {
		t.Fatal("text renderer used in json mode")
	})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("3 keys", nil))
	assert.Equal(t, "3 keys\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success(nil, func(w io.Writer) { fmt.Fprint(w, "custom") }))
	assert.Equal(t, "custom", buf.String())
}

func TestOutputFormatter_Failure(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "json", Writer: buf}

		err := formatter.Failure(ExitFailure, "E_TEST_FAILED", "1 scenario(s) failed", map[string]int{"failed": 1}, nil)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
		assert.NotNil(t, resp.Data)
	})

	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}

		err := formatter.Failure(ExitCommandError, "E_X", "broken", nil, func(w io.Writer) { fmt.Fprintln(w, "summary") })
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Equal(t, "summary\nError [E_X]: broken\n", buf.String())
	})
}

func TestExitError(t *testing.T) {
	base := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to save scene", base)

	assert.Equal(t, "failed to save scene: disk full", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(base))
	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
}

func TestWriteResult(t *testing.T) {
	doc := testutil.CubeScene()
	d := newDispatcher(doc, newLogger(&RootOptions{}, io.Discard), keying.WithIDGenerator(keying.NewFixedGenerator("b1")))
	res := d.InsertKeys("Cube", []keying.Target{keying.WholeArray("location"), keying.WholeArray("scale")}, 2, keying.Flags{}, fcurve.KeyKeyframe)

	buf := &bytes.Buffer{}
	writeResult(buf, res, false)
	out := buf.String()
	assert.Contains(t, out, "batch b1 (seq 1) Cube @ 2\n")
	assert.Contains(t, out, "cannot_resolve_target=1 success=3")
	assert.Contains(t, out, "scale[-1]")
	assert.NotContains(t, out, "location[0]")

	buf.Reset()
	writeResult(buf, res, true)
	assert.Contains(t, buf.String(), "location[0]")
}

func TestWriteCurve(t *testing.T) {
	c := fcurve.NewCurve("location", 2)
	fcurve.InsertValue(c, 1, 0.5, fcurve.KeyKeyframe, fcurve.BuiltinDefaults, fcurve.InsertFlags{})
	fcurve.InsertValue(c, 10, 2, fcurve.KeyKeyframe, fcurve.BuiltinDefaults, fcurve.InsertFlags{})

	buf := &bytes.Buffer{}
	writeCurve(buf, c, true)
	assert.Equal(t, "  location[2] (driver) 1=0.5 10=2\n", buf.String())
}

func TestSortedCounts(t *testing.T) {
	got := sortedCounts(map[keying.Outcome]int{
		keying.UnchangedUnderNeededPolicy: 2,
		keying.Success:                    1,
		keying.BakedCurveRejected:         0,
	})
	assert.Equal(t, "success=1 unchanged_needed=2", got)
}
