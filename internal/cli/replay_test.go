package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayCommand_Deterministic(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "--format", "json", "replay", basicScene, "--db", db)
	require.NoError(t, err)

	var res ReplayOutput
	assert.Equal(t, "ok", decodeData(t, out, &res))
	assert.Equal(t, 2, res.Batches)
	assert.True(t, res.Deterministic)
	assert.Empty(t, res.Mismatches)
}

func TestReplayCommand_Text(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "replay", basicScene, "--db", db, "--object", "Rig")
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 1 batches")
	assert.Contains(t, out, "✓ Replay is deterministic")
}

func TestReplayCommand_Mismatch(t *testing.T) {
	db := seedDatabase(t)
	changed := writeFile(t, t.TempDir(), "changed.yaml", `objects:
  - name: Cube
    properties:
      - path: scale
        values: [1, 1, 1]
  - name: Rig
    properties:
      - path: rotation_quaternion
        values: [1, 0, 0, 0]
        subtype: quaternion
    nla:
      tweak:
        name: Walk
        start: -10
        end: 990
        action_start: 0
        action_end: 1000
        scale: 1
        repeat: 1
        blend: combine
`)

	out, err := execute(t, "--format", "json", "replay", changed, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var res ReplayOutput
	assert.Equal(t, "error", decodeData(t, out, &res))
	assert.Equal(t, 2, res.Batches)
	assert.False(t, res.Deterministic)
	require.Len(t, res.Mismatches, 1)
	assert.Contains(t, res.Mismatches[0], "recorded success=1, replayed cannot_resolve_target=1")
}

func TestReplayCommand_EmptyLog(t *testing.T) {
	db := t.TempDir() + "/empty.db"

	out, err := execute(t, "replay", basicScene, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No batches found in keying log.")
}
