package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDatabase(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "anim.db")
	_, err := execute(t, "insert", basicScene, "--db", db,
		"--object", "Cube", "--target", "location[2]", "--time", "5")
	require.NoError(t, err)
	_, err = execute(t, "insert", "--db", db,
		"--object", "Rig", "--target", "rotation_quaternion", "--time", "1")
	require.NoError(t, err)
	return db
}

func TestShowCommand_JSON(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "--format", "json", "show", "--db", db, "--log")
	require.NoError(t, err)

	var show ShowResult
	assert.Equal(t, "ok", decodeData(t, out, &show))
	require.Len(t, show.Objects, 2)
	assert.Equal(t, "Cube", show.Objects[0].Name)
	require.Len(t, show.Objects[0].Curves, 1)
	assert.Equal(t, "location", show.Objects[0].Curves[0].Path)
	assert.Equal(t, 2, show.Objects[0].Curves[0].Index)
	assert.Equal(t, []float64{5}, show.Objects[0].Curves[0].Times)
	assert.Equal(t, []float64{3}, show.Objects[0].Curves[0].Values)

	assert.Equal(t, "Rig", show.Objects[1].Name)
	require.Len(t, show.Objects[1].Curves, 4)
	assert.Equal(t, []float64{11}, show.Objects[1].Curves[0].Times)

	require.Len(t, show.Log, 2)
	assert.Equal(t, int64(1), show.Log[0].Seq)
	assert.Equal(t, "Rig", show.Log[1].Owner)
}

func TestShowCommand_Text(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "show", "--db", db, "--object", "Cube", "--log")
	require.NoError(t, err)
	assert.Contains(t, out, "Cube\n  location[2] 5=3\n")
	assert.Contains(t, out, "Keying log: 1 batches")
	assert.NotContains(t, out, "Rig")
}

func TestShowCommand_Errors(t *testing.T) {
	db := seedDatabase(t)

	_, err := execute(t, "show", "--db", db, "--object", "Ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "show", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
