package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCommand(t *testing.T) {
	out, err := execute(t, "read", "--config", "testdata/plant.yaml", "--stub", "testdata/points.yaml", "A1", "B1")
	require.NoError(t, err)

	assert.Contains(t, out, "lid=0 IESS=A1 value=42.500000G ST=0x00000100 [bar] BB=0.000000 TB=100.000000")
	assert.Contains(t, out, "lid=1 IESS=B1 value=1.000000G ST=0x00000000\n")
}

func TestReadCommand_ProfileInputs(t *testing.T) {
	out, err := execute(t, "read", "-c", "testdata/plant.yaml", "--stub", "testdata/points.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "IESS=A1")
	assert.Contains(t, out, "IESS=B1")
	assert.NotContains(t, out, "IESS=OUT1")
}

func TestReadCommand_JSON(t *testing.T) {
	out, err := execute(t, "read", "-c", "testdata/plant.yaml", "--stub", "testdata/points.yaml", "--format", "json", "A1")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ReadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.Session)
	require.Len(t, resp.Data.Points, 1)
	bb, tb := 0.0, 100.0
	assert.Equal(t, PointSample{LID: 0, IESS: "A1", Value: 42.5, Quality: "G", ST: 256, Unit: "bar", BB: &bb, TB: &tb}, resp.Data.Points[0])
}

func TestReadCommand_MissingPoint(t *testing.T) {
	out, err := execute(t, "read", "-c", "testdata/plant.yaml", "--stub", "testdata/points.yaml", "A1", "NOPE")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "IESS=A1")
	assert.Contains(t, out, "point NOPE not found")
}

func TestReadCommand_MissingConfig(t *testing.T) {
	_, err := execute(t, "read", "--stub", "testdata/points.yaml", "A1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReadCommand_InvalidProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"9.2\"\n"), 0o644))

	out, err := execute(t, "read", "-c", path, "--stub", "testdata/points.yaml", "--format", "json", "A1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, CodeConfig, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "remote_host is required")
}
