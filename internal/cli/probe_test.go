package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeCommand_Stub(t *testing.T) {
	out, err := execute(t, "probe", "9.2", "--stub", "testdata/points.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "(EDS 9.2)")
	assert.Contains(t, out, "METHOD")
	assert.Contains(t, out, "readAnalog")
	assert.Contains(t, out, "eds_live_write_st")
	assert.Regexp(t, `init\s+eds_live_init\s+\S+\s+yes \(deprecated\)`, out)
	assert.NotContains(t, out, "default credentials")
}

func TestProbeCommand_JSON(t *testing.T) {
	out, err := execute(t, "probe", "9.2", "--stub", "testdata/points.yaml", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ProbeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "9.2", resp.Data.Version)
	assert.False(t, resp.Data.Legacy)
	assert.NotEmpty(t, resp.Data.Capabilities)
	assert.Equal(t, len(resp.Data.Capabilities), resp.Data.Supported)
}

func TestProbeCommand_BadFixture(t *testing.T) {
	_, err := execute(t, "probe", "9.2", "--stub", "testdata/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
