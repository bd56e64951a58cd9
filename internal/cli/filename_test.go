package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNameCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"filename", "9.2", "--goos", "linux"}, "libedsapi_live_9_2.so"},
		{[]string{"filename", "7.2", "--goos", "windows"}, "edsapi_live_7_2.dll"},
		{[]string{"filename", "9.2.1", "--goos", "darwin", "--type", "arch"}, "libedsapi_arch_9_2_1.so"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestFileNameCommand_JSON(t *testing.T) {
	out, err := execute(t, "filename", "9.2", "--goos", "linux", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   FileNameResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, FileNameResult{Type: "live", Version: "9.2", GOOS: "linux", FileName: "libedsapi_live_9_2.so"}, resp.Data)
}

func TestFileNameCommand_MissingVersion(t *testing.T) {
	_, err := execute(t, "filename")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
