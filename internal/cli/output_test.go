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

	"github.com/roach88/edsapi/backend"
	"github.com/roach88/edsapi/live"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(CodeConfig, "invalid profile", map[string]string{"file": "plant.yaml"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeConfig, resp.Error.Code)
	assert.Equal(t, "invalid profile", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error(CodeBackend, "read failed", map[string]string{"lid": "3"}))
	assert.Contains(t, buf.String(), "Error [E_BACKEND]: read failed")
	assert.NotContains(t, buf.String(), "Details:")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error(CodeBackend, "read failed", map[string]string{"lid": "3"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_Emit(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, formatter.Emit(42, func(w io.Writer) { fmt.Fprint(w, "forty-two") }))
	assert.Equal(t, "forty-two", buf.String())

	buf.Reset()
	formatter.Format = "json"
	require.NoError(t, formatter.Emit(42, func(w io.Writer) { t.Fatal("text renderer called in JSON mode") }))
	assert.Contains(t, buf.String(), `"data": 42`)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diag := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: tt.verbose}

			formatter.VerboseLog("connected to %s", "eds1")

			assert.Empty(t, out.String(), "diagnostics never go to the data stream")
			if tt.wantLog {
				assert.Contains(t, diag.String(), "connected to eds1")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	cause := &live.BackendError{Code: live.CodeAccessDenied}
	err := formatter.Fail(ExitFailure, "failed to connect", cause)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.True(t, exitErr.Reported())
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, cause)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, CodeBackend, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "failed to connect")
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeBackendNotFound, errorCode(&backend.NotFoundError{}))
	assert.Equal(t, CodeUnsupported, errorCode(&live.UnsupportedFunctionError{Method: "writeST"}))
	assert.Equal(t, CodeBackend, errorCode(fmt.Errorf("wrapped: %w", &live.BackendError{Code: live.CodeResponseTimeout})))
	assert.Equal(t, CodeInternal, errorCode(errors.New("boom")))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "bad", errors.New("x")))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.False(t, NewExitError(ExitFailure, "x").Reported())
}
