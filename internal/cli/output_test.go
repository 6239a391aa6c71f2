package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcwdsi/rt2n4j/internal/config"
	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/mapper"
	"github.com/mcwdsi/rt2n4j/internal/testutil"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("NOT_FOUND", "no tuple", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "no tuple", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Error("E001", "save failed", map[string]string{"file": "a.yaml"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]")
	assert.Contains(t, buf.String(), "save failed")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	err := formatter.Error("E001", "save failed", map[string]string{"file": "a.yaml"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_Tuples(t *testing.T) {
	an := testutil.SampleANs()[0]

	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, f.Tuples([]ir.Tuple{an}))
		assert.Contains(t, buf.String(), "type: AN")
		assert.Contains(t, buf.String(), "ruin: 00000000-0000-7000-8000-000000000002")
	})

	t.Run("text empty", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, f.Tuples(nil))
		assert.Equal(t, "No tuples found.\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}
		require.NoError(t, f.Tuples([]ir.Tuple{an}))

		var resp struct {
			Status string           `json:"status"`
			Data   []map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "AN", resp.Data[0]["type"])
		assert.Equal(t, "00000000-0000-7000-8000-000000000001", resp.Data[0]["rui"])
	})
}

func TestOutputFormatter_Ruis(t *testing.T) {
	ruis := []ir.Rui{testutil.Rui(1), ir.NewISORui(testutil.SampleTime)}

	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, f.Ruis(ruis))
	assert.Equal(t, "00000000-0000-7000-8000-000000000001\n2024-01-01T00:00:00Z\n", buf.String())
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"mapper", mapper.NewNotFoundError("x"), "NOT_FOUND"},
		{"wrapped mapper", WrapExitError(ExitFailure, "get", fmt.Errorf("decode: %w", mapper.NewNotTupleError("x", nil))), "NOT_TUPLE"},
		{"config", &config.LoadError{Message: "bad"}, ErrCodeConfig},
		{"input", inputError("cannot load", errors.New("missing")), ErrCodeInput},
		{"plain", errors.New("boom"), ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "x"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "DANGLING_REFERENCE",
		Message: "missing referents",
		Details: []string{"00000000-0000-7000-8000-000000000009"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "DANGLING_REFERENCE", decoded.Code)
	assert.Equal(t, "missing referents", decoded.Message)
}
