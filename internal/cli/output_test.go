package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wallet/internal/exchange"
	"github.com/roach88/wallet/internal/format"
	"github.com/roach88/wallet/internal/wallet"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(groupView{Name: "food", Cards: 2})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"name": "food", "cards": float64(2)}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	cause := &format.FieldError{Line: 4, Column: "headerColor", Value: "blue", Err: errors.New("not an integer")}
	err := formatter.Fail(&exchange.Error{Op: "import", Kind: exchange.KindValidation, Err: cause})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E003", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, `column "headerColor"`)
	assert.Equal(t, &ErrorDetails{Kind: "validation", Line: 4, Column: "headerColor", Value: "blue"}, resp.Error.Details)
}

func TestOutputFormatter_JSONErrorWithoutDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Fail(NewExitError(ExitCommandError, "card 7 not found")))
	assert.NotContains(t, buf.String(), "details")
	assert.Contains(t, buf.String(), `"code":"E100"`)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			err := &exchange.Error{Op: "export", Kind: exchange.KindSink, Err: errors.New("disk full")}
			require.NoError(t, formatter.Fail(err))
			assert.Contains(t, buf.String(), "Error [E005]: export: sink error: disk full")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Kind: sink")
			} else {
				assert.NotContains(t, buf.String(), "Kind:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Exported %d card(s)", 3)

	assert.Empty(t, out.String())
	assert.Equal(t, "Exported 3 card(s)\n", errOut.String())
}

func TestOutputFormatter_VerboseLogDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	formatter.VerboseLog("Processing %s", "backup.csv")

	assert.Empty(t, buf.String())
}

func TestErrorDetails_ParseLine(t *testing.T) {
	d := errorDetails(&format.ParseError{Line: 9, Err: errors.New("bare quote")})
	require.NotNil(t, d)
	assert.Equal(t, ErrorDetails{Kind: "parse", Line: 9}, *d)
	assert.Nil(t, errorDetails(errors.New("boom")))
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exit error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "import failed", errors.New("boom"))), ExitFailure},
		{"plain error", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitFailure, "export failed", cause)

	assert.Equal(t, "export failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "card 7 not found", NewExitError(ExitCommandError, "card 7 not found").Error())
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"format", fmt.Errorf("lookup: %w", format.ErrUnknownFormat), "E001"},
		{"parse", &format.ParseError{Line: 3, Err: errors.New("bad quote")}, "E002"},
		{"validation", &exchange.Error{Op: "import", Kind: exchange.KindValidation, Err: errors.New("x")}, "E003"},
		{"store", &exchange.Error{Op: "import", Kind: exchange.KindStore, Err: wallet.ErrDuplicate}, "E004"},
		{"sink", &exchange.Error{Op: "export", Kind: exchange.KindSink, Err: errors.New("x")}, "E005"},
		{"command", NewExitError(ExitCommandError, "bad flag"), "E100"},
		{"other", errors.New("boom"), "E000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(WrapExitError(GetExitCode(tt.err), "wrapped", tt.err)))
		})
	}
}
