package errcodes_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/errcodes"
)

func TestCodeCategoryBucketsByThousandsDigit(t *testing.T) {
	cases := []struct {
		name string
		code errcodes.Code
		want errcodes.Category
	}{
		{"pattern", errcodes.PatternCompileFailure, errcodes.CategoryPattern},
		{"config", errcodes.ConfigDuplicateRuleID, errcodes.CategoryConfig},
		{"runtime", errcodes.RuntimeStdinReadFailure, errcodes.CategoryRuntime},
		{"external", errcodes.ExternalPackLoadFailure, errcodes.CategoryExternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.code.Category())
		})
	}
}

func TestCategoryStringNamesEachBucket(t *testing.T) {
	require.Equal(t, "pattern", errcodes.CategoryPattern.String())
	require.Equal(t, "config", errcodes.CategoryConfig.String())
	require.Equal(t, "runtime", errcodes.CategoryRuntime.String())
	require.Equal(t, "external", errcodes.CategoryExternal.String())
	require.Equal(t, "unknown", errcodes.Category(0).String())
}

func TestNewProducesADiagnosticWithoutAnUnderlyingError(t *testing.T) {
	diag := errcodes.New(errcodes.ConfigParseFailure, "skipped malformed lines")
	require.Equal(t, errcodes.ConfigParseFailure, diag.Code)
	require.Nil(t, diag.Unwrap())
	require.Contains(t, diag.Error(), "2002")
	require.Contains(t, diag.Error(), "config")
	require.Contains(t, diag.Error(), "skipped malformed lines")
}

func TestWrapPreservesTheUnderlyingErrorForUnwrapping(t *testing.T) {
	cause := errors.New("disk full")
	diag := errcodes.Wrap(errcodes.RuntimeIOError, "telemetry write failed", cause)

	require.Equal(t, cause, diag.Unwrap())
	require.True(t, errors.Is(diag, cause))
	require.Contains(t, diag.Error(), "disk full")
}

func TestAsRecoversTheConcreteDiagnosticThroughPlainErrorWrapping(t *testing.T) {
	diag := errcodes.Wrap(errcodes.ExternalHookProtocolError, "parse hook input", errors.New("unexpected EOF"))
	wrapped := error(diag)

	var got *errcodes.Diagnostic
	require.True(t, errors.As(wrapped, &got))
	require.Equal(t, errcodes.ExternalHookProtocolError, got.Code)
}
