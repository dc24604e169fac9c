package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/QB2027/WebFileBrowser/internal/distribute"
	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
)

func TestExitForOutcome(t *testing.T) {
	tests := []struct {
		outcome  distribute.Outcome
		wantCode int
		wantErr  error
	}{
		{distribute.OutcomeAll, ExitOK, nil},
		{distribute.OutcomePartial, ExitPartial, kerrors.ErrPartialDistribution},
		{distribute.OutcomeNone, ExitNone, kerrors.ErrDistributionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			err := exitForOutcome(tt.outcome)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}

			var exitErr *ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("expected *ExitError, got %T", err)
			}
			if exitErr.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, exitErr.Code)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v to wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatErrorHints(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	msg := formatError(kerrors.ErrProjectNotInitialized)
	if !strings.Contains(msg, "`wfb init`") {
		t.Errorf("expected init hint, got %q", msg)
	}

	msg = formatError(kerrors.ErrMalformedBlob)
	if !strings.Contains(msg, "("+kerrors.KindOf(kerrors.ErrMalformedBlob).String()+")") {
		t.Errorf("expected kind suffix, got %q", msg)
	}
}
