package failure_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rohmanhakim/record-finder/pkg/failure"
	"github.com/stretchr/testify/assert"
)

type classified struct {
	severity failure.Severity
}

func (c *classified) Error() string              { return "classified" }
func (c *classified) Severity() failure.Severity { return c.severity }

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "plain error", err: errors.New("boom"), expected: true},
		{name: "fatal", err: &classified{severity: failure.SeverityFatal}, expected: true},
		{name: "recoverable", err: &classified{severity: failure.SeverityRecoverable}, expected: false},
		{name: "wrapped recoverable", err: fmt.Errorf("ctx: %w", &classified{severity: failure.SeverityRecoverable}), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, failure.IsFatal(tt.err))
		})
	}
}
