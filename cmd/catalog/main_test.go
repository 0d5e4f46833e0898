package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	canceled := fmt.Errorf("list files: %w", context.Canceled)
	tests := []struct {
		name        string
		err         error
		interrupted bool
		want        int
	}{
		{name: "interrupted request", err: canceled, interrupted: true, want: exitInterrupted},
		{name: "canceled without signal", err: canceled, want: exitFailure},
		{name: "plain failure", err: errors.New("boom"), interrupted: true, want: exitFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err, tc.interrupted); got != tc.want {
				t.Fatalf("exitCode = %d, want %d", got, tc.want)
			}
		})
	}
}
