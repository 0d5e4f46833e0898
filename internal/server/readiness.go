package server

import (
	"context"
	"fmt"

	"catalog/internal/store"
)

// ensureReady fails with 503 when the database cannot serve requests.
func ensureReady(ctx context.Context, ready store.Readiness) error {
	if ready == nil {
		return unavailable(fmt.Errorf("database is not configured"))
	}
	if err := ready.Ready(ctx); err != nil {
		return unavailable(fmt.Errorf("database unavailable: %w", err))
	}
	return nil
}
