package main

import (
	"context"
	"errors"
	"net"

	"catalog/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	if apiErr, ok := api.AsAPIError(err); ok {
		switch {
		case apiErr.IsCapacityExhausted():
			lines = append(lines, "hint: the database is full; delete files or records, or raise storage.quota_bytes.")
		case apiErr.IsUnavailable():
			lines = append(lines, "hint: the server cannot reach its database; check CATALOG_DB and the server logs.")
		case apiErr.IsServerFault():
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		case apiErr.IsNotFound() && apiErr.FromCatalog():
			lines = append(lines, "hint: list stored records and files with: catalog records list, catalog files list")
		}
		if !apiErr.FromCatalog() {
			lines = append(lines, "hint: verify CATALOG_API_URL points to a catalog server.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase CATALOG_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a catalog server is running at CATALOG_API_URL.",
			"hint: start local server manually with: catalog srv",
			"hint: you can increase CATALOG_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
