package store

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrCapacityExhausted marks writes rejected because the database is full.
var ErrCapacityExhausted = errors.New("storage capacity exhausted")

// Wording used by hosted databases and SQLite when a size limit is hit.
var capacityMarkers = []string{
	"quota",
	"storage",
	"database or disk is full",
	"no space left",
}

// IsCapacityError reports whether err means the backing store is full.
// Wording is matched against the driver error only; context added by
// wrapping (file names, chunk numbers) never counts.
func IsCapacityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCapacityExhausted) {
		return true
	}
	if sqliteCode(err) == sqlite3.SQLITE_FULL {
		return true
	}
	msg := strings.ToLower(driverCause(err).Error())
	for _, marker := range capacityMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsBusyError reports whether err is a transient lock conflict.
func IsBusyError(err error) bool {
	switch sqliteCode(err) {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	default:
		return false
	}
}

// classifyWriteError tags capacity failures with ErrCapacityExhausted while
// keeping the driver error in the chain.
func classifyWriteError(err error) error {
	if err == nil || errors.Is(err, ErrCapacityExhausted) {
		return err
	}
	if IsCapacityError(err) {
		return fmt.Errorf("%w: %w", ErrCapacityExhausted, err)
	}
	return err
}

// driverCause returns the *sqlite.Error in the chain, or else the innermost
// wrapped error.
func driverCause(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// sqliteCode returns the primary result code of a driver error, or -1.
func sqliteCode(err error) int {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return -1
	}
	return sqliteErr.Code() & 0xff
}
