package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrIDRequired is returned when a record carries no usable id.
var ErrIDRequired = errors.New("ID is required")

// ParseInstrumentID parses a record id given as a base-10 integer string.
func ParseInstrumentID(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, ErrIDRequired
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %s", value)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid id: %d", id)
	}
	return id, nil
}

// Validate checks the invariants every stored record must hold.
func (in *Instrument) Validate() error {
	if in == nil || in.ID == 0 {
		return ErrIDRequired
	}
	if in.ID < 0 {
		return fmt.Errorf("invalid id: %d", in.ID)
	}
	return nil
}

// ValidateSeed checks a bootstrap batch: every record valid, no id repeated.
func ValidateSeed(records []Instrument) error {
	seen := make(map[int64]struct{}, len(records))
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[records[i].ID]; dup {
			return fmt.Errorf("record %d: duplicate id %d", i, records[i].ID)
		}
		seen[records[i].ID] = struct{}{}
	}
	return nil
}
