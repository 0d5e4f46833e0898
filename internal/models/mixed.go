package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MixedKind tags the value held by a Mixed.
type MixedKind uint8

const (
	MixedAbsent MixedKind = iota
	MixedNumber
	MixedString
)

// Mixed is a field that may hold a number, a string, or nothing.
// JSON null decodes to absent. Booleans, arrays and objects are rejected.
type Mixed struct {
	kind MixedKind
	num  float64
	str  string
}

// NumberValue returns a Mixed holding v.
func NumberValue(v float64) Mixed {
	return Mixed{kind: MixedNumber, num: v}
}

// StringValue returns a Mixed holding s.
func StringValue(s string) Mixed {
	return Mixed{kind: MixedString, str: s}
}

func (m Mixed) Kind() MixedKind { return m.kind }

// IsZero reports whether the value is absent; used by omitzero.
func (m Mixed) IsZero() bool { return m.kind == MixedAbsent }

func (m Mixed) Number() (float64, bool) {
	return m.num, m.kind == MixedNumber
}

func (m Mixed) Text() (string, bool) {
	return m.str, m.kind == MixedString
}

// String renders the value for plain-text output.
func (m Mixed) String() string {
	switch m.kind {
	case MixedNumber:
		return strconv.FormatFloat(m.num, 'f', -1, 64)
	case MixedString:
		return m.str
	default:
		return ""
	}
}

func (m Mixed) MarshalJSON() ([]byte, error) {
	switch m.kind {
	case MixedNumber:
		return json.Marshal(m.num)
	case MixedString:
		return json.Marshal(m.str)
	default:
		return []byte("null"), nil
	}
}

func (m *Mixed) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = Mixed{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*m = StringValue(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v float64
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*m = NumberValue(v)
		return nil
	default:
		return fmt.Errorf("expected number or string, got %s", describeJSON(trimmed))
	}
}

func describeJSON(data []byte) string {
	switch data[0] {
	case 't', 'f':
		return "boolean"
	case '{':
		return "object"
	case '[':
		return "array"
	default:
		return "invalid value"
	}
}
