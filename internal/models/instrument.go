package models

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// EmbeddedFile is a small file carried inline in an instrument record.
type EmbeddedFile struct {
	Name   string
	Base64 string
	Type   string
}

func (f EmbeddedFile) IsZero() bool {
	return f.Name == "" && f.Base64 == "" && f.Type == ""
}

// Instrument is one entry of the catalog. The schema is flexible: keys
// without a dedicated field are kept in Extra and written back verbatim.
type Instrument struct {
	ID          int64
	Name        string
	Type        string
	Axis        string
	Start       *float64
	End         Mixed
	Cadence     Mixed
	Status      string
	Tracking    string
	Observatory string
	Link        string
	ReportRef   string
	Description string

	Document EmbeddedFile
	Analysis EmbeddedFile
	Law      EmbeddedFile

	Extra map[string]json.RawMessage
}

// instrumentWire is the JSON shape used by the existing clients.
type instrumentWire struct {
	ID          int64    `json:"id"`
	Name        string   `json:"nombre,omitempty"`
	Type        string   `json:"tipo,omitempty"`
	Axis        string   `json:"eje,omitempty"`
	Start       *float64 `json:"inicio,omitempty"`
	End         Mixed    `json:"fin,omitzero"`
	Cadence     Mixed    `json:"temporalidad,omitzero"`
	Status      string   `json:"estado,omitempty"`
	Tracking    string   `json:"seguimiento,omitempty"`
	Observatory string   `json:"observatorio,omitempty"`
	Link        string   `json:"enlace,omitempty"`
	ReportRef   string   `json:"pdf_informe,omitempty"`
	Description string   `json:"description,omitempty"`

	DocumentName   string `json:"archivo_nombre,omitempty"`
	DocumentBase64 string `json:"archivo_base64,omitempty"`
	DocumentType   string `json:"archivo_tipo,omitempty"`
	AnalysisName   string `json:"archivo_analisis_nombre,omitempty"`
	AnalysisBase64 string `json:"archivo_analisis_base64,omitempty"`
	AnalysisType   string `json:"archivo_analisis_tipo,omitempty"`
	LawName        string `json:"archivo_ley_nombre,omitempty"`
	LawBase64      string `json:"archivo_ley_base64,omitempty"`
	LawType        string `json:"archivo_ley_tipo,omitempty"`
}

var knownInstrumentKeys = jsonFieldNames(reflect.TypeOf(instrumentWire{}))

// Keys echoed back by clients of the previous document store. Never stored.
var internalInstrumentKeys = map[string]struct{}{
	"_id": {},
	"__v": {},
}

func (in Instrument) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(in.wire())
	if err != nil {
		return nil, err
	}
	if len(in.Extra) == 0 {
		return data, nil
	}

	merged := make(map[string]json.RawMessage, len(in.Extra)+len(knownInstrumentKeys))
	for key, value := range in.Extra {
		if _, known := knownInstrumentKeys[key]; known {
			continue
		}
		if _, internal := internalInstrumentKeys[key]; internal {
			continue
		}
		merged[key] = value
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for key, value := range fields {
		merged[key] = value
	}
	return json.Marshal(merged)
}

func (in *Instrument) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("instrument must be a JSON object: %w", err)
	}
	if start, ok := raw[startKey]; ok && len(start) > 0 && start[0] == '"' {
		cast, err := castNumericString(start)
		if err != nil {
			return fmt.Errorf("%s: %w", startKey, err)
		}
		raw[startKey] = cast
		if data, err = json.Marshal(raw); err != nil {
			return err
		}
	}

	var wire instrumentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*in = wire.instrument()
	for key, value := range raw {
		if _, known := knownInstrumentKeys[key]; known {
			continue
		}
		if _, internal := internalInstrumentKeys[key]; internal {
			continue
		}
		if in.Extra == nil {
			in.Extra = make(map[string]json.RawMessage)
		}
		in.Extra[key] = value
	}
	return nil
}

const startKey = "inicio"

// castNumericString turns a JSON string holding a number into that number.
// An empty string becomes null.
func castNumericString(data json.RawMessage) (json.RawMessage, error) {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return json.RawMessage("null"), nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return nil, fmt.Errorf("expected number, got %q", text)
	}
	return json.Marshal(value)
}

func (in Instrument) wire() instrumentWire {
	return instrumentWire{
		ID:             in.ID,
		Name:           in.Name,
		Type:           in.Type,
		Axis:           in.Axis,
		Start:          in.Start,
		End:            in.End,
		Cadence:        in.Cadence,
		Status:         in.Status,
		Tracking:       in.Tracking,
		Observatory:    in.Observatory,
		Link:           in.Link,
		ReportRef:      in.ReportRef,
		Description:    in.Description,
		DocumentName:   in.Document.Name,
		DocumentBase64: in.Document.Base64,
		DocumentType:   in.Document.Type,
		AnalysisName:   in.Analysis.Name,
		AnalysisBase64: in.Analysis.Base64,
		AnalysisType:   in.Analysis.Type,
		LawName:        in.Law.Name,
		LawBase64:      in.Law.Base64,
		LawType:        in.Law.Type,
	}
}

func (w instrumentWire) instrument() Instrument {
	return Instrument{
		ID:          w.ID,
		Name:        w.Name,
		Type:        w.Type,
		Axis:        w.Axis,
		Start:       w.Start,
		End:         w.End,
		Cadence:     w.Cadence,
		Status:      w.Status,
		Tracking:    w.Tracking,
		Observatory: w.Observatory,
		Link:        w.Link,
		ReportRef:   w.ReportRef,
		Description: w.Description,
		Document:    EmbeddedFile{Name: w.DocumentName, Base64: w.DocumentBase64, Type: w.DocumentType},
		Analysis:    EmbeddedFile{Name: w.AnalysisName, Base64: w.AnalysisBase64, Type: w.AnalysisType},
		Law:         EmbeddedFile{Name: w.LawName, Base64: w.LawBase64, Type: w.LawType},
	}
}

func jsonFieldNames(t reflect.Type) map[string]struct{} {
	names := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		names[name] = struct{}{}
	}
	return names
}
