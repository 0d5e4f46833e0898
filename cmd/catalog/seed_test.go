package main

import (
	"strings"
	"testing"
)

func TestParseSeedDocument(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantIDs []int64
	}{
		{
			name:    "yaml list",
			input:   "- id: 2\n  nombre: Censo\n- id: 1\n  nombre: Encuesta\n",
			wantIDs: []int64{2, 1},
		},
		{
			name:    "yaml mapping",
			input:   "instruments:\n  - id: 7\n    fin: 2030\n    temporalidad: anual\n",
			wantIDs: []int64{7},
		},
		{
			name:    "json list",
			input:   `[{"id": 3, "nombre": "Registro", "inicio": 2001}]`,
			wantIDs: []int64{3},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			records, err := parseSeedDocument([]byte(tc.input))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if len(records) != len(tc.wantIDs) {
				t.Fatalf("expected %d records, got %d", len(tc.wantIDs), len(records))
			}
			for i, id := range tc.wantIDs {
				if records[i].ID != id {
					t.Fatalf("record %d: expected id %d, got %d", i, id, records[i].ID)
				}
			}
		})
	}
}

func TestParseSeedDocumentMixedFields(t *testing.T) {
	records, err := parseSeedDocument([]byte("- id: 1\n  fin: 2030\n  temporalidad: anual\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, ok := records[0].End.Number(); !ok || v != 2030 {
		t.Fatalf("expected numeric fin 2030, got %v", records[0].End)
	}
	if v, ok := records[0].Cadence.Text(); !ok || v != "anual" {
		t.Fatalf("expected text temporalidad, got %v", records[0].Cadence)
	}
}

func TestParseSeedDocumentRejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "empty"},
		{name: "scalar", input: "hello", wantErr: "list of records"},
		{name: "mapping without list", input: "records: []", wantErr: "instruments"},
		{name: "invalid yaml", input: "- id: [1", wantErr: ""},
		{name: "boolean mixed field", input: "- id: 1\n  fin: true\n", wantErr: "boolean"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseSeedDocument([]byte(tc.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != "" && !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
