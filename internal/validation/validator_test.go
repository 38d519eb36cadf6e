// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type sampleRecord struct {
	UserID   string             `json:"user_id" validate:"required,max=8"`
	Kind     string             `json:"kind" validate:"omitempty,oneof=indoor outdoor either"`
	Score    *float64           `json:"score,omitempty" validate:"omitempty,gte=0,lte=1"`
	Affinity map[string]float64 `json:"affinity" validate:"omitempty,dive,gte=0,lte=1"`
	Internal string             `json:"-"`
}

func floatPtr(f float64) *float64 { return &f }

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     sampleRecord
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid minimal record",
			input: sampleRecord{UserID: "u1"},
		},
		{
			name:  "valid full record",
			input: sampleRecord{UserID: "u1", Kind: "indoor", Score: floatPtr(0.5), Affinity: map[string]float64{"a": 1}},
		},
		{
			name:      "missing required field uses json name",
			input:     sampleRecord{},
			wantErr:   true,
			wantField: "user_id",
			wantMsg:   "user_id is required",
		},
		{
			name:      "string too long",
			input:     sampleRecord{UserID: "abcdefghij"},
			wantErr:   true,
			wantField: "user_id",
			wantMsg:   "user_id must be at most 8 characters",
		},
		{
			name:      "oneof violation",
			input:     sampleRecord{UserID: "u1", Kind: "underwater"},
			wantErr:   true,
			wantField: "kind",
			wantMsg:   "kind must be one of: indoor outdoor either",
		},
		{
			name:      "pointer out of range",
			input:     sampleRecord{UserID: "u1", Score: floatPtr(1.5)},
			wantErr:   true,
			wantField: "score",
			wantMsg:   "score must be less than or equal to 1",
		},
		{
			name:    "map value out of range",
			input:   sampleRecord{UserID: "u1", Affinity: map[string]float64{"a": -0.1}},
			wantErr: true,
			wantMsg: "must be greater than or equal to 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verr := ValidateStruct(&tt.input)
			if (verr != nil) != tt.wantErr {
				t.Fatalf("ValidateStruct() error = %v, wantErr %v", verr, tt.wantErr)
			}
			if verr == nil {
				return
			}
			if tt.wantField != "" && verr.Errors()[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", verr.Errors()[0].Field(), tt.wantField)
			}
			if !strings.Contains(verr.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want to contain %q", verr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRequestValidationError_MultipleFields(t *testing.T) {
	verr := ValidateStruct(&sampleRecord{Kind: "nope"})
	if verr == nil {
		t.Fatal("expected validation error")
	}

	fields := verr.Fields()
	if len(fields) != 2 {
		t.Fatalf("Fields() = %v, want 2 entries", fields)
	}
	if !strings.Contains(verr.Error(), "; ") {
		t.Errorf("Error() = %q, want messages joined by '; '", verr.Error())
	}
}

func TestRequestValidationError_Empty(t *testing.T) {
	verr := &RequestValidationError{}
	if verr.Error() != "validation failed" {
		t.Errorf("Error() = %q, want %q", verr.Error(), "validation failed")
	}
}

func TestValidateStruct_NonStruct(t *testing.T) {
	verr := ValidateStruct("not a struct")
	if verr == nil {
		t.Fatal("expected error for non-struct input")
	}
	if verr.Errors()[0].Field() != "unknown" {
		t.Errorf("Field() = %q, want unknown", verr.Errors()[0].Field())
	}
}
