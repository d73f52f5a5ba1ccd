package errors

import (
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "block1", false},
		{"valid uuid", "4f9c2a8e-2b47-4a43-9a0e-0d5b6c2f7e11", false},
		{"valid with colon", "repeat:1", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"space", "foo bar", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateStyleName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "logic_blocks", false},
		{"valid with space", "loop blocks", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"control char", "logic\x01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStyleName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStyleName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidStyle) {
				t.Errorf("ValidateStyleName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidStyle)
			}
		})
	}
}
