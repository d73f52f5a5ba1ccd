package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds block ids and style names read from scene files.
const maxIDLength = 256

// ValidateID validates a block id read from an external description.
//
// The rules are intentionally conservative:
//   - No empty ids
//   - No control characters or whitespace
//   - Maximum length of 256 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "block id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "block id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "block id %q contains whitespace or control characters", id)
		}
	}
	return nil
}

// ValidateStyleName validates the syntax of a visual style name.
// Whether the style exists is decided by the workspace style registry.
func ValidateStyleName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidStyle, "style name cannot be empty")
	}
	if len(name) > maxIDLength {
		return New(ErrCodeInvalidStyle, "style name too long (max %d characters)", maxIDLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidStyle, "style name contains invalid control characters")
		}
	}
	return nil
}
