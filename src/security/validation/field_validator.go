// src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/username/wheelbook/backend/src/logger"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxSymbolLength        = 12
	MaxRawSymbolLength     = 128
	MaxDescriptionLength   = 1024
)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateStringRegex checks if a string matches a given regex pattern.
func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not in the expected format (%s)", ErrValidationFailed, fieldName, s, formatDescription)
	}
	return nil
}

// --- Specific Format Validators ---

// Tickers like "AAPL", "BRK.B" or "RDS-A".
var symbolRegex = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]*$`)

// ValidateSymbol checks an already upper-cased ticker symbol.
func ValidateSymbol(s string) error {
	if err := ValidateStringNotEmpty(s, "symbol"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxSymbolLength, "symbol"); err != nil {
		return err
	}
	return ValidateStringRegex(s, symbolRegex, "symbol", "letters, digits, '.' or '-', starting with a letter")
}

// --- Broker Text Validators ---

var (
	// Broker descriptions and raw symbols are plain text; any tag or script scheme is foreign.
	markupRegex = regexp.MustCompile(`(?i)<\s*/?\s*[a-z!]|javascript:|vbscript:|data:text/html`)
	// Spreadsheet formula triggers. A leading '-' stays allowed for signed quantities like "-1 CALL XYZ".
	formulaPrefixRegex = regexp.MustCompile(`^[=+@]`)
)

// ValidateFreeText bounds a broker description or raw symbol and rejects text that
// could not have come from a broker export: control characters, markup, or a
// leading spreadsheet formula.
func ValidateFreeText(s string, maxLength int, fieldName, contextID string) error {
	if err := ValidateStringMaxLength(s, maxLength, fieldName); err != nil {
		return err
	}
	var reason string
	switch {
	case strings.IndexFunc(s, unicode.IsControl) >= 0:
		reason = "control characters"
	case markupRegex.MatchString(s):
		reason = "markup or script content"
	case formulaPrefixRegex.MatchString(strings.TrimSpace(s)):
		reason = "a spreadsheet formula prefix"
	default:
		return nil
	}
	logger.L.Warn("Rejected free text", "field", fieldName, "reason", reason, "contextID", contextID, "preview", preview(s))
	return fmt.Errorf("%w: %s contains %s", ErrValidationFailed, fieldName, reason)
}

func preview(s string) string {
	if r := []rune(s); len(r) > 40 {
		return string(r[:40]) + "..."
	}
	return s
}
