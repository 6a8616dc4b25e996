// backend/src/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxTitleLength           = 255
	MaxRejectionReasonLength = 512
	MaxNoteLength            = 1024
	MaxNameLength            = 120
	MaxBankFieldLength       = 34

	// Caps on amounts and participant counts; anything past these is a typo.
	MaxTransactionAmount = 1_000_000
	MaxParticipants      = 100_000
)

var idNumberPattern = regexp.MustCompile(`^[0-9]{5,9}$`)

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

// ValidateIDNumber checks the national id-document number used for login.
func ValidateIDNumber(s string) error {
	if !idNumberPattern.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("%w: id number must be 5 to 9 digits", ErrValidationFailed)
	}
	return nil
}

// ValidateAmount checks a monetary magnitude: non-negative and within bounds.
func ValidateAmount(amount float64, fieldName string) error {
	if amount < 0 {
		return fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	if amount > MaxTransactionAmount {
		return fmt.Errorf("%w: %s exceeds the maximum of %d", ErrValidationFailed, fieldName, MaxTransactionAmount)
	}
	return nil
}

// ValidateParticipants checks a reported participant count.
func ValidateParticipants(count int) error {
	if count < 0 {
		return fmt.Errorf("%w: participant count cannot be negative", ErrValidationFailed)
	}
	if count > MaxParticipants {
		return fmt.Errorf("%w: participant count exceeds the maximum of %d", ErrValidationFailed, MaxParticipants)
	}
	return nil
}

// ParseDate parses the wire date format (YYYY-MM-DD) used for effective dates.
func ParseDate(s, fieldName string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD)", ErrValidationFailed, fieldName, s)
	}
	return t, nil
}
