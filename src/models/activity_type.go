package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActivityCategory distinguishes routine activities from special campaigns.
type ActivityCategory string

const (
	ActivityRegular ActivityCategory = "regular"
	ActivitySpecial ActivityCategory = "special"
)

// Tier maps an inclusive participant-count range to a fixed reward amount.
// Tiers are kept in definition order; they are not required to be contiguous
// or exhaustive, and overlaps resolve to the first match.
type Tier struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Amount float64 `json:"amount"`
}

// CustomFieldKind is the input type of an activity custom field.
type CustomFieldKind string

const (
	FieldText     CustomFieldKind = "text"
	FieldNumber   CustomFieldKind = "number"
	FieldBoolean  CustomFieldKind = "boolean"
	FieldLongText CustomFieldKind = "long-text"
)

// CustomField is an extra question the representative answers when reporting
// this kind of activity.
type CustomField struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Kind     CustomFieldKind `json:"kind"`
	Required bool            `json:"required"`
}

// ActivityType defines a reportable activity: its reward tiers and the custom
// fields collected on submission.
type ActivityType struct {
	ID           int64            `json:"id,omitempty"`
	Name         string           `json:"name"`
	Category     ActivityCategory `json:"category"`
	Tiers        []Tier           `json:"tiers"`
	CustomFields []CustomField    `json:"custom_fields"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

var (
	// ErrNoTiers refuses saving an activity type without a single tier.
	ErrNoTiers = errors.New("activity type must define at least one tier")

	// ErrInvalidFieldKind refuses an unknown custom field kind.
	ErrInvalidFieldKind = errors.New("invalid custom field kind")
)

// Validate checks the definition is usable before it is saved. Tier overlap is
// deliberately not checked here; overlapping tiers resolve to the first match
// at reward time.
func (a *ActivityType) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("activity type name cannot be empty")
	}
	if len(a.Tiers) == 0 {
		return ErrNoTiers
	}
	for i, tier := range a.Tiers {
		if tier.Min < 0 || tier.Max < tier.Min {
			return fmt.Errorf("tier %d has an invalid range [%d, %d]", i, tier.Min, tier.Max)
		}
		if tier.Amount < 0 {
			return fmt.Errorf("tier %d has a negative amount", i)
		}
	}
	if a.Category != ActivityRegular && a.Category != ActivitySpecial {
		return fmt.Errorf("unknown activity category %q", a.Category)
	}
	for _, field := range a.CustomFields {
		switch field.Kind {
		case FieldText, FieldNumber, FieldBoolean, FieldLongText:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidFieldKind, field.Kind)
		}
		if strings.TrimSpace(field.ID) == "" || strings.TrimSpace(field.Label) == "" {
			return errors.New("custom field id and label cannot be empty")
		}
	}
	return nil
}

// ValidateAnswers checks a submission's custom-field answers against the
// definition: required fields must be answered, and typed fields must parse.
func (a *ActivityType) ValidateAnswers(answers map[string]string) error {
	for _, field := range a.CustomFields {
		answer, ok := answers[field.ID]
		if !ok || strings.TrimSpace(answer) == "" {
			if field.Required {
				return fmt.Errorf("required field %q is missing an answer", field.Label)
			}
			continue
		}
		switch field.Kind {
		case FieldNumber:
			if _, err := strconv.ParseFloat(strings.TrimSpace(answer), 64); err != nil {
				return fmt.Errorf("field %q expects a number, got %q", field.Label, answer)
			}
		case FieldBoolean:
			if _, err := strconv.ParseBool(strings.TrimSpace(answer)); err != nil {
				return fmt.Errorf("field %q expects a boolean, got %q", field.Label, answer)
			}
		}
	}
	return nil
}
