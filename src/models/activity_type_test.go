package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validActivityType() ActivityType {
	return ActivityType{
		Name:     "שיעור תניא",
		Category: ActivityRegular,
		Tiers:    []Tier{{Min: 1, Max: 20, Amount: 100}},
	}
}

func TestActivityTypeValidate(t *testing.T) {
	at := validActivityType()
	assert.NoError(t, at.Validate())

	t.Run("empty name", func(t *testing.T) {
		at := validActivityType()
		at.Name = "  "
		assert.Error(t, at.Validate())
	})

	t.Run("no tiers", func(t *testing.T) {
		at := validActivityType()
		at.Tiers = nil
		assert.ErrorIs(t, at.Validate(), ErrNoTiers)
	})

	t.Run("inverted tier range", func(t *testing.T) {
		at := validActivityType()
		at.Tiers = []Tier{{Min: 20, Max: 10, Amount: 100}}
		assert.Error(t, at.Validate())
	})

	t.Run("negative tier amount", func(t *testing.T) {
		at := validActivityType()
		at.Tiers = []Tier{{Min: 1, Max: 20, Amount: -5}}
		assert.Error(t, at.Validate())
	})

	t.Run("unknown category", func(t *testing.T) {
		at := validActivityType()
		at.Category = "weekly"
		assert.Error(t, at.Validate())
	})

	t.Run("overlapping tiers are allowed", func(t *testing.T) {
		at := validActivityType()
		at.Tiers = []Tier{{Min: 1, Max: 30, Amount: 50}, {Min: 10, Max: 40, Amount: 500}}
		assert.NoError(t, at.Validate())
	})

	t.Run("unknown field kind", func(t *testing.T) {
		at := validActivityType()
		at.CustomFields = []CustomField{{ID: "notes", Label: "הערות", Kind: "dropdown"}}
		assert.ErrorIs(t, at.Validate(), ErrInvalidFieldKind)
	})

	t.Run("field without label", func(t *testing.T) {
		at := validActivityType()
		at.CustomFields = []CustomField{{ID: "notes", Kind: FieldText}}
		assert.Error(t, at.Validate())
	})
}

func TestActivityTypeValidateAnswers(t *testing.T) {
	at := validActivityType()
	at.CustomFields = []CustomField{
		{ID: "location", Label: "מיקום", Kind: FieldText, Required: true},
		{ID: "duration", Label: "משך בשעות", Kind: FieldNumber},
		{ID: "with_meal", Label: "כולל סעודה", Kind: FieldBoolean},
	}

	t.Run("valid answers", func(t *testing.T) {
		assert.NoError(t, at.ValidateAnswers(map[string]string{
			"location":  "בית חב\"ד",
			"duration":  "1.5",
			"with_meal": "true",
		}))
	})

	t.Run("missing required answer", func(t *testing.T) {
		assert.Error(t, at.ValidateAnswers(map[string]string{"duration": "2"}))
	})

	t.Run("blank required answer", func(t *testing.T) {
		assert.Error(t, at.ValidateAnswers(map[string]string{"location": "   "}))
	})

	t.Run("optional answers may be omitted", func(t *testing.T) {
		assert.NoError(t, at.ValidateAnswers(map[string]string{"location": "בית חב\"ד"}))
	})

	t.Run("number field must parse", func(t *testing.T) {
		assert.Error(t, at.ValidateAnswers(map[string]string{
			"location": "בית חב\"ד",
			"duration": "שעתיים",
		}))
	})

	t.Run("boolean field must parse", func(t *testing.T) {
		assert.Error(t, at.ValidateAnswers(map[string]string{
			"location":  "בית חב\"ד",
			"with_meal": "כן",
		}))
	})
}
