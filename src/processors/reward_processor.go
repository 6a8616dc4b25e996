package processors

import (
	"github.com/merkaz770/shluchim/backend/src/models"
)

// RewardCalculator turns a reported participant count into a monetary reward
// according to an activity type's tiers.
type RewardCalculator interface {
	Compute(def *models.ActivityType, participants int) float64
}

type rewardCalculatorImpl struct{}

func NewRewardCalculator() RewardCalculator {
	return &rewardCalculatorImpl{}
}

// Compute returns the amount of the first tier (in definition order) whose
// inclusive [Min, Max] range contains the participant count. A count of zero
// or less, a missing definition, or a count no tier covers all yield 0; an
// unsupported count is a defined outcome, not an error. Overlapping tiers are
// a data-entry concern and the first match simply wins.
func (rewardCalculatorImpl) Compute(def *models.ActivityType, participants int) float64 {
	if def == nil || participants <= 0 {
		return 0
	}
	for _, tier := range def.Tiers {
		if participants >= tier.Min && participants <= tier.Max {
			return tier.Amount
		}
	}
	return 0
}
