package models

import "time"

// SubscriptionType is a fixed-cost monthly plan a representative can be
// enrolled in. The billing run charges each enrolled representative the plan's
// monthly cost once per billing period.
type SubscriptionType struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	MonthlyCost float64   `json:"monthly_cost"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
