// Package awscost produces organization-wide AWS cost summaries. Data is
// read-only and fetched per request; nothing is cached across calls.
package awscost

import "time"

// Account is a member account of the AWS organization.
type Account struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Cost   float64 `json:"cost"`
}

// TrendPoint is one month of total spend.
type TrendPoint struct {
	Start time.Time `json:"start"`
	Cost  float64   `json:"cost"`
}

// CostSummary aggregates the organization's spend for the dashboard.
type CostSummary struct {
	Accounts      []Account          `json:"accounts"`
	TotalCost     float64            `json:"total_cost"`
	CostByService map[string]float64 `json:"cost_by_service"`
	CostTrend     []TrendPoint       `json:"cost_trend"`
}
