package awscost

import (
	"context"
	"time"
)

// StaticSource serves a canned summary. Used in development when no AWS
// credentials are configured, and by tests.
type StaticSource struct {
	Summary *CostSummary
	Err     error
}

var _ Source = (*StaticSource)(nil)

func NewStaticSource() *StaticSource {
	month := func(offset int) time.Time {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, offset, 0)
	}
	return &StaticSource{
		Summary: &CostSummary{
			Accounts: []Account{
				{ID: "111111111111", Name: "production", Status: "ACTIVE", Cost: 1843.12},
				{ID: "222222222222", Name: "staging", Status: "ACTIVE", Cost: 311.40},
			},
			TotalCost: 2154.52,
			CostByService: map[string]float64{
				"Amazon Elastic Compute Cloud - Compute": 1204.77,
				"Amazon Relational Database Service":     601.10,
				"Amazon Simple Storage Service":          348.65,
			},
			CostTrend: []TrendPoint{
				{Start: month(-2), Cost: 690.11},
				{Start: month(-1), Cost: 722.03},
				{Start: month(0), Cost: 742.38},
			},
		},
	}
}

func (s *StaticSource) OrganizationUsage(context.Context) (*CostSummary, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Summary, nil
}
