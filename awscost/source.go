package awscost

import "context"

// Source yields the current organization cost summary.
type Source interface {
	OrganizationUsage(ctx context.Context) (*CostSummary, error)
}
