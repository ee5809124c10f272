package awscost

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/costexplorer"
	"github.com/aws/aws-sdk-go/service/organizations"
	"github.com/rs/zerolog/log"

	"github.com/skylineops/costview/internal/config"
)

const (
	costMetric  = "UnblendedCost"
	granularity = "MONTHLY"
	dateLayout  = "2006-01-02"
)

// AWSSource implements Source against the Cost Explorer and Organizations
// APIs. Credentials come from the default AWS credential chain.
type AWSSource struct {
	costExplorer *costexplorer.CostExplorer
	orgs         *organizations.Organizations
	lookback     int
	nowTime      func() time.Time
}

var _ Source = (*AWSSource)(nil)

func NewAWSSource(cfg config.AwsConfig) (*AWSSource, error) {
	awsCfg := aws.Config{
		Region: aws.String(cfg.GetAwsRegion()),
	}
	if cfg.GetAwsEndpoint() != "" {
		awsCfg.Endpoint = aws.String(cfg.GetAwsEndpoint())
	}

	sess, err := session.NewSession(&awsCfg)
	if err != nil {
		return nil, fmt.Errorf("[NewAWSSource] create AWS session: %w", err)
	}

	return &AWSSource{
		costExplorer: costexplorer.New(sess),
		orgs:         organizations.New(sess),
		lookback:     cfg.GetCostLookbackMonths(),
		nowTime:      time.Now,
	}, nil
}

func (s *AWSSource) OrganizationUsage(ctx context.Context) (*CostSummary, error) {
	now := s.nowTime().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(s.lookback - 1), 0)
	period := &costexplorer.DateInterval{
		Start: aws.String(start.Format(dateLayout)),
		End:   aws.String(now.AddDate(0, 0, 1).Format(dateLayout)),
	}

	summary := &CostSummary{CostByService: map[string]float64{}}

	if err := s.fillTrend(ctx, period, summary); err != nil {
		return nil, err
	}
	if err := s.fillServiceBreakdown(ctx, period, summary); err != nil {
		return nil, err
	}
	if err := s.fillAccounts(ctx, period, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// fillTrend loads the monthly totals; the summary total is their sum.
func (s *AWSSource) fillTrend(ctx context.Context, period *costexplorer.DateInterval, summary *CostSummary) error {
	out, err := s.costExplorer.GetCostAndUsageWithContext(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  period,
		Granularity: aws.String(granularity),
		Metrics:     []*string{aws.String(costMetric)},
	})
	if err != nil {
		return fmt.Errorf("[OrganizationUsage] cost trend: %w", err)
	}

	for _, result := range out.ResultsByTime {
		amount := metricAmount(result.Total)
		point := TrendPoint{Cost: amount}
		if result.TimePeriod != nil && result.TimePeriod.Start != nil {
			if t, err := time.Parse(dateLayout, *result.TimePeriod.Start); err == nil {
				point.Start = t
			}
		}
		summary.CostTrend = append(summary.CostTrend, point)
		summary.TotalCost += amount
	}
	return nil
}

func (s *AWSSource) fillServiceBreakdown(ctx context.Context, period *costexplorer.DateInterval, summary *CostSummary) error {
	out, err := s.costExplorer.GetCostAndUsageWithContext(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  period,
		Granularity: aws.String(granularity),
		Metrics:     []*string{aws.String(costMetric)},
		GroupBy: []*costexplorer.GroupDefinition{{
			Type: aws.String(costexplorer.GroupDefinitionTypeDimension),
			Key:  aws.String("SERVICE"),
		}},
	})
	if err != nil {
		return fmt.Errorf("[OrganizationUsage] service breakdown: %w", err)
	}

	for _, result := range out.ResultsByTime {
		for _, group := range result.Groups {
			if len(group.Keys) == 0 || group.Keys[0] == nil {
				continue
			}
			summary.CostByService[*group.Keys[0]] += metricAmount(group.Metrics)
		}
	}
	return nil
}

func (s *AWSSource) fillAccounts(ctx context.Context, period *costexplorer.DateInterval, summary *CostSummary) error {
	perAccount := map[string]float64{}
	out, err := s.costExplorer.GetCostAndUsageWithContext(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  period,
		Granularity: aws.String(granularity),
		Metrics:     []*string{aws.String(costMetric)},
		GroupBy: []*costexplorer.GroupDefinition{{
			Type: aws.String(costexplorer.GroupDefinitionTypeDimension),
			Key:  aws.String("LINKED_ACCOUNT"),
		}},
	})
	if err != nil {
		return fmt.Errorf("[OrganizationUsage] account breakdown: %w", err)
	}
	for _, result := range out.ResultsByTime {
		for _, group := range result.Groups {
			if len(group.Keys) == 0 || group.Keys[0] == nil {
				continue
			}
			perAccount[*group.Keys[0]] += metricAmount(group.Metrics)
		}
	}

	err = s.orgs.ListAccountsPagesWithContext(ctx, &organizations.ListAccountsInput{},
		func(page *organizations.ListAccountsOutput, _ bool) bool {
			for _, acct := range page.Accounts {
				account := Account{
					ID:     aws.StringValue(acct.Id),
					Name:   aws.StringValue(acct.Name),
					Status: aws.StringValue(acct.Status),
				}
				account.Cost = perAccount[account.ID]
				summary.Accounts = append(summary.Accounts, account)
			}
			return true
		})
	if err != nil {
		// The caller may lack organizations:ListAccounts; degrade to the
		// cost data alone rather than failing the whole dashboard.
		log.Warn().Err(err).Msg("listing organization accounts failed")
		for id, cost := range perAccount {
			summary.Accounts = append(summary.Accounts, Account{ID: id, Cost: cost})
		}
		sort.Slice(summary.Accounts, func(i, j int) bool {
			return summary.Accounts[i].ID < summary.Accounts[j].ID
		})
	}
	return nil
}

func metricAmount(metrics map[string]*costexplorer.MetricValue) float64 {
	metric, ok := metrics[costMetric]
	if !ok || metric == nil || metric.Amount == nil {
		return 0
	}
	amount, err := strconv.ParseFloat(*metric.Amount, 64)
	if err != nil {
		return 0
	}
	return amount
}
