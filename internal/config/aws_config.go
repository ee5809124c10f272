package config

import "strconv"

type AwsConfig interface {
	GetAwsRegion() string
	GetAwsEndpoint() string
	GetCostLookbackMonths() int
	GetCostSource() string
}

type Aws struct{}

var _ AwsConfig = Aws{}

func (Aws) GetAwsRegion() string {
	return GetEnv("AWS_REGION", "us-east-1")
}

// GetAwsEndpoint overrides the AWS API endpoint, used for localstack testing.
func (Aws) GetAwsEndpoint() string {
	return GetEnv("AWS_ENDPOINT", "")
}

// GetCostSource selects the cost data backend, "aws" or "static".
func (Aws) GetCostSource() string {
	return GetEnv("COST_SOURCE", "aws")
}

func (Aws) GetCostLookbackMonths() int {
	months, err := strconv.Atoi(GetEnv("COST_LOOKBACK_MONTHS", "6"))
	if err != nil || months < 1 {
		return 6
	}
	return months
}
