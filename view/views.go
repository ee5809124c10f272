package view

import (
	"context"

	"github.com/skylineops/costview/apiclient"
	"github.com/skylineops/costview/awscost"
	"github.com/skylineops/costview/users"
)

// UsersList backs the user administration table.
type UsersList struct {
	*Resource[[]users.User]
}

func NewUsersList(api *apiclient.Client) *UsersList {
	return &UsersList{Resource: NewResource(func(ctx context.Context) ([]users.User, error) {
		var list []users.User
		if err := api.Get(ctx, "/api/users", &list); err != nil {
			return nil, err
		}
		return list, nil
	})}
}

// Profile backs the current user's profile page.
type Profile struct {
	*Resource[users.User]
}

func NewProfile(api *apiclient.Client) *Profile {
	return &Profile{Resource: NewResource(func(ctx context.Context) (users.User, error) {
		var u users.User
		if err := api.Get(ctx, "/api/users/me", &u); err != nil {
			return users.User{}, err
		}
		return u, nil
	})}
}

// Protected backs the token-inspection page; its payload is the decoded
// claim set the backend saw.
type Protected struct {
	*Resource[map[string]any]
}

func NewProtected(api *apiclient.Client) *Protected {
	return &Protected{Resource: NewResource(func(ctx context.Context) (map[string]any, error) {
		var claims map[string]any
		if err := api.Get(ctx, "/api/protected", &claims); err != nil {
			return nil, err
		}
		return claims, nil
	})}
}

// CostDashboard backs the AWS organization usage page.
type CostDashboard struct {
	*Resource[awscost.CostSummary]
}

func NewCostDashboard(api *apiclient.Client) *CostDashboard {
	return &CostDashboard{Resource: NewResource(func(ctx context.Context) (awscost.CostSummary, error) {
		var summary awscost.CostSummary
		if err := api.Get(ctx, "/api/aws/organization-usage", &summary); err != nil {
			return awscost.CostSummary{}, err
		}
		return summary, nil
	})}
}
