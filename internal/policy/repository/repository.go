package repository

import (
	"context"

	"portfolio-client/internal/policy/domain"
)

// Repository supplies route policies.
type Repository interface {
	// ListEnabled returns the enabled policies. An empty result means "use the built-in policy".
	ListEnabled(ctx context.Context) ([]*domain.Policy, error)
}
