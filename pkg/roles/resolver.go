// Package roles resolves the role set a profile holds.
package roles

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/trellis/pkg/models"
	"github.com/Ramsey-B/trellis/pkg/tracing"
)

// ProfileSource is the read surface the resolver needs.
type ProfileSource interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
}

// Resolver looks up the roles held by a profile.
type Resolver struct {
	logger   ectologger.Logger
	profiles ProfileSource
}

// NewResolver creates a new role resolver
func NewResolver(profiles ProfileSource, logger ectologger.Logger) *Resolver {
	return &Resolver{profiles: profiles, logger: logger}
}

// RolesOf returns the role set for the profile. A missing profile surfaces
// as NotFound; a profile with no roles resolves to an empty set.
func (r *Resolver) RolesOf(ctx context.Context, profileID string) (models.RoleSet, error) {
	ctx, span := tracing.StartSpan(ctx, "roles.Resolver.RolesOf")
	defer span.End()

	profile, err := r.profiles.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	return profile.RoleSet(), nil
}
