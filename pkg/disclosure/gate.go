package disclosure

import (
	"context"

	"github.com/Gobusters/ectologger"

	trelliserr "github.com/Ramsey-B/trellis/pkg/errors"
	"github.com/Ramsey-B/trellis/pkg/models"
	"github.com/Ramsey-B/trellis/pkg/tracing"
)

// GroupSource reads match groups.
type GroupSource interface {
	Get(ctx context.Context, id string) (*models.MatchGroup, error)
}

// ContactSource reads profiles and the role-specific phone sub-records.
type ContactSource interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	ApplicantFormPhone(ctx context.Context, profileID string) (*string, error)
	PeerProfilePhone(ctx context.Context, profileID string) (*string, error)
	PropertyPhone(ctx context.Context, landlordID string) (*string, error)
	EmployerProfilePhone(ctx context.Context, profileID string) (*string, error)
}

// Gate releases a counterpart's contact details only to members of a live
// match group. Contact data is never attached to a connection request itself.
type Gate struct {
	groups   GroupSource
	contacts ContactSource
	logger   ectologger.Logger
}

func NewGate(groups GroupSource, contacts ContactSource, logger ectologger.Logger) *Gate {
	return &Gate{
		groups:   groups,
		contacts: contacts,
		logger:   logger,
	}
}

// Reveal returns the counterpart's contact info for the viewer's match group.
// The viewer must occupy a slot in the group and the group must not have
// ended. Denials carry no detail about what was withheld.
func (g *Gate) Reveal(ctx context.Context, matchGroupID string, viewerID string) (*models.ContactInfo, error) {
	ctx, span := tracing.StartSpan(ctx, "disclosure.Gate.Reveal")
	defer span.End()

	group, err := g.groups.Get(ctx, matchGroupID)
	if err != nil {
		if trelliserr.IsNotFound(err) {
			return nil, trelliserr.DisclosureDenied()
		}
		return nil, err
	}
	if group.Status == models.GroupStatusEnded {
		return nil, trelliserr.DisclosureDenied()
	}

	counterpartID, ok := group.Counterpart(viewerID)
	if !ok {
		g.logger.WithContext(ctx).WithFields(map[string]any{
			"match_group_id": matchGroupID,
			"viewer_id":      viewerID,
		}).Warn("Contact disclosure denied for non-member")
		return nil, trelliserr.DisclosureDenied()
	}

	profile, err := g.contacts.Get(ctx, counterpartID)
	if err != nil {
		if trelliserr.IsNotFound(err) {
			return nil, trelliserr.DisclosureDenied()
		}
		return nil, err
	}

	phone, err := g.resolvePhone(ctx, profile)
	if err != nil {
		return nil, err
	}

	return &models.ContactInfo{
		ProfileID:   profile.ID,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		Phone:       phone,
	}, nil
}

// resolvePhone walks the role-specific phone sources in priority order and
// falls back to the bare profile phone. Sources for roles the profile does
// not hold are skipped.
func (g *Gate) resolvePhone(ctx context.Context, profile *models.Profile) (*string, error) {
	roles := profile.RoleSet()

	type source struct {
		role   models.Role
		lookup func(ctx context.Context, profileID string) (*string, error)
	}
	sources := []source{
		{models.RoleApplicant, g.contacts.ApplicantFormPhone},
		{models.RolePeer, g.contacts.PeerProfilePhone},
		{models.RoleLandlord, g.contacts.PropertyPhone},
		{models.RoleEmployer, g.contacts.EmployerProfilePhone},
	}

	for _, s := range sources {
		if !roles.Has(s.role) {
			continue
		}
		phone, err := s.lookup(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		if phone != nil {
			return phone, nil
		}
	}

	return profile.Phone, nil
}
