// Package shapes resolves the (request type, role pairing) of a connection
// request into the match-group slots to populate. Resolution is an ordered
// rule table; the order disambiguates users holding multiple roles.
package shapes

import (
	"github.com/Ramsey-B/trellis/pkg/models"
)

// Kind names the relationship shape a resolution produced.
type Kind string

const (
	KindPeerSupport Kind = "peer_support"
	KindRoommate    Kind = "roommate"
	KindEmployment  Kind = "employment"
	KindHousing     Kind = "housing"
)

// GroupShape is the set of match-group slots to populate and with which
// party. Applicant1ID is always set; exactly one other slot is set.
type GroupShape struct {
	Kind          Kind
	Applicant1ID  string
	Applicant2ID  *string
	PeerSupportID *string
	EmployerID    *string
	LandlordID    *string
}

// Resolve maps (request type, requester roles, target roles) to a group
// shape. First rule wins. The second return is false when no rule matches;
// callers must surface that rather than fall back to a default shape.
func Resolve(requestType models.RequestType, requesterID, targetID string, requesterRoles, targetRoles models.RoleSet) (*GroupShape, bool) {
	peerEligible := requestType == models.RequestTypePeerSupport || requestType == ""

	switch {
	case peerEligible && requesterRoles.Has(models.RoleApplicant) && targetRoles.Has(models.RolePeer):
		return &GroupShape{
			Kind:          KindPeerSupport,
			Applicant1ID:  requesterID,
			PeerSupportID: &targetID,
		}, true

	case peerEligible && requesterRoles.Has(models.RolePeer) && targetRoles.Has(models.RoleApplicant):
		return &GroupShape{
			Kind:          KindPeerSupport,
			Applicant1ID:  targetID,
			PeerSupportID: &requesterID,
		}, true

	case requesterRoles.Has(models.RoleApplicant) && targetRoles.Has(models.RoleApplicant):
		return &GroupShape{
			Kind:         KindRoommate,
			Applicant1ID: requesterID,
			Applicant2ID: &targetID,
		}, true

	case requestType == models.RequestTypeEmployment && requesterRoles.Has(models.RoleApplicant) && targetRoles.Has(models.RoleEmployer):
		return &GroupShape{
			Kind:         KindEmployment,
			Applicant1ID: requesterID,
			EmployerID:   &targetID,
		}, true

	case requestType == models.RequestTypeHousing && requesterRoles.Has(models.RoleApplicant) && targetRoles.Has(models.RoleLandlord):
		// Property slot stays empty; the landlord assigns it after matching.
		return &GroupShape{
			Kind:         KindHousing,
			Applicant1ID: requesterID,
			LandlordID:   &targetID,
		}, true
	}

	return nil, false
}
