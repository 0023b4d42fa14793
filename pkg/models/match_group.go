package models

import "time"

// GroupStatus is the lifecycle state of a match group. Groups are never
// deleted; ending one preserves the audit trail.
type GroupStatus string

const (
	GroupStatusForming GroupStatus = "forming"
	GroupStatusActive  GroupStatus = "active"
	GroupStatusEnded   GroupStatus = "ended"
)

// MatchGroup is the realized relationship created when a connection request is
// approved. Exactly the slots implied by the originating request's role
// pairing are populated; a group is never reshaped after creation.
type MatchGroup struct {
	ID            string      `json:"id" db:"id"`
	Status        GroupStatus `json:"status" db:"status"`
	Applicant1ID  *string     `json:"applicant_1_id,omitempty" db:"applicant_1_id"`
	Applicant2ID  *string     `json:"applicant_2_id,omitempty" db:"applicant_2_id"`
	PeerSupportID *string     `json:"peer_support_id,omitempty" db:"peer_support_id"`
	EmployerID    *string     `json:"employer_id,omitempty" db:"employer_id"`
	LandlordID    *string     `json:"landlord_id,omitempty" db:"landlord_id"`
	PropertyID    *string     `json:"property_id,omitempty" db:"property_id"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
	EndedAt       *time.Time  `json:"ended_at,omitempty" db:"ended_at"`
	EndedBy       *string     `json:"ended_by,omitempty" db:"ended_by"`
	EndReason     *string     `json:"end_reason,omitempty" db:"end_reason"`
}

// Members returns the profile ids occupying populated slots, in slot order.
func (g *MatchGroup) Members() []string {
	members := make([]string, 0, 2)
	for _, id := range []*string{g.Applicant1ID, g.Applicant2ID, g.PeerSupportID, g.EmployerID, g.LandlordID} {
		if id != nil {
			members = append(members, *id)
		}
	}
	return members
}

// HasMember reports whether the profile occupies one of the group's slots.
func (g *MatchGroup) HasMember(profileID string) bool {
	for _, id := range g.Members() {
		if id == profileID {
			return true
		}
	}
	return false
}

// Counterpart returns the other occupant of a two-party group. The second
// return is false when the viewer is not a member.
func (g *MatchGroup) Counterpart(viewerID string) (string, bool) {
	members := g.Members()
	if !g.HasMember(viewerID) {
		return "", false
	}
	for _, id := range members {
		if id != viewerID {
			return id, true
		}
	}
	return "", false
}

// MatchGroupListResponse is the response for listing a user's groups.
type MatchGroupListResponse struct {
	Items      []MatchGroup `json:"items"`
	TotalCount int          `json:"total_count"`
}

// AssignPropertyRequest is the write model for the landlord attaching a
// property to a housing-shape group.
type AssignPropertyRequest struct {
	PropertyID string `json:"property_id" validate:"required,uuid4"`
}
