package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/Ramsey-B/trellis/pkg/database"
)

// Role is a marketplace role a profile may hold. Profiles can hold several at
// once (e.g. an applicant who is also a certified peer specialist).
type Role string

const (
	RoleApplicant Role = "applicant"
	RolePeer      Role = "peer"
	RoleLandlord  Role = "landlord"
	RoleEmployer  Role = "employer"
)

// RoleSet is the set of roles held by a profile.
type RoleSet []Role

// Has reports whether the set contains the given role.
func (s RoleSet) Has(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// Profile is the read model for a marketplace participant. Profile CRUD is
// owned by the accounts service; this engine only reads roles and contact
// fields.
type Profile struct {
	ID          string         `json:"id" db:"id"`
	DisplayName string         `json:"display_name" db:"display_name"`
	Email       string         `json:"email" db:"email"`
	Phone       *string        `json:"phone,omitempty" db:"phone"`
	Roles       pq.StringArray `json:"roles" db:"roles"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
}

// RoleSet converts the stored roles column into a RoleSet.
func (p *Profile) RoleSet() RoleSet {
	roles := make(RoleSet, 0, len(p.Roles))
	for _, r := range p.Roles {
		roles = append(roles, Role(r))
	}
	return roles
}

// ApplicantForm is the applicant intake sub-record. The phone collected here
// takes priority over the bare profile phone when contact is disclosed.
type ApplicantForm struct {
	ProfileID string                         `json:"profile_id" db:"profile_id"`
	Phone     *string                        `json:"phone,omitempty" db:"phone"`
	Responses database.JSONB[map[string]any] `json:"responses" db:"responses"`
	CreatedAt time.Time                      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time                      `json:"updated_at" db:"updated_at"`
}

// PeerProfile is the peer-support specialist sub-record.
type PeerProfile struct {
	ProfileID string    `json:"profile_id" db:"profile_id"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Bio       *string   `json:"bio,omitempty" db:"bio"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EmployerProfile is the employer sub-record.
type EmployerProfile struct {
	ProfileID   string    `json:"profile_id" db:"profile_id"`
	Phone       *string   `json:"phone,omitempty" db:"phone"`
	CompanyName *string   `json:"company_name,omitempty" db:"company_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Property is a landlord-owned listing. Only the contact phone and ownership
// are read here; listing search lives elsewhere.
type Property struct {
	ID         string    `json:"id" db:"id"`
	LandlordID string    `json:"landlord_id" db:"landlord_id"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	Address    *string   `json:"address,omitempty" db:"address"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ContactInfo is what the disclosure gate returns about a match counterpart.
type ContactInfo struct {
	ProfileID   string  `json:"profile_id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone,omitempty"`
}
