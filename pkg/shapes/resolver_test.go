package shapes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/trellis/pkg/models"
)

const (
	alice = "4a1c9d2e-0000-4000-8000-000000000001"
	bob   = "4a1c9d2e-0000-4000-8000-000000000002"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name           string
		requestType    models.RequestType
		requesterRoles models.RoleSet
		targetRoles    models.RoleSet
		wantKind       Kind
		wantShape      GroupShape
	}{
		{
			name:           "applicant to peer",
			requestType:    models.RequestTypePeerSupport,
			requesterRoles: models.RoleSet{models.RoleApplicant},
			targetRoles:    models.RoleSet{models.RolePeer},
			wantKind:       KindPeerSupport,
			wantShape:      GroupShape{Applicant1ID: alice, PeerSupportID: strPtr(bob)},
		},
		{
			name:           "peer to applicant mirrors the slots",
			requestType:    models.RequestTypePeerSupport,
			requesterRoles: models.RoleSet{models.RolePeer},
			targetRoles:    models.RoleSet{models.RoleApplicant},
			wantKind:       KindPeerSupport,
			wantShape:      GroupShape{Applicant1ID: bob, PeerSupportID: strPtr(alice)},
		},
		{
			name:           "unset type still resolves applicant to peer",
			requestType:    "",
			requesterRoles: models.RoleSet{models.RoleApplicant},
			targetRoles:    models.RoleSet{models.RolePeer},
			wantKind:       KindPeerSupport,
			wantShape:      GroupShape{Applicant1ID: alice, PeerSupportID: strPtr(bob)},
		},
		{
			name:           "both applicants",
			requestType:    models.RequestTypeRoommate,
			requesterRoles: models.RoleSet{models.RoleApplicant},
			targetRoles:    models.RoleSet{models.RoleApplicant},
			wantKind:       KindRoommate,
			wantShape:      GroupShape{Applicant1ID: alice, Applicant2ID: strPtr(bob)},
		},
		{
			name:           "employment",
			requestType:    models.RequestTypeEmployment,
			requesterRoles: models.RoleSet{models.RoleApplicant},
			targetRoles:    models.RoleSet{models.RoleEmployer},
			wantKind:       KindEmployment,
			wantShape:      GroupShape{Applicant1ID: alice, EmployerID: strPtr(bob)},
		},
		{
			name:           "housing",
			requestType:    models.RequestTypeHousing,
			requesterRoles: models.RoleSet{models.RoleApplicant},
			targetRoles:    models.RoleSet{models.RoleLandlord},
			wantKind:       KindHousing,
			wantShape:      GroupShape{Applicant1ID: alice, LandlordID: strPtr(bob)},
		},
		{
			name:           "multi-role requester is disambiguated by request type",
			requestType:    models.RequestTypeHousing,
			requesterRoles: models.RoleSet{models.RoleApplicant, models.RolePeer},
			targetRoles:    models.RoleSet{models.RoleLandlord},
			wantKind:       KindHousing,
			wantShape:      GroupShape{Applicant1ID: alice, LandlordID: strPtr(bob)},
		},
		{
			name:           "peer rule wins over roommate rule for dual-role parties",
			requestType:    models.RequestTypePeerSupport,
			requesterRoles: models.RoleSet{models.RoleApplicant, models.RolePeer},
			targetRoles:    models.RoleSet{models.RoleApplicant, models.RolePeer},
			wantKind:       KindPeerSupport,
			wantShape:      GroupShape{Applicant1ID: alice, PeerSupportID: strPtr(bob)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, ok := Resolve(tt.requestType, alice, bob, tt.requesterRoles, tt.targetRoles)
			require.True(t, ok)
			require.NotNil(t, shape)

			assert.Equal(t, tt.wantKind, shape.Kind)
			tt.wantShape.Kind = tt.wantKind
			assert.Equal(t, tt.wantShape, *shape)
		})
	}
}

func TestResolve_NoShape(t *testing.T) {
	tests := []struct {
		name           string
		requestType    models.RequestType
		requesterRoles models.RoleSet
		targetRoles    models.RoleSet
	}{
		{
			name:           "landlord to employer resolves nothing",
			requestType:    models.RequestTypeHousing,
			requesterRoles: models.RoleSet{models.RoleLandlord},
			targetRoles:    models.RoleSet{models.RoleEmployer},
		},
		{
			name:           "employment request toward a non-employer",
			requestType:    models.RequestTypeEmployment,
			requesterRoles: models.RoleSet{models.RoleApplicant},
			targetRoles:    models.RoleSet{models.RoleLandlord},
		},
		{
			name:           "housing request initiated by the landlord",
			requestType:    models.RequestTypeHousing,
			requesterRoles: models.RoleSet{models.RoleLandlord},
			targetRoles:    models.RoleSet{models.RoleApplicant},
		},
		{
			name:           "empty role sets",
			requestType:    models.RequestTypeRoommate,
			requesterRoles: models.RoleSet{},
			targetRoles:    models.RoleSet{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, ok := Resolve(tt.requestType, alice, bob, tt.requesterRoles, tt.targetRoles)
			assert.False(t, ok)
			assert.Nil(t, shape)
		})
	}
}

func strPtr(s string) *string {
	return &s
}
