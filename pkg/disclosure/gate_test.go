package disclosure

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	trelliserr "github.com/Ramsey-B/trellis/pkg/errors"
	"github.com/Ramsey-B/trellis/pkg/models"
)

const (
	groupID    = "7d3e9f2a-5b1c-4d6e-8f0a-aaaaaaaaaaaa"
	applicant1 = "6f1f8f1a-0f33-4a7e-9a6a-111111111111"
	applicant2 = "2c9d4e6b-8a21-4d5c-b3f0-222222222222"
	outsider   = "4e2b6d8f-3a5c-4e7d-8b1a-444444444444"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type fakeGroupSource struct {
	groups map[string]*models.MatchGroup
}

func (s *fakeGroupSource) Get(ctx context.Context, id string) (*models.MatchGroup, error) {
	group, ok := s.groups[id]
	if !ok {
		return nil, trelliserr.NotFound("match group %s", id)
	}
	result := *group
	return &result, nil
}

type fakeContactSource struct {
	profiles       map[string]*models.Profile
	applicantPhone map[string]*string
	peerPhone      map[string]*string
	propertyPhone  map[string]*string
	employerPhone  map[string]*string
}

func (s *fakeContactSource) Get(ctx context.Context, id string) (*models.Profile, error) {
	profile, ok := s.profiles[id]
	if !ok {
		return nil, trelliserr.NotFound("profile %s", id)
	}
	result := *profile
	return &result, nil
}

func (s *fakeContactSource) ApplicantFormPhone(ctx context.Context, profileID string) (*string, error) {
	return s.applicantPhone[profileID], nil
}

func (s *fakeContactSource) PeerProfilePhone(ctx context.Context, profileID string) (*string, error) {
	return s.peerPhone[profileID], nil
}

func (s *fakeContactSource) PropertyPhone(ctx context.Context, landlordID string) (*string, error) {
	return s.propertyPhone[landlordID], nil
}

func (s *fakeContactSource) EmployerProfilePhone(ctx context.Context, profileID string) (*string, error) {
	return s.employerPhone[profileID], nil
}

func strPtr(s string) *string { return &s }

func newGateFixture(status models.GroupStatus) (*Gate, *fakeContactSource) {
	groups := &fakeGroupSource{groups: map[string]*models.MatchGroup{
		groupID: {
			ID:           groupID,
			Status:       status,
			Applicant1ID: strPtr(applicant1),
			Applicant2ID: strPtr(applicant2),
		},
	}}
	contacts := &fakeContactSource{
		profiles: map[string]*models.Profile{
			applicant1: {
				ID:          applicant1,
				DisplayName: "Alice",
				Email:       "alice@example.com",
				Phone:       strPtr("555-0100"),
				Roles:       pq.StringArray{"applicant"},
			},
			applicant2: {
				ID:          applicant2,
				DisplayName: "Bob",
				Email:       "bob@example.com",
				Roles:       pq.StringArray{"applicant"},
			},
		},
		applicantPhone: map[string]*string{},
		peerPhone:      map[string]*string{},
		propertyPhone:  map[string]*string{},
		employerPhone:  map[string]*string{},
	}
	return NewGate(groups, contacts, getTestLogger()), contacts
}

func TestReveal_FormingGroup(t *testing.T) {
	gate, _ := newGateFixture(models.GroupStatusForming)

	info, err := gate.Reveal(context.Background(), groupID, applicant2)

	require.NoError(t, err)
	assert.Equal(t, applicant1, info.ProfileID)
	assert.Equal(t, "Alice", info.DisplayName)
	assert.Equal(t, "alice@example.com", info.Email)
	require.NotNil(t, info.Phone)
	assert.Equal(t, "555-0100", *info.Phone)
}

func TestReveal_ActiveGroup(t *testing.T) {
	gate, _ := newGateFixture(models.GroupStatusActive)

	info, err := gate.Reveal(context.Background(), groupID, applicant1)

	require.NoError(t, err)
	assert.Equal(t, applicant2, info.ProfileID)
}

func TestReveal_ApplicantFormPhoneWins(t *testing.T) {
	gate, contacts := newGateFixture(models.GroupStatusActive)
	contacts.applicantPhone[applicant1] = strPtr("555-0199")

	info, err := gate.Reveal(context.Background(), groupID, applicant2)

	require.NoError(t, err)
	require.NotNil(t, info.Phone)
	assert.Equal(t, "555-0199", *info.Phone)
}

func TestReveal_PeerPhoneForMultiRoleProfile(t *testing.T) {
	// Alice also holds the peer role with a dedicated line. Her applicant
	// form has no phone, so the peer profile is next in the chain.
	gate, contacts := newGateFixture(models.GroupStatusActive)
	contacts.profiles[applicant1].Roles = pq.StringArray{"applicant", "peer"}
	contacts.peerPhone[applicant1] = strPtr("555-0150")

	info, err := gate.Reveal(context.Background(), groupID, applicant2)

	require.NoError(t, err)
	require.NotNil(t, info.Phone)
	assert.Equal(t, "555-0150", *info.Phone)
}

func TestReveal_NoPhoneAnywhere(t *testing.T) {
	gate, _ := newGateFixture(models.GroupStatusActive)

	info, err := gate.Reveal(context.Background(), groupID, applicant1)

	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", info.Email)
	assert.Nil(t, info.Phone)
}

func TestReveal_DeniedForNonMember(t *testing.T) {
	gate, _ := newGateFixture(models.GroupStatusActive)

	_, err := gate.Reveal(context.Background(), groupID, outsider)

	require.Error(t, err)
	assert.True(t, trelliserr.IsDisclosureDenied(err))
}

func TestReveal_DeniedForEndedGroup(t *testing.T) {
	gate, _ := newGateFixture(models.GroupStatusEnded)

	_, err := gate.Reveal(context.Background(), groupID, applicant1)

	require.Error(t, err)
	assert.True(t, trelliserr.IsDisclosureDenied(err))
}

func TestReveal_DeniedForUnknownGroup(t *testing.T) {
	gate, _ := newGateFixture(models.GroupStatusActive)

	_, err := gate.Reveal(context.Background(), "0b1c2d3e-4f5a-4b6c-8d7e-999999999999", applicant1)

	require.Error(t, err)
	assert.True(t, trelliserr.IsDisclosureDenied(err))
}
