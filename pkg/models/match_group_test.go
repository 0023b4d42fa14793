package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestMatchGroupMembers(t *testing.T) {
	group := &MatchGroup{
		Applicant1ID: strPtr("alice"),
		LandlordID:   strPtr("lana"),
		PropertyID:   strPtr("prop-1"),
	}

	// The property is an attachment, not a member.
	assert.Equal(t, []string{"alice", "lana"}, group.Members())
	assert.True(t, group.HasMember("alice"))
	assert.True(t, group.HasMember("lana"))
	assert.False(t, group.HasMember("prop-1"))
}

func TestMatchGroupCounterpart(t *testing.T) {
	group := &MatchGroup{
		Applicant1ID:  strPtr("alice"),
		PeerSupportID: strPtr("paula"),
	}

	counterpart, ok := group.Counterpart("alice")
	assert.True(t, ok)
	assert.Equal(t, "paula", counterpart)

	counterpart, ok = group.Counterpart("paula")
	assert.True(t, ok)
	assert.Equal(t, "alice", counterpart)

	_, ok = group.Counterpart("stranger")
	assert.False(t, ok)
}

func TestRequestStatusTerminal(t *testing.T) {
	assert.False(t, RequestStatusPending.Terminal())
	assert.False(t, RequestStatusMatched.Terminal())
	assert.True(t, RequestStatusRejected.Terminal())
	assert.True(t, RequestStatusCancelled.Terminal())
	assert.True(t, RequestStatusUnmatched.Terminal())

	assert.True(t, RequestStatusPending.Open())
	assert.False(t, RequestStatusUnmatched.Open())
}
