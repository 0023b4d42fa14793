package models

import "time"

// RequestType identifies which relationship a connection request is asking for.
type RequestType string

const (
	RequestTypeRoommate    RequestType = "roommate"
	RequestTypePeerSupport RequestType = "peer_support"
	RequestTypeEmployment  RequestType = "employment"
	RequestTypeHousing     RequestType = "housing"
)

// Valid reports whether the type is one of the known request types.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeRoommate, RequestTypePeerSupport, RequestTypeEmployment, RequestTypeHousing:
		return true
	}
	return false
}

// RequestStatus is the lifecycle state of a connection request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusMatched   RequestStatus = "matched"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
	RequestStatusUnmatched RequestStatus = "unmatched"
)

// Terminal reports whether no further transitions are allowed from the status.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestStatusRejected, RequestStatusCancelled, RequestStatusUnmatched:
		return true
	}
	return false
}

// Open reports whether the request still counts against the duplicate guard
// for its (requester, target, type) triple.
func (s RequestStatus) Open() bool {
	return !s.Terminal()
}

// ConnectionRequest is a directional record of one party's interest in
// another. The requester initiated it; only the target can approve or reject.
// Version is bumped on every mutation and guards compare-and-set updates.
type ConnectionRequest struct {
	ID                 string        `json:"id" db:"id"`
	RequesterID        string        `json:"requester_id" db:"requester_id"`
	TargetID           string        `json:"target_id" db:"target_id"`
	RequestType        RequestType   `json:"request_type" db:"request_type"`
	Status             RequestStatus `json:"status" db:"status"`
	Message            string        `json:"message" db:"message"`
	CompatibilityScore *float64      `json:"compatibility_score,omitempty" db:"compatibility_score"`
	TargetApproved     bool          `json:"target_approved" db:"target_approved"`
	MatchGroupID       *string       `json:"match_group_id,omitempty" db:"match_group_id"`
	RejectionReason    *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	Version            int           `json:"version" db:"version"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
	MatchedAt          *time.Time    `json:"matched_at,omitempty" db:"matched_at"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	UnmatchedAt        *time.Time    `json:"unmatched_at,omitempty" db:"unmatched_at"`
	UnmatchedBy        *string       `json:"unmatched_by,omitempty" db:"unmatched_by"`
}

// SubmitConnectionRequest is the write model for creating a request.
// CompatibilityScore is produced upstream and merely carried.
type SubmitConnectionRequest struct {
	RequesterID        string      `json:"requester_id" validate:"required,uuid4"`
	TargetID           string      `json:"target_id" validate:"required,uuid4"`
	RequestType        RequestType `json:"request_type" validate:"required,oneof=roommate peer_support employment housing"`
	Message            string      `json:"message" validate:"max=2000"`
	CompatibilityScore *float64    `json:"compatibility_score,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// RejectConnectionRequest is the write model for rejecting a request.
type RejectConnectionRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// ConnectionRequestListResponse is the response for listing a user's requests.
type ConnectionRequestListResponse struct {
	Items      []ConnectionRequest `json:"items"`
	TotalCount int                 `json:"total_count"`
}
