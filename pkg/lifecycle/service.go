package lifecycle

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/trellis/internal/repositories/connectionrequest"
	"github.com/Ramsey-B/trellis/pkg/database"
	trelliserr "github.com/Ramsey-B/trellis/pkg/errors"
	"github.com/Ramsey-B/trellis/pkg/models"
	"github.com/Ramsey-B/trellis/pkg/shapes"
	"github.com/Ramsey-B/trellis/pkg/tracing"
	"github.com/Ramsey-B/trellis/pkg/utils"
)

// RequestStore persists connection requests. All status changes go through
// ApplyTransition, which enforces the version guard.
type RequestStore interface {
	Create(ctx context.Context, request *models.ConnectionRequest) (*models.ConnectionRequest, error)
	Get(ctx context.Context, id string) (*models.ConnectionRequest, error)
	FindOpen(ctx context.Context, requesterID, targetID string, requestType models.RequestType) (*models.ConnectionRequest, error)
	ListForUser(ctx context.Context, userID string) ([]models.ConnectionRequest, error)
	ApplyTransition(ctx context.Context, id string, expectedVersion int, patch connectionrequest.TransitionPatch) (*models.ConnectionRequest, error)
}

// GroupStore persists match groups.
type GroupStore interface {
	Create(ctx context.Context, group *models.MatchGroup) (*models.MatchGroup, error)
	Get(ctx context.Context, id string) (*models.MatchGroup, error)
	Activate(ctx context.Context, id string) (*models.MatchGroup, error)
	End(ctx context.Context, id string, endedBy string, reason string) (*models.MatchGroup, error)
}

// RoleResolver answers which roles a profile currently holds.
type RoleResolver interface {
	RolesOf(ctx context.Context, profileID string) (models.RoleSet, error)
}

// EventSink receives lifecycle data-change events. Emission is best effort;
// a sink failure never fails the transition that produced it.
type EventSink interface {
	EmitRequestSubmitted(ctx context.Context, request *models.ConnectionRequest) error
	EmitRequestMatched(ctx context.Context, request *models.ConnectionRequest) error
	EmitRequestRejected(ctx context.Context, request *models.ConnectionRequest) error
	EmitRequestCancelled(ctx context.Context, request *models.ConnectionRequest) error
	EmitRequestUnmatched(ctx context.Context, request *models.ConnectionRequest, initiatorID string) error
	EmitGroupCreated(ctx context.Context, group *models.MatchGroup) error
	EmitGroupActivated(ctx context.Context, group *models.MatchGroup) error
	EmitGroupEnded(ctx context.Context, group *models.MatchGroup) error
}

// Service owns the connection request state machine. Every transition is
// validated against the current status and the caller's relationship to the
// request before any write happens.
type Service struct {
	db       database.DB
	requests RequestStore
	groups   GroupStore
	roles    RoleResolver
	events   EventSink
	logger   ectologger.Logger
}

// NewService creates a lifecycle service. events may be nil when event
// emission is disabled.
func NewService(db database.DB, requests RequestStore, groups GroupStore, roles RoleResolver, events EventSink, logger ectologger.Logger) *Service {
	return &Service{
		db:       db,
		requests: requests,
		groups:   groups,
		roles:    roles,
		events:   events,
		logger:   logger,
	}
}

// Submit creates a new pending connection request. At most one open request
// may exist per (requester, target, type) triple.
func (s *Service) Submit(ctx context.Context, input models.SubmitConnectionRequest) (*models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.Submit")
	defer span.End()

	input, err := utils.Validate(input)
	if err != nil {
		return nil, httperror.WrapError(http.StatusBadRequest, err)
	}

	if input.RequesterID == input.TargetID {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "requester and target must be different profiles")
	}

	existing, err := s.requests.FindOpen(ctx, input.RequesterID, input.TargetID, input.RequestType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"requester_id": input.RequesterID,
			"target_id":    input.TargetID,
			"request_type": input.RequestType,
			"existing_id":  existing.ID,
		}).Info("Rejected duplicate connection request")
		return nil, trelliserr.DuplicateRequest(string(input.RequestType))
	}

	request := &models.ConnectionRequest{
		RequesterID:        input.RequesterID,
		TargetID:           input.TargetID,
		RequestType:        input.RequestType,
		Message:            input.Message,
		CompatibilityScore: input.CompatibilityScore,
	}
	created, err := s.requests.Create(ctx, request)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, "request submitted", func() error {
		return s.events.EmitRequestSubmitted(ctx, created)
	})
	return created, nil
}

// Approve transitions a pending request to matched and creates the match
// group it implies. Only the target may approve. The group insert and the
// request transition share one transaction; if the role pairing resolves to
// no shape, nothing is written and the request stays pending.
func (s *Service) Approve(ctx context.Context, requestID string, approverID string) (*models.ConnectionRequest, *models.MatchGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.Approve")
	defer span.End()

	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if request.Status != models.RequestStatusPending {
		return nil, nil, trelliserr.InvalidTransition("approve", string(request.Status))
	}
	if approverID != request.TargetID {
		return nil, nil, trelliserr.Unauthorized("only the target of a request may approve it")
	}

	requesterRoles, err := s.roles.RolesOf(ctx, request.RequesterID)
	if err != nil {
		return nil, nil, err
	}
	targetRoles, err := s.roles.RolesOf(ctx, request.TargetID)
	if err != nil {
		return nil, nil, err
	}

	shape, ok := shapes.Resolve(request.RequestType, request.RequesterID, request.TargetID, requesterRoles, targetRoles)
	if !ok {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"request_id":      requestID,
			"request_type":    request.RequestType,
			"requester_roles": requesterRoles,
			"target_roles":    targetRoles,
		}).Warn("No group shape for role pairing, request left pending")
		return nil, nil, trelliserr.UnsupportedRolePairing(string(request.RequestType))
	}

	ctx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return nil, nil, trelliserr.StoreUnavailable("failed to start transaction")
	}
	defer tx.Rollback(ctx)

	group, err := s.groups.Create(ctx, &models.MatchGroup{
		Applicant1ID:  &shape.Applicant1ID,
		Applicant2ID:  shape.Applicant2ID,
		PeerSupportID: shape.PeerSupportID,
		EmployerID:    shape.EmployerID,
		LandlordID:    shape.LandlordID,
	})
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	approved := true
	updated, err := s.requests.ApplyTransition(ctx, request.ID, request.Version, connectionrequest.TransitionPatch{
		Status:         models.RequestStatusMatched,
		TargetApproved: &approved,
		MatchGroupID:   &group.ID,
		MatchedAt:      &now,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"request_id": requestID}).Error("Failed to commit approval")
		return nil, nil, trelliserr.StoreUnavailable("failed to commit approval")
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"request_id":     requestID,
		"match_group_id": group.ID,
		"shape":          shape.Kind,
	}).Info("Connection request matched")

	s.emit(ctx, "request matched", func() error {
		return s.events.EmitRequestMatched(ctx, updated)
	})
	s.emit(ctx, "group created", func() error {
		return s.events.EmitGroupCreated(ctx, group)
	})
	return updated, group, nil
}

// Reject transitions a pending request to rejected. Only the target may
// reject, and a reason is required. Rejected is terminal.
func (s *Service) Reject(ctx context.Context, requestID string, rejecterID string, reason string) (*models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.Reject")
	defer span.End()

	if _, err := utils.Validate(models.RejectConnectionRequest{Reason: reason}); err != nil {
		return nil, httperror.WrapError(http.StatusBadRequest, err)
	}

	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestStatusPending {
		return nil, trelliserr.InvalidTransition("reject", string(request.Status))
	}
	if rejecterID != request.TargetID {
		return nil, trelliserr.Unauthorized("only the target of a request may reject it")
	}

	updated, err := s.requests.ApplyTransition(ctx, request.ID, request.Version, connectionrequest.TransitionPatch{
		Status:          models.RequestStatusRejected,
		RejectionReason: &reason,
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, "request rejected", func() error {
		return s.events.EmitRequestRejected(ctx, updated)
	})
	return updated, nil
}

// Cancel transitions a pending request to cancelled. Only the requester may
// cancel. Cancelled is terminal.
func (s *Service) Cancel(ctx context.Context, requestID string, cancellerID string) (*models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.Cancel")
	defer span.End()

	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestStatusPending {
		return nil, trelliserr.InvalidTransition("cancel", string(request.Status))
	}
	if cancellerID != request.RequesterID {
		return nil, trelliserr.Unauthorized("only the requester may cancel a request")
	}

	now := time.Now().UTC()
	updated, err := s.requests.ApplyTransition(ctx, request.ID, request.Version, connectionrequest.TransitionPatch{
		Status:      models.RequestStatusCancelled,
		CancelledAt: &now,
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, "request cancelled", func() error {
		return s.events.EmitRequestCancelled(ctx, updated)
	})
	return updated, nil
}

// Unmatch dissolves a matched request and ends its group. Either participant
// may initiate. The call is idempotent: unmatching an already-unmatched
// request succeeds without touching the group's original end record.
func (s *Service) Unmatch(ctx context.Context, requestID string, initiatorID string, reason string) (*models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.Unmatch")
	defer span.End()

	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if initiatorID != request.RequesterID && initiatorID != request.TargetID {
		return nil, trelliserr.Unauthorized("only a participant may unmatch a request")
	}
	if request.Status == models.RequestStatusUnmatched {
		return request, nil
	}
	if request.Status != models.RequestStatusMatched {
		return nil, trelliserr.InvalidTransition("unmatch", string(request.Status))
	}
	if request.MatchGroupID == nil {
		return nil, trelliserr.NotFound("match group for request %s", requestID)
	}
	if reason == "" {
		reason = "ended by participant"
	}

	ctx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return nil, trelliserr.StoreUnavailable("failed to start transaction")
	}
	defer tx.Rollback(ctx)

	group, err := s.groups.End(ctx, *request.MatchGroupID, initiatorID, reason)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, err := s.requests.ApplyTransition(ctx, request.ID, request.Version, connectionrequest.TransitionPatch{
		Status:      models.RequestStatusUnmatched,
		UnmatchedAt: &now,
		UnmatchedBy: &initiatorID,
	})
	if trelliserr.IsVersionConflict(err) {
		// A concurrent unmatch won the race. Surface its result as success.
		tx.Rollback(ctx)
		current, getErr := s.requests.Get(ctx, requestID)
		if getErr == nil && current.Status == models.RequestStatusUnmatched {
			return current, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"request_id": requestID}).Error("Failed to commit unmatch")
		return nil, trelliserr.StoreUnavailable("failed to commit unmatch")
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"request_id":     requestID,
		"match_group_id": group.ID,
		"initiator_id":   initiatorID,
	}).Info("Connection request unmatched")

	s.emit(ctx, "request unmatched", func() error {
		return s.events.EmitRequestUnmatched(ctx, updated, initiatorID)
	})
	s.emit(ctx, "group ended", func() error {
		return s.events.EmitGroupEnded(ctx, group)
	})
	return updated, nil
}

// ActivateGroup transitions a forming group to active. Only a member may
// activate.
func (s *Service) ActivateGroup(ctx context.Context, groupID string, actorID string) (*models.MatchGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.ActivateGroup")
	defer span.End()

	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(actorID) {
		return nil, trelliserr.Unauthorized("only a group member may activate a group")
	}

	activated, err := s.groups.Activate(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, "group activated", func() error {
		return s.events.EmitGroupActivated(ctx, activated)
	})
	return activated, nil
}

// GetRequest fetches a request visible to the viewer. Only participants may
// read a request.
func (s *Service) GetRequest(ctx context.Context, requestID string, viewerID string) (*models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.GetRequest")
	defer span.End()

	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if viewerID != request.RequesterID && viewerID != request.TargetID {
		return nil, trelliserr.Unauthorized("only a participant may view a request")
	}
	return request, nil
}

// ListForUser returns every request the user participates in, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.ListForUser")
	defer span.End()

	return s.requests.ListForUser(ctx, userID)
}

func (s *Service) emit(ctx context.Context, name string, fn func() error) {
	if s.events == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit " + name + " event")
	}
}
