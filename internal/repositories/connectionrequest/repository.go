package connectionrequest

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/trellis/pkg/database"
	trelliserr "github.com/Ramsey-B/trellis/pkg/errors"
	"github.com/Ramsey-B/trellis/pkg/models"
	"github.com/Ramsey-B/trellis/pkg/tracing"
)

var requestColumns = []string{
	"id", "requester_id", "target_id", "request_type", "status", "message",
	"compatibility_score", "target_approved", "match_group_id", "rejection_reason",
	"version", "created_at", "updated_at", "matched_at", "cancelled_at",
	"unmatched_at", "unmatched_by",
}

// Repository handles connection request persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new connection request repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Create persists a new request in pending status and assigns its id.
func (r *Repository) Create(ctx context.Context, request *models.ConnectionRequest) (*models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "connectionrequest.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	request.ID = uuid.New().String()
	request.Status = models.RequestStatusPending
	request.Version = 1
	request.CreatedAt = now
	request.UpdatedAt = now

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, trelliserr.StoreUnavailable("failed to start transaction")
	}
	defer tx.Rollback(ctx)

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("connection_requests")
	ib.Cols("id", "requester_id", "target_id", "request_type", "status", "message", "compatibility_score", "target_approved", "version", "created_at", "updated_at")
	ib.Values(request.ID, request.RequesterID, request.TargetID, request.RequestType, request.Status, request.Message, request.CompatibilityScore, false, request.Version, request.CreatedAt, request.UpdatedAt)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		// A concurrent submit can slip past FindOpen; the partial unique
		// index on open requests catches it here.
		if isUniqueViolation(err) {
			return nil, trelliserr.DuplicateRequest(string(request.RequestType))
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"requester_id": request.RequesterID, "target_id": request.TargetID}).Error("Failed to create connection request")
		return nil, trelliserr.StoreUnavailable("failed to create connection request")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, trelliserr.StoreUnavailable("failed to commit connection request")
	}

	return request, nil
}

// Get returns the request by id.
func (r *Repository) Get(ctx context.Context, id string) (*models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "connectionrequest.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns...)
	sb.From("connection_requests")
	sb.Where(sb.Equal("id", id))
	sb.Limit(1)

	query, args := sb.Build()
	var request models.ConnectionRequest
	if err := r.db.GetContext(ctx, &request, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, trelliserr.NotFound("connection request %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"request_id": id}).Error("Failed to get connection request")
		return nil, trelliserr.StoreUnavailable("failed to get connection request")
	}
	return &request, nil
}

// FindOpen returns the open (non-terminal) request for the triple, or nil.
// This backs the duplicate guard on submission.
func (r *Repository) FindOpen(ctx context.Context, requesterID, targetID string, requestType models.RequestType) (*models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "connectionrequest.Repository.FindOpen")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns...)
	sb.From("connection_requests")
	sb.Where(
		sb.Equal("requester_id", requesterID),
		sb.Equal("target_id", targetID),
		sb.Equal("request_type", requestType),
		sb.NotIn("status", models.RequestStatusRejected, models.RequestStatusCancelled, models.RequestStatusUnmatched),
	)
	sb.OrderBy("created_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var request models.ConnectionRequest
	if err := r.db.GetContext(ctx, &request, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"requester_id": requesterID, "target_id": targetID, "request_type": requestType}).Error("Failed to find open connection request")
		return nil, trelliserr.StoreUnavailable("failed to find open connection request")
	}
	return &request, nil
}

// ListForUser returns every request the user initiated or received, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "connectionrequest.Repository.ListForUser")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns...)
	sb.From("connection_requests")
	sb.Where(sb.Or(sb.Equal("requester_id", userID), sb.Equal("target_id", userID)))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	requests := []models.ConnectionRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"user_id": userID}).Error("Failed to list connection requests")
		return nil, trelliserr.StoreUnavailable("failed to list connection requests")
	}
	return requests, nil
}

// TransitionPatch is the set of fields a status transition may write. Only
// non-nil fields are applied; status is always written.
type TransitionPatch struct {
	Status          models.RequestStatus
	TargetApproved  *bool
	MatchGroupID    *string
	RejectionReason *string
	MatchedAt       *time.Time
	CancelledAt     *time.Time
	UnmatchedAt     *time.Time
	UnmatchedBy     *string
}

// ApplyTransition performs a compare-and-set update guarded by the version
// read by the caller. A concurrent mutation surfaces as VersionConflict and
// is never merged; the caller re-fetches and reattempts.
func (r *Repository) ApplyTransition(ctx context.Context, id string, expectedVersion int, patch TransitionPatch) (*models.ConnectionRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "connectionrequest.Repository.ApplyTransition")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, trelliserr.StoreUnavailable("failed to start transaction")
	}
	defer tx.Rollback(ctx)

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("connection_requests")
	assignments := []string{
		ub.Assign("status", patch.Status),
		ub.Incr("version"),
		ub.Assign("updated_at", time.Now().UTC()),
	}
	if patch.TargetApproved != nil {
		assignments = append(assignments, ub.Assign("target_approved", *patch.TargetApproved))
	}
	if patch.MatchGroupID != nil {
		assignments = append(assignments, ub.Assign("match_group_id", *patch.MatchGroupID))
	}
	if patch.RejectionReason != nil {
		assignments = append(assignments, ub.Assign("rejection_reason", *patch.RejectionReason))
	}
	if patch.MatchedAt != nil {
		assignments = append(assignments, ub.Assign("matched_at", *patch.MatchedAt))
	}
	if patch.CancelledAt != nil {
		assignments = append(assignments, ub.Assign("cancelled_at", *patch.CancelledAt))
	}
	if patch.UnmatchedAt != nil {
		assignments = append(assignments, ub.Assign("unmatched_at", *patch.UnmatchedAt))
	}
	if patch.UnmatchedBy != nil {
		assignments = append(assignments, ub.Assign("unmatched_by", *patch.UnmatchedBy))
	}
	ub.Set(assignments...)
	ub.Where(ub.Equal("id", id), ub.Equal("version", expectedVersion))
	ub.SQL("RETURNING " + strings.Join(requestColumns, ", "))

	query, args := ub.Build()
	var updated models.ConnectionRequest
	if err := tx.QueryRowxContext(ctx, query, args...).StructScan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Zero rows means either the request is gone or someone raced us.
			if _, getErr := r.Get(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, trelliserr.VersionConflict("connection request", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"request_id": id, "status": patch.Status}).Error("Failed to apply connection request transition")
		return nil, trelliserr.StoreUnavailable("failed to apply connection request transition")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, trelliserr.StoreUnavailable("failed to commit connection request transition")
	}

	return &updated, nil
}
