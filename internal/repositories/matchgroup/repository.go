package matchgroup

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/trellis/pkg/database"
	trelliserr "github.com/Ramsey-B/trellis/pkg/errors"
	"github.com/Ramsey-B/trellis/pkg/models"
	"github.com/Ramsey-B/trellis/pkg/tracing"
)

var groupColumns = []string{
	"id", "status", "applicant_1_id", "applicant_2_id", "peer_support_id",
	"employer_id", "landlord_id", "property_id", "created_at", "updated_at",
	"ended_at", "ended_by", "end_reason",
}

// Repository handles match group persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match group repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Create persists a new group and assigns its id. The slot columns are
// written exactly as given and never reshaped afterwards.
func (r *Repository) Create(ctx context.Context, group *models.MatchGroup) (*models.MatchGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "matchgroup.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	group.ID = uuid.New().String()
	if group.Status == "" {
		group.Status = models.GroupStatusForming
	}
	group.CreatedAt = now
	group.UpdatedAt = now

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, trelliserr.StoreUnavailable("failed to start transaction")
	}
	defer tx.Rollback(ctx)

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("match_groups")
	ib.Cols("id", "status", "applicant_1_id", "applicant_2_id", "peer_support_id", "employer_id", "landlord_id", "property_id", "created_at", "updated_at")
	ib.Values(group.ID, group.Status, group.Applicant1ID, group.Applicant2ID, group.PeerSupportID, group.EmployerID, group.LandlordID, group.PropertyID, group.CreatedAt, group.UpdatedAt)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"group_id": group.ID}).Error("Failed to create match group")
		return nil, trelliserr.StoreUnavailable("failed to create match group")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, trelliserr.StoreUnavailable("failed to commit match group")
	}

	return group, nil
}

// Get returns the group by id.
func (r *Repository) Get(ctx context.Context, id string) (*models.MatchGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "matchgroup.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(groupColumns...)
	sb.From("match_groups")
	sb.Where(sb.Equal("id", id))
	sb.Limit(1)

	query, args := sb.Build()
	var group models.MatchGroup
	if err := r.db.GetContext(ctx, &group, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, trelliserr.NotFound("match group %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"group_id": id}).Error("Failed to get match group")
		return nil, trelliserr.StoreUnavailable("failed to get match group")
	}
	return &group, nil
}

// ListForUser returns every group in which the user occupies a slot, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]models.MatchGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "matchgroup.Repository.ListForUser")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(groupColumns...)
	sb.From("match_groups")
	sb.Where(sb.Or(
		sb.Equal("applicant_1_id", userID),
		sb.Equal("applicant_2_id", userID),
		sb.Equal("peer_support_id", userID),
		sb.Equal("employer_id", userID),
		sb.Equal("landlord_id", userID),
	))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	groups := []models.MatchGroup{}
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"user_id": userID}).Error("Failed to list match groups")
		return nil, trelliserr.StoreUnavailable("failed to list match groups")
	}
	return groups, nil
}

// Activate moves a forming group to active. Activating an already-active
// group is a no-op so both parties can confirm independently.
func (r *Repository) Activate(ctx context.Context, id string) (*models.MatchGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "matchgroup.Repository.Activate")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, trelliserr.StoreUnavailable("failed to start transaction")
	}
	defer tx.Rollback(ctx)

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("match_groups")
	ub.Set(
		ub.Assign("status", models.GroupStatusActive),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id), ub.Equal("status", models.GroupStatusForming))

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"group_id": id}).Error("Failed to activate match group")
		return nil, trelliserr.StoreUnavailable("failed to activate match group")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, trelliserr.StoreUnavailable("failed to commit match group activation")
	}

	group, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if group.Status == models.GroupStatusEnded {
		return nil, trelliserr.InvalidTransition("activate", string(group.Status))
	}
	return group, nil
}

// End transitions the group to ended and records who ended it and why. Ending
// an already-ended group is a no-op that returns the existing record, so
// concurrent end requests from both parties converge on the first writer's
// end_reason.
func (r *Repository) End(ctx context.Context, id string, endedBy string, reason string) (*models.MatchGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "matchgroup.Repository.End")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, trelliserr.StoreUnavailable("failed to start transaction")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("match_groups")
	ub.Set(
		ub.Assign("status", models.GroupStatusEnded),
		ub.Assign("ended_at", now),
		ub.Assign("ended_by", endedBy),
		ub.Assign("end_reason", reason),
		ub.Assign("updated_at", now),
	)
	ub.Where(ub.Equal("id", id), ub.NotEqual("status", models.GroupStatusEnded))
	ub.SQL("RETURNING " + strings.Join(groupColumns, ", "))

	query, args := ub.Build()
	var updated models.MatchGroup
	if err := tx.QueryRowxContext(ctx, query, args...).StructScan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Already ended (or missing): fall through to Get so the caller
			// sees the terminal record without a second end_reason write.
			existing, getErr := r.Get(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return existing, tx.Commit(ctx)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"group_id": id}).Error("Failed to end match group")
		return nil, trelliserr.StoreUnavailable("failed to end match group")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, trelliserr.StoreUnavailable("failed to commit match group end")
	}

	return &updated, nil
}

// AssignProperty sets the property slot on a housing-shape group. The slot is
// set exactly once and only by the group's landlord.
func (r *Repository) AssignProperty(ctx context.Context, id string, landlordID string, propertyID string) (*models.MatchGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "matchgroup.Repository.AssignProperty")
	defer span.End()

	group, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if group.LandlordID == nil || *group.LandlordID != landlordID {
		return nil, trelliserr.Unauthorized("only the group's landlord can assign a property")
	}
	if group.Status == models.GroupStatusEnded {
		return nil, trelliserr.InvalidTransition("assign a property to", string(group.Status))
	}
	if group.PropertyID != nil {
		return nil, trelliserr.InvalidTransition("reassign the property of", string(group.Status))
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, trelliserr.StoreUnavailable("failed to start transaction")
	}
	defer tx.Rollback(ctx)

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("match_groups")
	ub.Set(
		ub.Assign("property_id", propertyID),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id), ub.IsNull("property_id"), ub.NotEqual("status", models.GroupStatusEnded))
	ub.SQL("RETURNING " + strings.Join(groupColumns, ", "))

	query, args := ub.Build()
	var updated models.MatchGroup
	if err := tx.QueryRowxContext(ctx, query, args...).StructScan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, trelliserr.VersionConflict("match group", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"group_id": id, "property_id": propertyID}).Error("Failed to assign property to match group")
		return nil, trelliserr.StoreUnavailable("failed to assign property to match group")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, trelliserr.StoreUnavailable("failed to commit property assignment")
	}

	return &updated, nil
}
