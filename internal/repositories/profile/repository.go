package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/trellis/pkg/database"
	trelliserr "github.com/Ramsey-B/trellis/pkg/errors"
	"github.com/Ramsey-B/trellis/pkg/models"
	"github.com/Ramsey-B/trellis/pkg/tracing"
)

// Repository provides read-only access to profiles and their role-specific
// sub-records. Profile CRUD belongs to the accounts service; the engine only
// needs roles and contact fields.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new profile repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Get returns the profile by id.
func (r *Repository) Get(ctx context.Context, id string) (*models.Profile, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "display_name", "email", "phone", "roles", "created_at", "updated_at", "deleted_at")
	sb.From("profiles")
	sb.Where(sb.Equal("id", id), sb.IsNull("deleted_at"))
	sb.Limit(1)

	query, args := sb.Build()
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, trelliserr.NotFound("profile %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"profile_id": id}).Error("Failed to get profile")
		return nil, trelliserr.StoreUnavailable("failed to get profile")
	}
	return &profile, nil
}

// phoneFromTable reads a nullable phone column from a sub-record table keyed
// by the given column. Returns nil when no row exists.
func (r *Repository) phoneFromTable(ctx context.Context, table string, keyColumn string, keyValue string) (*string, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("phone")
	sb.From(table)
	sb.Where(sb.Equal(keyColumn, keyValue), sb.IsNotNull("phone"))
	sb.OrderBy("updated_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var phone string
	if err := r.db.GetContext(ctx, &phone, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"table": table, keyColumn: keyValue}).Error("Failed to look up contact phone")
		return nil, trelliserr.StoreUnavailable("failed to look up contact phone")
	}
	return &phone, nil
}

// ApplicantFormPhone returns the phone from the applicant intake form, or nil.
func (r *Repository) ApplicantFormPhone(ctx context.Context, profileID string) (*string, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.ApplicantFormPhone")
	defer span.End()
	return r.phoneFromTable(ctx, "applicant_forms", "profile_id", profileID)
}

// PeerProfilePhone returns the phone from the peer specialist profile, or nil.
func (r *Repository) PeerProfilePhone(ctx context.Context, profileID string) (*string, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.PeerProfilePhone")
	defer span.End()
	return r.phoneFromTable(ctx, "peer_profiles", "profile_id", profileID)
}

// PropertyPhone returns the contact phone of the landlord's most recently
// updated property, or nil.
func (r *Repository) PropertyPhone(ctx context.Context, landlordID string) (*string, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.PropertyPhone")
	defer span.End()
	return r.phoneFromTable(ctx, "properties", "landlord_id", landlordID)
}

// EmployerProfilePhone returns the phone from the employer profile, or nil.
func (r *Repository) EmployerProfilePhone(ctx context.Context, profileID string) (*string, error) {
	ctx, span := tracing.StartSpan(ctx, "profile.Repository.EmployerProfilePhone")
	defer span.End()
	return r.phoneFromTable(ctx, "employer_profiles", "profile_id", profileID)
}
