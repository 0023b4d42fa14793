package connectionrequest_test

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/trellis/internal/repositories/connectionrequest"
	"github.com/Ramsey-B/trellis/pkg/database"
	trelliserr "github.com/Ramsey-B/trellis/pkg/errors"
	"github.com/Ramsey-B/trellis/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	// Use environment variables or defaults for test DB
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "postgres"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "postgres"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "trellis"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

// seedProfile inserts a bare profile row to satisfy foreign keys
func seedProfile(t *testing.T, db database.DB, roles string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO profiles (id, display_name, email, roles) VALUES ($1, $2, $3, $4)`,
		id, "Test User "+id[:8], id[:8]+"@example.com", roles)
	require.NoError(t, err)
	return id
}

// assertNotFound asserts that err is an HTTP 404 error
func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err), "expected HTTP error, got: %v", err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err), "expected 404, got: %d", httperror.GetStatusCode(err))
}

func TestIntegrationRepository_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	repo := connectionrequest.NewRepository(db, logger)

	ctx := context.Background()
	requesterID := seedProfile(t, db, "{applicant}")
	targetID := seedProfile(t, db, "{applicant}")

	// Test Create
	created, err := repo.Create(ctx, &models.ConnectionRequest{
		RequesterID: requesterID,
		TargetID:    targetID,
		RequestType: models.RequestTypeRoommate,
		Message:     "interested in sharing a place",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.RequestStatusPending, created.Status)
	assert.Equal(t, 1, created.Version)
	assert.False(t, created.CreatedAt.IsZero())

	// Test Get
	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "interested in sharing a place", got.Message)

	// Test FindOpen sees the pending request
	open, err := repo.FindOpen(ctx, requesterID, targetID, models.RequestTypeRoommate)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, created.ID, open.ID)

	// A different type is not blocked
	open, err = repo.FindOpen(ctx, requesterID, targetID, models.RequestTypePeerSupport)
	require.NoError(t, err)
	assert.Nil(t, open)

	// Test ApplyTransition with the correct version
	reason := "changed my mind"
	updated, err := repo.ApplyTransition(ctx, created.ID, created.Version, connectionrequest.TransitionPatch{
		Status:          models.RequestStatusRejected,
		RejectionReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, updated.Status)
	assert.Equal(t, created.Version+1, updated.Version)
	require.NotNil(t, updated.RejectionReason)
	assert.Equal(t, reason, *updated.RejectionReason)

	// Stale version surfaces as a conflict
	now := time.Now().UTC()
	_, err = repo.ApplyTransition(ctx, created.ID, created.Version, connectionrequest.TransitionPatch{
		Status:      models.RequestStatusCancelled,
		CancelledAt: &now,
	})
	require.Error(t, err)
	assert.True(t, trelliserr.IsVersionConflict(err))

	// Terminal requests no longer count as open
	open, err = repo.FindOpen(ctx, requesterID, targetID, models.RequestTypeRoommate)
	require.NoError(t, err)
	assert.Nil(t, open)

	// Test ListForUser from both sides
	forRequester, err := repo.ListForUser(ctx, requesterID)
	require.NoError(t, err)
	assert.NotEmpty(t, forRequester)

	forTarget, err := repo.ListForUser(ctx, targetID)
	require.NoError(t, err)
	assert.NotEmpty(t, forTarget)
}

func TestIntegrationRepository_DuplicateOpenInsert(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := connectionrequest.NewRepository(db, getTestLogger())

	ctx := context.Background()
	requesterID := seedProfile(t, db, "{applicant}")
	targetID := seedProfile(t, db, "{applicant}")

	_, err := repo.Create(ctx, &models.ConnectionRequest{
		RequesterID: requesterID,
		TargetID:    targetID,
		RequestType: models.RequestTypeRoommate,
	})
	require.NoError(t, err)

	// A second open insert for the same triple trips the partial unique
	// index, the path a racing submit takes past FindOpen.
	_, err = repo.Create(ctx, &models.ConnectionRequest{
		RequesterID: requesterID,
		TargetID:    targetID,
		RequestType: models.RequestTypeRoommate,
	})
	require.Error(t, err)
	assert.True(t, trelliserr.IsDuplicateRequest(err))
}

func TestIntegrationRepository_GetMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := connectionrequest.NewRepository(db, getTestLogger())

	_, err := repo.Get(context.Background(), uuid.NewString())
	assertNotFound(t, err)
}
