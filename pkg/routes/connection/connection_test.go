package connection_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	trelliserr "github.com/Ramsey-B/trellis/pkg/errors"
	"github.com/Ramsey-B/trellis/pkg/middleware"
	"github.com/Ramsey-B/trellis/pkg/routes/connection"
)

const (
	aliceID = "6f1f8f1a-0f33-4a7e-9a6a-111111111111"
	bobID   = "2c9d4e6b-8a21-4d5c-b3f0-222222222222"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func newTestServer() *echo.Echo {
	e := echo.New()
	e.Use(middleware.Context())
	e.HTTPErrorHandler = middleware.Error(getTestLogger())
	connection.Register(e.Group("/api/v1/requests"))
	return e
}

func postRequest(t *testing.T, e *echo.Echo, userID string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewBuffer(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSubmitRequest_RequesterMustBeActor(t *testing.T) {
	e := newTestServer()

	// Bob tries to submit a request in Alice's name.
	rec := postRequest(t, e, bobID, map[string]any{
		"requester_id": aliceID,
		"target_id":    bobID,
		"request_type": "roommate",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var response middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, trelliserr.ReasonUnauthorized, response.Meta[trelliserr.MetaReasonKey])
}

func TestSubmitRequest_MissingIdentity(t *testing.T) {
	e := newTestServer()

	rec := postRequest(t, e, "", map[string]any{
		"requester_id": aliceID,
		"target_id":    bobID,
		"request_type": "roommate",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitRequest_ActorPassesIdentityGuard(t *testing.T) {
	e := newTestServer()

	// Alice submits as herself. No service container is wired in this test,
	// so the handler fails after the guard; what matters is that it is not
	// an identity rejection.
	rec := postRequest(t, e, aliceID, map[string]any{
		"requester_id": aliceID,
		"target_id":    bobID,
		"request_type": "roommate",
	})

	assert.NotEqual(t, http.StatusForbidden, rec.Code)
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
}
