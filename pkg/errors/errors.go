// Package errors defines the engine's error taxonomy. Every rejected
// operation carries a machine-readable reason so the consuming layer can
// render precise feedback instead of a generic failure.
package errors

import (
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// MetaReasonKey is the meta key carrying the taxonomy reason code.
const MetaReasonKey = "reason"

const (
	ReasonInvalidTransition      = "invalid_transition"
	ReasonUnauthorized           = "unauthorized"
	ReasonUnsupportedRolePairing = "unsupported_role_pairing"
	ReasonDuplicateRequest       = "duplicate_request"
	ReasonNotFound               = "not_found"
	ReasonStoreUnavailable       = "store_unavailable"
	ReasonVersionConflict        = "version_conflict"
	ReasonDisclosureDenied       = "disclosure_denied"
)

func withReason(code int, reason string, format string, args ...any) error {
	return httperror.NewHTTPError(code, fmt.Sprintf(format, args...)).AddMetaValue(MetaReasonKey, reason)
}

// InvalidTransition rejects an operation whose status precondition is not met.
func InvalidTransition(operation string, status string) error {
	return withReason(http.StatusConflict, ReasonInvalidTransition, "cannot %s a request in status '%s'", operation, status)
}

// Unauthorized rejects an operation invoked by a party other than the one the
// transition requires.
func Unauthorized(message string) error {
	return withReason(http.StatusForbidden, ReasonUnauthorized, "%s", message)
}

// UnsupportedRolePairing rejects an approval whose role pairing resolves to no
// known group shape.
func UnsupportedRolePairing(requestType string) error {
	return withReason(http.StatusUnprocessableEntity, ReasonUnsupportedRolePairing, "no group shape for request type '%s' and the parties' roles", requestType)
}

// DuplicateRequest rejects submission when an open request already exists for
// the same (requester, target, type) triple.
func DuplicateRequest(requestType string) error {
	return withReason(http.StatusConflict, ReasonDuplicateRequest, "an open '%s' request between these parties already exists", requestType)
}

// NotFound reports a missing request, group, or profile.
func NotFound(format string, args ...any) error {
	return withReason(http.StatusNotFound, ReasonNotFound, format, args...)
}

// StoreUnavailable reports a transient store failure. Callers may retry with
// backoff; the mutating operations are safe to retry whole.
func StoreUnavailable(message string) error {
	return withReason(http.StatusServiceUnavailable, ReasonStoreUnavailable, "%s", message)
}

// VersionConflict reports a concurrent mutation detected by compare-and-set.
// The caller must re-fetch and reattempt; it is never auto-merged.
func VersionConflict(resource string, id string) error {
	return withReason(http.StatusConflict, ReasonVersionConflict, "%s %s was modified concurrently", resource, id)
}

// DisclosureDenied rejects a contact reveal, with no partial information.
func DisclosureDenied() error {
	return withReason(http.StatusForbidden, ReasonDisclosureDenied, "contact information is not available to this viewer")
}

// Reason extracts the taxonomy reason code from an error, or "".
func Reason(err error) string {
	if err == nil || !httperror.IsHTTPError(err) {
		return ""
	}
	httperr := httperror.ToHTTPError(err)
	if httperr == nil || httperr.Meta == nil {
		return ""
	}
	reason, _ := httperr.Meta[MetaReasonKey].(string)
	return reason
}

// Is reports whether the error carries the given reason code.
func Is(err error, reason string) bool {
	return Reason(err) == reason
}

func IsInvalidTransition(err error) bool { return Is(err, ReasonInvalidTransition) }
func IsUnauthorized(err error) bool      { return Is(err, ReasonUnauthorized) }
func IsNotFound(err error) bool          { return Is(err, ReasonNotFound) }
func IsDuplicateRequest(err error) bool  { return Is(err, ReasonDuplicateRequest) }
func IsVersionConflict(err error) bool   { return Is(err, ReasonVersionConflict) }
func IsDisclosureDenied(err error) bool  { return Is(err, ReasonDisclosureDenied) }

func IsUnsupportedRolePairing(err error) bool { return Is(err, ReasonUnsupportedRolePairing) }
