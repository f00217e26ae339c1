package platform

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/adveralabs/adpilot/internal/domain"
)

// Kind buckets adapter failures by the policy the optimization loop applies
// to them, not by transport detail.
type Kind string

const (
	// KindTransient covers timeouts, 5xx and rate limiting. The cycle
	// continues with partial data.
	KindTransient Kind = "transient"
	// KindPermanent covers auth and permission failures. The platform is
	// excluded from the cycle.
	KindPermanent Kind = "permanent"
	// KindMalformed marks an insight record missing a mandatory field.
	// The record is skipped.
	KindMalformed Kind = "malformed"
	// KindPending marks a budget write that cannot proceed until an
	// external mapping exists. Reported, never retried.
	KindPending Kind = "pending"
)

// Error is the typed failure adapters hand to the optimization loop.
type Error struct {
	Platform domain.Platform
	Op       string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Platform, e.Op, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Platform, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with platform, operation and policy kind.
func NewError(p domain.Platform, op string, kind Kind, err error) *Error {
	return &Error{Platform: p, Op: op, Kind: kind, Err: err}
}

// KindOf extracts the policy kind from an error chain. Errors that carry no
// platform classification default to transient, which keeps an unknown
// failure from knocking a platform out of rotation.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

// KindFromStatus classifies an HTTP response status.
func KindFromStatus(code int) Kind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindTransient
	case code >= 500:
		return KindTransient
	case code >= 400:
		return KindPermanent
	default:
		return KindTransient
	}
}

// IsPending reports whether err is a budget write blocked on a missing
// mapping.
func IsPending(err error) bool { return KindOf(err) == KindPending }
