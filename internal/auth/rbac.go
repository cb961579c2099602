package auth

import (
	"errors"
	"net/http"
	"slices"

	"tasktracker/internal/model"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("access denied")
)

// Caller is the resolved identity and role set of the requester, derived
// from a verified token.
type Caller struct {
	ID    uint
	Roles []string
}

func (c *Caller) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// Authorize decides whether the caller may perform an operation guarded by
// the required role set. targetID is the path-supplied identity of an
// identity-scoped route, nil otherwise; method is the HTTP method, used to
// classify identity-scoped requests as reads or writes.
//
// Admins pass unconditionally. On non-identity-scoped routes any overlap
// between caller roles and required roles suffices. On identity-scoped
// routes only a read of the caller's own identity passes; a missing method
// fails closed.
func Authorize(caller *Caller, required []string, targetID *uint, method string) error {
	if caller == nil {
		return ErrUnauthenticated
	}

	if caller.HasRole(model.RoleAdmin) {
		return nil
	}

	if targetID == nil {
		for _, role := range required {
			if caller.HasRole(role) {
				return nil
			}
		}
		return ErrForbidden
	}

	if method == "" {
		return ErrForbidden
	}
	if !isRead(method) || *targetID != caller.ID {
		return ErrForbidden
	}
	return nil
}
