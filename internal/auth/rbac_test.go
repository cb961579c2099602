package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"tasktracker/internal/auth"
)

func target(id uint) *uint {
	return &id
}

func TestAuthorize(t *testing.T) {
	user := &auth.Caller{ID: 1, Roles: []string{"user"}}
	admin := &auth.Caller{ID: 2, Roles: []string{"admin"}}

	tests := []struct {
		name     string
		caller   *auth.Caller
		required []string
		targetID *uint
		method   string
		wantErr  error
	}{
		{
			name:    "no caller",
			caller:  nil,
			method:  http.MethodGet,
			wantErr: auth.ErrUnauthenticated,
		},
		{
			name:     "admin passes writes on other identities",
			caller:   admin,
			required: []string{"admin"},
			targetID: target(1),
			method:   http.MethodDelete,
		},
		{
			name:     "role overlap passes plain routes",
			caller:   user,
			required: []string{"admin", "user"},
			method:   http.MethodGet,
		},
		{
			name:     "no role overlap fails plain routes",
			caller:   user,
			required: []string{"admin"},
			method:   http.MethodPost,
			wantErr:  auth.ErrForbidden,
		},
		{
			name:     "self read passes identity-scoped routes",
			caller:   user,
			required: []string{"admin"},
			targetID: target(1),
			method:   http.MethodGet,
		},
		{
			name:     "self write fails identity-scoped routes",
			caller:   user,
			required: []string{"admin"},
			targetID: target(1),
			method:   http.MethodPatch,
			wantErr:  auth.ErrForbidden,
		},
		{
			name:     "reading another identity fails",
			caller:   user,
			required: []string{"admin"},
			targetID: target(2),
			method:   http.MethodGet,
			wantErr:  auth.ErrForbidden,
		},
		{
			name:     "missing method fails closed",
			caller:   user,
			required: []string{"admin"},
			targetID: target(1),
			method:   "",
			wantErr:  auth.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.Authorize(tt.caller, tt.required, tt.targetID, tt.method)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
