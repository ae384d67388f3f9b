package domain

import (
	"strings"

	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
)

// Role describes what an authenticated actor is allowed to do.
type Role string

const (
	// RoleUnspecified represents an invalid role value.
	RoleUnspecified Role = ""
	// RoleBidder can submit and manage proposals.
	RoleBidder Role = "bidder"
	// RoleEvaluator can manage solicitations and score proposals.
	RoleEvaluator Role = "evaluator"
)

var (
	// ErrActorMissing indicates a service call without an authenticated actor.
	ErrActorMissing = apperrors.New(apperrors.CodeActorMissing, "actor is required")
	// ErrActorRoleInvalid indicates an unknown role value.
	ErrActorRoleInvalid = apperrors.New(apperrors.CodeActorRoleInvalid, "actor role is invalid")
	// ErrActorRoleDenied indicates the actor's role does not permit the operation.
	ErrActorRoleDenied = apperrors.New(apperrors.CodeActorRoleDenied, "actor role does not permit this operation")
)

// Actor is the canonical identity attached to every service call.
//
// It is produced once at the authentication boundary and passed explicitly;
// services never read identity from ambient state.
type Actor struct {
	ID   string
	Role Role
}

// ParseRole normalizes a raw role string into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleBidder:
		return RoleBidder, nil
	case RoleEvaluator:
		return RoleEvaluator, nil
	default:
		return RoleUnspecified, ErrActorRoleInvalid
	}
}

// Validate reports whether the actor carries an identity and a known role.
func (a Actor) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrActorMissing
	}
	if a.Role != RoleBidder && a.Role != RoleEvaluator {
		return ErrActorRoleInvalid
	}
	return nil
}

// RequireRole fails unless the actor is valid and holds the given role.
func (a Actor) RequireRole(role Role) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Role != role {
		return ErrActorRoleDenied
	}
	return nil
}
