package domain

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, err := ParseRole(" Bidder ")
	if err != nil {
		t.Fatalf("parse role: %v", err)
	}
	if role != RoleBidder {
		t.Fatalf("expected bidder, got %q", role)
	}

	if _, err := ParseRole("admin"); !errors.Is(err, ErrActorRoleInvalid) {
		t.Fatalf("expected ErrActorRoleInvalid, got %v", err)
	}
	if _, err := ParseRole(""); !errors.Is(err, ErrActorRoleInvalid) {
		t.Fatalf("expected ErrActorRoleInvalid for empty role, got %v", err)
	}
}

func TestActorRequireRole(t *testing.T) {
	t.Parallel()

	bidder := Actor{ID: "user-1", Role: RoleBidder}
	if err := bidder.RequireRole(RoleBidder); err != nil {
		t.Fatalf("expected bidder to pass bidder check: %v", err)
	}
	if err := bidder.RequireRole(RoleEvaluator); !errors.Is(err, ErrActorRoleDenied) {
		t.Fatalf("expected ErrActorRoleDenied, got %v", err)
	}

	missing := Actor{Role: RoleBidder}
	if err := missing.RequireRole(RoleBidder); !errors.Is(err, ErrActorMissing) {
		t.Fatalf("expected ErrActorMissing, got %v", err)
	}

	unknown := Actor{ID: "user-1", Role: "auditor"}
	if err := unknown.Validate(); !errors.Is(err, ErrActorRoleInvalid) {
		t.Fatalf("expected ErrActorRoleInvalid, got %v", err)
	}
}
