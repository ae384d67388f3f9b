package errors

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := Wrap(CodeProposalDuplicate, "proposal already submitted", fmt.Errorf("unique index violation"))

	if !errors.Is(err, New(CodeProposalDuplicate, "other message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if errors.Is(err, New(CodeScoreDuplicate, "proposal already submitted")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestErrorUnwrapReturnsCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("disk full")
	err := Wrap(CodeUnknown, "persist failed", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code Code
		want codes.Code
	}{
		{CodeSolicitationTitleEmpty, codes.InvalidArgument},
		{CodeSolicitationClosed, codes.FailedPrecondition},
		{CodeSolicitationDeadlinePassed, codes.FailedPrecondition},
		{CodeProposalDuplicate, codes.AlreadyExists},
		{CodeScoreDuplicate, codes.AlreadyExists},
		{CodeProposalNotOwned, codes.PermissionDenied},
		{CodeNotFound, codes.NotFound},
		{CodeOracleUnavailable, codes.Unavailable},
		{CodeOracleParse, codes.Internal},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range cases {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("code %s: expected %v, got %v", tc.code, tc.want, got)
		}
	}
}

func TestToGRPCStatusCarriesErrorInfo(t *testing.T) {
	t.Parallel()

	err := WithMetadata(CodeProposalDuplicate, "proposal already submitted", map[string]string{
		"solicitation_id": "sol-1",
	})

	st, ok := status.FromError(err.ToGRPCStatus())
	if !ok {
		t.Fatal("expected a gRPC status error")
	}
	if st.Code() != codes.AlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", st.Code())
	}
	if len(st.Details()) == 0 {
		t.Fatal("expected error details to be attached")
	}
}
