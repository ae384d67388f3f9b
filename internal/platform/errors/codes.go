// Package errors provides structured error handling with transport mapping.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Solicitation errors
	CodeSolicitationTitleEmpty        Code = "SOLICITATION_TITLE_EMPTY"
	CodeSolicitationRequirementsEmpty Code = "SOLICITATION_REQUIREMENTS_EMPTY"
	CodeSolicitationDeadlineInvalid   Code = "SOLICITATION_DEADLINE_INVALID"
	CodeSolicitationDeadlineInPast    Code = "SOLICITATION_DEADLINE_IN_PAST"
	CodeSolicitationClosed            Code = "SOLICITATION_CLOSED"
	CodeSolicitationAlreadyClosed     Code = "SOLICITATION_ALREADY_CLOSED"
	CodeSolicitationStillOpen         Code = "SOLICITATION_STILL_OPEN"
	CodeSolicitationHasProposals      Code = "SOLICITATION_HAS_PROPOSALS"
	CodeSolicitationDeadlinePassed    Code = "SOLICITATION_DEADLINE_PASSED"

	// Proposal errors
	CodeProposalOfferNegative       Code = "PROPOSAL_OFFER_NEGATIVE"
	CodeProposalTeamEmpty           Code = "PROPOSAL_TEAM_EMPTY"
	CodeProposalTeamMemberInvalid   Code = "PROPOSAL_TEAM_MEMBER_INVALID"
	CodeProposalDeclarationRequired Code = "PROPOSAL_DECLARATION_REQUIRED"
	CodeProposalDuplicate           Code = "PROPOSAL_DUPLICATE"
	CodeProposalNotOwned            Code = "PROPOSAL_NOT_OWNED"

	// Score errors
	CodeScoreCompositeOutOfRange Code = "SCORE_COMPOSITE_OUT_OF_RANGE"
	CodeScoreSubscoreOutOfRange  Code = "SCORE_SUBSCORE_OUT_OF_RANGE"
	CodeScoreDuplicate           Code = "SCORE_DUPLICATE"
	CodeScoreNotOwned            Code = "SCORE_NOT_OWNED"

	// Actor errors
	CodeActorMissing     Code = "ACTOR_MISSING"
	CodeActorRoleInvalid Code = "ACTOR_ROLE_INVALID"
	CodeActorRoleDenied  Code = "ACTOR_ROLE_DENIED"

	// Assessment errors
	CodeOracleUnavailable Code = "ORACLE_UNAVAILABLE"
	CodeOracleParse       Code = "ORACLE_PARSE"

	// Token errors
	CodeTokenInvalid Code = "TOKEN_INVALID"
	CodeTokenExpired Code = "TOKEN_EXPIRED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Transport errors
	CodeRequestInvalid Code = "REQUEST_INVALID"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeSolicitationTitleEmpty,
		CodeSolicitationRequirementsEmpty,
		CodeSolicitationDeadlineInvalid,
		CodeSolicitationDeadlineInPast,
		CodeProposalOfferNegative,
		CodeProposalTeamEmpty,
		CodeProposalTeamMemberInvalid,
		CodeProposalDeclarationRequired,
		CodeScoreCompositeOutOfRange,
		CodeScoreSubscoreOutOfRange,
		CodeActorMissing,
		CodeActorRoleInvalid,
		CodeRequestInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - lifecycle state disallows the operation
	case CodeSolicitationClosed,
		CodeSolicitationAlreadyClosed,
		CodeSolicitationStillOpen,
		CodeSolicitationHasProposals,
		CodeSolicitationDeadlinePassed:
		return codes.FailedPrecondition

	// AlreadyExists - unique resource constraint
	case CodeProposalDuplicate,
		CodeScoreDuplicate:
		return codes.AlreadyExists

	// PermissionDenied - ownership or role violation
	case CodeProposalNotOwned,
		CodeScoreNotOwned,
		CodeActorRoleDenied:
		return codes.PermissionDenied

	// Unauthenticated - missing or unverifiable credentials
	case CodeTokenInvalid,
		CodeTokenExpired:
		return codes.Unauthenticated

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	// Unavailable - upstream oracle failure, retryable
	case CodeOracleUnavailable:
		return codes.Unavailable

	case CodeOracleParse:
		return codes.Internal

	default:
		return codes.Internal
	}
}
