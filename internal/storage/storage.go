package storage

import (
	"context"
	"errors"
	"time"

	"github.com/clearbid/tenderspace/internal/procurement/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a write violated a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
	// ErrSolicitationNotOpen indicates the parent solicitation was closed by
	// the time the write committed.
	ErrSolicitationNotOpen = errors.New("solicitation is not open")
	// ErrSolicitationNotClosed indicates an operation that requires a closed
	// solicitation observed an open one at commit time.
	ErrSolicitationNotClosed = errors.New("solicitation is not closed")
	// ErrDeadlinePassed indicates the submission deadline elapsed before the
	// write committed.
	ErrDeadlinePassed = errors.New("solicitation deadline has passed")
	// ErrHasProposals indicates a solicitation delete with dependent proposals.
	ErrHasProposals = errors.New("solicitation has proposals")
)

// SolicitationOrder selects a search sort order.
type SolicitationOrder string

const (
	// OrderNewest sorts by creation time descending.
	OrderNewest SolicitationOrder = "newest"
	// OrderOldest sorts by creation time ascending.
	OrderOldest SolicitationOrder = "oldest"
	// OrderDeadlineAsc sorts by deadline ascending.
	OrderDeadlineAsc SolicitationOrder = "deadline"
)

// SolicitationQuery describes a solicitation search.
type SolicitationQuery struct {
	// Text is matched case-insensitively as a substring of title,
	// description, and requirements.
	Text string
	// Status restricts results to one lifecycle state when non-empty.
	Status domain.SolicitationStatus
	// Filter is an optional AIP-160 expression over status and currency.
	Filter string
	// Order selects the sort order; ties always break by ascending ID.
	Order SolicitationOrder
	// PageSize bounds the page; PageToken resumes a prior query.
	PageSize  int
	PageToken string
}

// SolicitationPage is one page of search results.
type SolicitationPage struct {
	Solicitations []domain.Solicitation
	NextPageToken string
}

// SolicitationStore persists solicitation lifecycle state.
//
// Close, Update, and Delete are conditional writes: the lifecycle guard is
// re-checked inside the statement so a concurrent transition loses cleanly.
type SolicitationStore interface {
	CreateSolicitation(ctx context.Context, solicitation domain.Solicitation) error
	GetSolicitation(ctx context.Context, id string) (domain.Solicitation, error)
	// UpdateSolicitation persists the record only while the stored row is
	// still open; otherwise ErrSolicitationNotOpen.
	UpdateSolicitation(ctx context.Context, solicitation domain.Solicitation) error
	// CloseSolicitation transitions open→closed; ErrSolicitationNotOpen if
	// the row is already closed.
	CloseSolicitation(ctx context.Context, id string, closedAt time.Time) error
	// DeleteSolicitation removes the row unless proposals reference it
	// (ErrHasProposals).
	DeleteSolicitation(ctx context.Context, id string) error
	SearchSolicitations(ctx context.Context, query SolicitationQuery) (SolicitationPage, error)
}

// ProposalStore persists proposals under the parent lifecycle guards.
//
// CreateProposal is the compare-and-create required by the duplicate rule:
// the unique (solicitation_id, bidder_id) index and the parent state check
// are resolved atomically in the write, so of two racing submissions exactly
// one succeeds.
type ProposalStore interface {
	// CreateProposal inserts the proposal only if the parent is open and the
	// deadline has not passed at submittedAt. Failure modes: ErrNotFound,
	// ErrSolicitationNotOpen, ErrDeadlinePassed, ErrDuplicate.
	CreateProposal(ctx context.Context, proposal domain.Proposal, submittedAt time.Time) error
	GetProposal(ctx context.Context, id string) (domain.Proposal, error)
	// UpdateProposal persists bidder-authored fields only while the parent is
	// open and before the deadline at updatedAt.
	UpdateProposal(ctx context.Context, proposal domain.Proposal, updatedAt time.Time) error
	// DeleteProposal removes the proposal under the same parent guards.
	DeleteProposal(ctx context.Context, id string, deletedAt time.Time) error
	ListProposalsByBidder(ctx context.Context, bidderID string) ([]domain.Proposal, error)
	ListProposalsBySolicitation(ctx context.Context, solicitationID string) ([]domain.Proposal, error)
	// SetProposalAssessment replaces the assessment wholesale without
	// touching bidder-authored fields or lifecycle guards.
	SetProposalAssessment(ctx context.Context, proposalID string, assessment *domain.Assessment, updatedAt time.Time) error
}

// RankedScore pairs a score record with its proposal's submission time for
// deterministic ranking.
type RankedScore struct {
	Score               domain.ScoreRecord
	ProposalSubmittedAt time.Time
}

// ScoreStore persists evaluator score records.
type ScoreStore interface {
	// CreateScore inserts the record only while the parent solicitation is
	// closed. Failure modes: ErrNotFound, ErrSolicitationNotClosed,
	// ErrDuplicate (one score per proposal).
	CreateScore(ctx context.Context, score domain.ScoreRecord) error
	GetScore(ctx context.Context, id string) (domain.ScoreRecord, error)
	GetScoreByProposal(ctx context.Context, proposalID string) (domain.ScoreRecord, error)
	UpdateScore(ctx context.Context, score domain.ScoreRecord) error
	DeleteScore(ctx context.Context, id string) error
	// ListScoresBySolicitation returns all score records for the
	// solicitation's proposals together with submission timestamps.
	ListScoresBySolicitation(ctx context.Context, solicitationID string) ([]RankedScore, error)
}
