// Package service implements the procurement workflow operations on top of
// the storage interfaces. Every operation takes the calling Actor explicitly;
// authorization never comes from ambient state.
package service

import (
	"fmt"
	"strings"

	"github.com/clearbid/tenderspace/internal/fanout"
	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
	"github.com/clearbid/tenderspace/internal/storage"
)

var (
	// ErrSolicitationNotFound indicates the solicitation does not exist.
	ErrSolicitationNotFound = apperrors.New(apperrors.CodeNotFound, "solicitation not found")
	// ErrProposalNotFound indicates the proposal does not exist.
	ErrProposalNotFound = apperrors.New(apperrors.CodeNotFound, "proposal not found")
	// ErrScoreNotFound indicates the score record does not exist.
	ErrScoreNotFound = apperrors.New(apperrors.CodeNotFound, "score record not found")
	// ErrSolicitationClosed indicates a mutation against a closed solicitation.
	ErrSolicitationClosed = apperrors.New(apperrors.CodeSolicitationClosed, "solicitation is closed")
	// ErrSolicitationAlreadyClosed indicates a second close of the same solicitation.
	ErrSolicitationAlreadyClosed = apperrors.New(apperrors.CodeSolicitationAlreadyClosed, "solicitation is already closed")
	// ErrSolicitationStillOpen indicates an evaluation operation before close.
	ErrSolicitationStillOpen = apperrors.New(apperrors.CodeSolicitationStillOpen, "solicitation is still open")
	// ErrSolicitationHasProposals indicates a delete with dependent proposals.
	ErrSolicitationHasProposals = apperrors.New(apperrors.CodeSolicitationHasProposals, "solicitation has proposals")
	// ErrDeadlinePassed indicates a proposal mutation after the deadline.
	ErrDeadlinePassed = apperrors.New(apperrors.CodeSolicitationDeadlinePassed, "solicitation deadline has passed")
	// ErrProposalDuplicate indicates a second proposal by the same bidder.
	ErrProposalDuplicate = apperrors.New(apperrors.CodeProposalDuplicate, "bidder already has a proposal for this solicitation")
	// ErrProposalNotOwned indicates a mutation of another bidder's proposal.
	ErrProposalNotOwned = apperrors.New(apperrors.CodeProposalNotOwned, "proposal belongs to another bidder")
	// ErrScoreDuplicate indicates a second score record for the same proposal.
	ErrScoreDuplicate = apperrors.New(apperrors.CodeScoreDuplicate, "proposal already has a score record")
	// ErrScoreNotOwned indicates a mutation of another evaluator's score.
	ErrScoreNotOwned = apperrors.New(apperrors.CodeScoreNotOwned, "score record belongs to another evaluator")
)

// Publisher pushes change events to live subscribers. Publishing happens
// after a successful write and never affects the operation's outcome.
type Publisher interface {
	Publish(event fanout.Event, topics ...string)
}

// Stores groups the storage interfaces the services depend on.
type Stores struct {
	Solicitations storage.SolicitationStore
	Proposals     storage.ProposalStore
	Scores        storage.ScoreStore
}

// Validate checks that every store field is non-nil. The process entrypoint
// calls this once at composition time so that operations do not need
// per-method nil guards.
func (s Stores) Validate() error {
	var missing []string
	if s.Solicitations == nil {
		missing = append(missing, "Solicitations")
	}
	if s.Proposals == nil {
		missing = append(missing, "Proposals")
	}
	if s.Scores == nil {
		missing = append(missing, "Scores")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing stores: %s", strings.Join(missing, ", "))
	}
	return nil
}

func publish(events Publisher, event fanout.Event, topics ...string) {
	if events == nil {
		return
	}
	events.Publish(event, topics...)
}
