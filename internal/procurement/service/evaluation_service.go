package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clearbid/tenderspace/internal/fanout"
	"github.com/clearbid/tenderspace/internal/platform/id"
	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/storage"
)

// EvaluationService records evaluator judgments once a solicitation closed.
type EvaluationService struct {
	stores      Stores
	events      Publisher
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewEvaluationService creates an EvaluationService with default dependencies.
func NewEvaluationService(stores Stores, events Publisher) *EvaluationService {
	return &EvaluationService{
		stores:      stores,
		events:      events,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// Score records an evaluator's judgment of a proposal. Evaluator role
// required; the parent solicitation must already be closed; at most one score
// record exists per proposal, so concurrent evaluators race to one winner.
func (s *EvaluationService) Score(ctx context.Context, actor domain.Actor, input domain.ScoreInput) (domain.ScoreRecord, error) {
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		return domain.ScoreRecord{}, err
	}

	proposal, err := s.closedProposal(ctx, input.ProposalID)
	if err != nil {
		return domain.ScoreRecord{}, err
	}

	record, err := domain.CreateScoreRecord(input, actor.ID, s.clock, s.idGenerator)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	if err := s.stores.Scores.CreateScore(ctx, record); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return domain.ScoreRecord{}, ErrProposalNotFound
		case errors.Is(err, storage.ErrSolicitationNotClosed):
			return domain.ScoreRecord{}, ErrSolicitationStillOpen
		case errors.Is(err, storage.ErrDuplicate):
			return domain.ScoreRecord{}, ErrScoreDuplicate
		}
		return domain.ScoreRecord{}, fmt.Errorf("create score: %w", err)
	}

	publish(s.events,
		fanout.Event{Action: fanout.ActionCreate, EntityType: fanout.EntityScore, Data: scoreEvent(record, proposal.SolicitationID)},
		fanout.ScoreTopics(fanout.ActionCreate, proposal.SolicitationID, proposal.ID)...,
	)
	return record, nil
}

// Get loads one score record. Evaluator role required.
func (s *EvaluationService) Get(ctx context.Context, actor domain.Actor, scoreID string) (domain.ScoreRecord, error) {
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		return domain.ScoreRecord{}, err
	}
	return s.getScore(ctx, scoreID)
}

// GetByProposal loads the score record for a proposal, if one exists.
// Evaluator role required.
func (s *EvaluationService) GetByProposal(ctx context.Context, actor domain.Actor, proposalID string) (domain.ScoreRecord, error) {
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		return domain.ScoreRecord{}, err
	}

	record, err := s.stores.Scores.GetScoreByProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ScoreRecord{}, ErrScoreNotFound
		}
		return domain.ScoreRecord{}, fmt.Errorf("get score: %w", err)
	}
	return record, nil
}

// Update patches a score record. Only the evaluator who created the record
// may amend it.
func (s *EvaluationService) Update(ctx context.Context, actor domain.Actor, scoreID string, patch domain.UpdateScoreInput) (domain.ScoreRecord, error) {
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		return domain.ScoreRecord{}, err
	}

	record, err := s.ownedScore(ctx, actor, scoreID)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	updated, err := record.ApplyUpdate(patch, s.clock())
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	if err := s.stores.Scores.UpdateScore(ctx, updated); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ScoreRecord{}, ErrScoreNotFound
		}
		return domain.ScoreRecord{}, fmt.Errorf("update score: %w", err)
	}

	solicitationID := s.solicitationIDForProposal(ctx, updated.ProposalID)
	publish(s.events,
		fanout.Event{Action: fanout.ActionUpdate, EntityType: fanout.EntityScore, Data: scoreEvent(updated, solicitationID)},
		fanout.ScoreTopics(fanout.ActionUpdate, solicitationID, updated.ProposalID)...,
	)
	return updated, nil
}

// Delete removes a score record. Creating-evaluator ownership applies.
func (s *EvaluationService) Delete(ctx context.Context, actor domain.Actor, scoreID string) error {
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		return err
	}

	record, err := s.ownedScore(ctx, actor, scoreID)
	if err != nil {
		return err
	}
	if err := s.stores.Scores.DeleteScore(ctx, record.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrScoreNotFound
		}
		return fmt.Errorf("delete score: %w", err)
	}

	solicitationID := s.solicitationIDForProposal(ctx, record.ProposalID)
	publish(s.events,
		fanout.Event{Action: fanout.ActionDelete, EntityType: fanout.EntityScore, Data: scoreEvent(record, solicitationID)},
		fanout.ScoreTopics(fanout.ActionDelete, solicitationID, record.ProposalID)...,
	)
	return nil
}

// Rank lists a closed solicitation's score records in ranking order:
// composite descending, ties by earliest proposal submission, then proposal
// ID. The order is stable across calls.
func (s *EvaluationService) Rank(ctx context.Context, actor domain.Actor, solicitationID string) ([]storage.RankedScore, error) {
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		return nil, err
	}

	solicitation, err := s.stores.Solicitations.GetSolicitation(ctx, solicitationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSolicitationNotFound
		}
		return nil, fmt.Errorf("get solicitation: %w", err)
	}
	if solicitation.Open() {
		return nil, ErrSolicitationStillOpen
	}

	ranked, err := s.stores.Scores.ListScoresBySolicitation(ctx, solicitation.ID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return ranked, nil
}

// closedProposal loads the proposal and checks its parent is closed.
func (s *EvaluationService) closedProposal(ctx context.Context, proposalID string) (domain.Proposal, error) {
	proposal, err := s.stores.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Proposal{}, ErrProposalNotFound
		}
		return domain.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}

	solicitation, err := s.stores.Solicitations.GetSolicitation(ctx, proposal.SolicitationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Proposal{}, ErrSolicitationNotFound
		}
		return domain.Proposal{}, fmt.Errorf("get solicitation: %w", err)
	}
	if solicitation.Open() {
		return domain.Proposal{}, ErrSolicitationStillOpen
	}
	return proposal, nil
}

func (s *EvaluationService) ownedScore(ctx context.Context, actor domain.Actor, scoreID string) (domain.ScoreRecord, error) {
	record, err := s.getScore(ctx, scoreID)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	if record.EvaluatorID != actor.ID {
		return domain.ScoreRecord{}, ErrScoreNotOwned
	}
	return record, nil
}

func (s *EvaluationService) getScore(ctx context.Context, scoreID string) (domain.ScoreRecord, error) {
	record, err := s.stores.Scores.GetScore(ctx, scoreID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ScoreRecord{}, ErrScoreNotFound
		}
		return domain.ScoreRecord{}, fmt.Errorf("get score: %w", err)
	}
	return record, nil
}

// solicitationIDForProposal resolves the parent ID for event topics. Events
// are best-effort, so a lookup failure degrades to an empty topic segment
// rather than failing the mutation.
func (s *EvaluationService) solicitationIDForProposal(ctx context.Context, proposalID string) string {
	proposal, err := s.stores.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return ""
	}
	return proposal.SolicitationID
}
