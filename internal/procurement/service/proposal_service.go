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

// ProposalService handles proposal intake and bidder-side mutations.
//
// Every mutation runs the guard twice: once as a service-level read for a
// precise error, and once inside the store's conditional write so a race
// against a concurrent close or the deadline resolves at commit time.
type ProposalService struct {
	stores      Stores
	events      Publisher
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewProposalService creates a ProposalService with default dependencies.
func NewProposalService(stores Stores, events Publisher) *ProposalService {
	return &ProposalService{
		stores:      stores,
		events:      events,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// guardParent checks that the parent solicitation accepts proposal mutations
// at the given instant. Submission exactly at the deadline is allowed.
func (s *ProposalService) guardParent(ctx context.Context, solicitationID string, now time.Time) (domain.Solicitation, error) {
	solicitation, err := s.stores.Solicitations.GetSolicitation(ctx, solicitationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Solicitation{}, ErrSolicitationNotFound
		}
		return domain.Solicitation{}, fmt.Errorf("get solicitation: %w", err)
	}
	if !solicitation.Open() {
		return domain.Solicitation{}, ErrSolicitationClosed
	}
	if solicitation.DeadlinePassed(now) {
		return domain.Solicitation{}, ErrDeadlinePassed
	}
	return solicitation, nil
}

// mapProposalWriteError translates guard failures from a conditional
// proposal write. A zero-row Submit means the parent solicitation is gone;
// a zero-row Update or Delete means the proposal row itself vanished, so
// each call site supplies the not-found sentinel for its case.
func mapProposalWriteError(err, notFound error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return notFound
	case errors.Is(err, storage.ErrSolicitationNotOpen):
		return ErrSolicitationClosed
	case errors.Is(err, storage.ErrDeadlinePassed):
		return ErrDeadlinePassed
	case errors.Is(err, storage.ErrDuplicate):
		return ErrProposalDuplicate
	}
	return err
}

// Submit creates a proposal against an open solicitation. Bidder role
// required; one proposal per bidder per solicitation.
func (s *ProposalService) Submit(ctx context.Context, actor domain.Actor, input domain.SubmitProposalInput) (domain.Proposal, error) {
	if err := actor.RequireRole(domain.RoleBidder); err != nil {
		return domain.Proposal{}, err
	}

	now := s.clock().UTC()
	if _, err := s.guardParent(ctx, input.SolicitationID, now); err != nil {
		return domain.Proposal{}, err
	}

	proposal, err := domain.CreateProposal(input, actor.ID, s.clock, s.idGenerator)
	if err != nil {
		return domain.Proposal{}, err
	}
	if err := s.stores.Proposals.CreateProposal(ctx, proposal, now); err != nil {
		if mapped := mapProposalWriteError(err, ErrSolicitationNotFound); mapped != err {
			return domain.Proposal{}, mapped
		}
		return domain.Proposal{}, fmt.Errorf("create proposal: %w", err)
	}

	publish(s.events,
		fanout.Event{Action: fanout.ActionCreate, EntityType: fanout.EntityProposal, Data: proposalEvent(proposal)},
		fanout.ProposalTopics(fanout.ActionCreate, proposal.SolicitationID, proposal.ID)...,
	)
	return proposal, nil
}

// Get loads one proposal. Bidders see only their own; evaluators see
// proposals only after the parent solicitation closed.
func (s *ProposalService) Get(ctx context.Context, actor domain.Actor, proposalID string) (domain.Proposal, error) {
	if err := actor.Validate(); err != nil {
		return domain.Proposal{}, err
	}

	proposal, err := s.stores.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Proposal{}, ErrProposalNotFound
		}
		return domain.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}

	switch actor.Role {
	case domain.RoleBidder:
		if proposal.BidderID != actor.ID {
			return domain.Proposal{}, ErrProposalNotOwned
		}
	case domain.RoleEvaluator:
		solicitation, err := s.stores.Solicitations.GetSolicitation(ctx, proposal.SolicitationID)
		if err != nil {
			return domain.Proposal{}, fmt.Errorf("get solicitation: %w", err)
		}
		if solicitation.Open() {
			return domain.Proposal{}, ErrSolicitationStillOpen
		}
	}
	return proposal, nil
}

// Update patches bidder-authored fields of the caller's own proposal while
// the parent is open and the deadline has not passed.
func (s *ProposalService) Update(ctx context.Context, actor domain.Actor, proposalID string, patch domain.UpdateProposalInput) (domain.Proposal, error) {
	if err := actor.RequireRole(domain.RoleBidder); err != nil {
		return domain.Proposal{}, err
	}

	proposal, err := s.ownedProposal(ctx, actor, proposalID)
	if err != nil {
		return domain.Proposal{}, err
	}
	now := s.clock().UTC()
	if _, err := s.guardParent(ctx, proposal.SolicitationID, now); err != nil {
		return domain.Proposal{}, err
	}

	updated, err := proposal.ApplyUpdate(patch, now)
	if err != nil {
		return domain.Proposal{}, err
	}
	if err := s.stores.Proposals.UpdateProposal(ctx, updated, now); err != nil {
		if mapped := mapProposalWriteError(err, ErrProposalNotFound); mapped != err {
			return domain.Proposal{}, mapped
		}
		return domain.Proposal{}, fmt.Errorf("update proposal: %w", err)
	}

	publish(s.events,
		fanout.Event{Action: fanout.ActionUpdate, EntityType: fanout.EntityProposal, Data: proposalEvent(updated)},
		fanout.ProposalTopics(fanout.ActionUpdate, updated.SolicitationID, updated.ID)...,
	)
	return updated, nil
}

// Delete withdraws the caller's own proposal under the same guards as Update.
func (s *ProposalService) Delete(ctx context.Context, actor domain.Actor, proposalID string) error {
	if err := actor.RequireRole(domain.RoleBidder); err != nil {
		return err
	}

	proposal, err := s.ownedProposal(ctx, actor, proposalID)
	if err != nil {
		return err
	}
	now := s.clock().UTC()
	if _, err := s.guardParent(ctx, proposal.SolicitationID, now); err != nil {
		return err
	}

	if err := s.stores.Proposals.DeleteProposal(ctx, proposal.ID, now); err != nil {
		if mapped := mapProposalWriteError(err, ErrProposalNotFound); mapped != err {
			return mapped
		}
		return fmt.Errorf("delete proposal: %w", err)
	}

	publish(s.events,
		fanout.Event{Action: fanout.ActionDelete, EntityType: fanout.EntityProposal, Data: proposalEvent(proposal)},
		fanout.ProposalTopics(fanout.ActionDelete, proposal.SolicitationID, proposal.ID)...,
	)
	return nil
}

// ListMine lists the calling bidder's proposals across all solicitations.
func (s *ProposalService) ListMine(ctx context.Context, actor domain.Actor) ([]domain.Proposal, error) {
	if err := actor.RequireRole(domain.RoleBidder); err != nil {
		return nil, err
	}

	proposals, err := s.stores.Proposals.ListProposalsByBidder(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}

// ListBySolicitation lists all proposals for a solicitation in submission
// order. Evaluator role required, and only once the solicitation is closed:
// evaluation is blind while bidding is live.
func (s *ProposalService) ListBySolicitation(ctx context.Context, actor domain.Actor, solicitationID string) ([]domain.Proposal, error) {
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

	proposals, err := s.stores.Proposals.ListProposalsBySolicitation(ctx, solicitation.ID)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}

func (s *ProposalService) ownedProposal(ctx context.Context, actor domain.Actor, proposalID string) (domain.Proposal, error) {
	proposal, err := s.stores.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Proposal{}, ErrProposalNotFound
		}
		return domain.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}
	if proposal.BidderID != actor.ID {
		return domain.Proposal{}, ErrProposalNotOwned
	}
	return proposal, nil
}
