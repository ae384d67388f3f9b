package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/storage"
)

// ErrProposalNotFound indicates the proposal to assess does not exist.
var ErrProposalNotFound = apperrors.New(apperrors.CodeNotFound, "proposal not found")

// SolicitationReader loads solicitations for prompt construction.
type SolicitationReader interface {
	GetSolicitation(ctx context.Context, id string) (domain.Solicitation, error)
}

// ProposalStore covers the proposal reads and the assessment write.
type ProposalStore interface {
	GetProposal(ctx context.Context, id string) (domain.Proposal, error)
	SetProposalAssessment(ctx context.Context, proposalID string, assessment *domain.Assessment, updatedAt time.Time) error
}

// Service runs the oracle against a proposal and persists the result.
//
// Assessment is advisory and runs regardless of the solicitation's lifecycle
// state. The stored assessment is replaced wholesale, and only after the
// oracle's reply parsed cleanly; any failure leaves the prior assessment
// untouched.
type Service struct {
	solicitations SolicitationReader
	proposals     ProposalStore
	oracle        Oracle
	clock         func() time.Time
}

// NewService creates an assessment Service.
func NewService(solicitations SolicitationReader, proposals ProposalStore, oracle Oracle) *Service {
	return &Service{
		solicitations: solicitations,
		proposals:     proposals,
		oracle:        oracle,
		clock:         time.Now,
	}
}

// Assess runs the oracle for one proposal and stores the assessment.
func (s *Service) Assess(ctx context.Context, proposalID string) (domain.Assessment, error) {
	proposal, err := s.proposals.GetProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Assessment{}, ErrProposalNotFound
		}
		return domain.Assessment{}, fmt.Errorf("get proposal: %w", err)
	}
	solicitation, err := s.solicitations.GetSolicitation(ctx, proposal.SolicitationID)
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("get solicitation: %w", err)
	}

	result, err := s.oracle.Assess(ctx, solicitation, proposal)
	if err != nil {
		return domain.Assessment{}, err
	}

	if err := s.proposals.SetProposalAssessment(ctx, proposal.ID, &result, s.clock().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Assessment{}, ErrProposalNotFound
		}
		return domain.Assessment{}, fmt.Errorf("store assessment: %w", err)
	}
	return result, nil
}
