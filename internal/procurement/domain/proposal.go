package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
	"github.com/clearbid/tenderspace/internal/platform/id"
)

const maxTeamMemberDocuments = 3

var (
	// ErrOfferNegative indicates a negative financial offer.
	ErrOfferNegative = apperrors.New(apperrors.CodeProposalOfferNegative, "financial offer must be non-negative")
	// ErrTeamEmpty indicates a proposal without team members.
	ErrTeamEmpty = apperrors.New(apperrors.CodeProposalTeamEmpty, "proposal must name at least one team member")
	// ErrTeamMemberInvalid indicates a member missing name, experience, or documents.
	ErrTeamMemberInvalid = apperrors.New(apperrors.CodeProposalTeamMemberInvalid, "team member needs a name, experience text, and 1-3 document references")
	// ErrDeclarationRequired indicates the bidder declaration was not accepted.
	ErrDeclarationRequired = apperrors.New(apperrors.CodeProposalDeclarationRequired, "proposal declaration must be accepted")
)

// TeamMember is one person offered on a proposal.
type TeamMember struct {
	Name       string
	Experience string
	Documents  []string
}

// Proposal is a bidder's response to an open solicitation.
//
// Assessment is an advisory augmentation written by the scoring oracle; it is
// replaced wholesale and never touched by bidder-authored mutations.
type Proposal struct {
	ID                  string
	SolicitationID      string
	BidderID            string
	FinancialOffer      float64
	Team                []TeamMember
	DeclarationAccepted bool
	Assessment          *Assessment
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// SubmitProposalInput describes a new proposal submission.
type SubmitProposalInput struct {
	SolicitationID      string
	FinancialOffer      float64
	Team                []TeamMember
	DeclarationAccepted bool
}

func normalizeTeam(team []TeamMember) ([]TeamMember, error) {
	if len(team) == 0 {
		return nil, ErrTeamEmpty
	}
	normalized := make([]TeamMember, 0, len(team))
	for _, member := range team {
		member.Name = strings.TrimSpace(member.Name)
		member.Experience = strings.TrimSpace(member.Experience)
		if member.Name == "" || member.Experience == "" {
			return nil, ErrTeamMemberInvalid
		}
		if len(member.Documents) == 0 || len(member.Documents) > maxTeamMemberDocuments {
			return nil, ErrTeamMemberInvalid
		}
		documents := make([]string, 0, len(member.Documents))
		for _, doc := range member.Documents {
			doc = strings.TrimSpace(doc)
			if doc == "" {
				return nil, ErrTeamMemberInvalid
			}
			documents = append(documents, doc)
		}
		member.Documents = documents
		normalized = append(normalized, member)
	}
	return normalized, nil
}

// NormalizeSubmitProposalInput validates and canonicalizes a submission.
func NormalizeSubmitProposalInput(input SubmitProposalInput) (SubmitProposalInput, error) {
	input.SolicitationID = strings.TrimSpace(input.SolicitationID)
	if input.FinancialOffer < 0 {
		return SubmitProposalInput{}, ErrOfferNegative
	}
	team, err := normalizeTeam(input.Team)
	if err != nil {
		return SubmitProposalInput{}, err
	}
	input.Team = team
	if !input.DeclarationAccepted {
		return SubmitProposalInput{}, ErrDeclarationRequired
	}
	return input, nil
}

// CreateProposal builds a proposal with identity and timestamps.
func CreateProposal(input SubmitProposalInput, bidderID string, now func() time.Time, idGenerator func() (string, error)) (Proposal, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeSubmitProposalInput(input)
	if err != nil {
		return Proposal{}, err
	}

	proposalID, err := idGenerator()
	if err != nil {
		return Proposal{}, fmt.Errorf("generate proposal id: %w", err)
	}

	createdAt := now().UTC()
	return Proposal{
		ID:                  proposalID,
		SolicitationID:      normalized.SolicitationID,
		BidderID:            strings.TrimSpace(bidderID),
		FinancialOffer:      normalized.FinancialOffer,
		Team:                normalized.Team,
		DeclarationAccepted: normalized.DeclarationAccepted,
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
	}, nil
}

// UpdateProposalInput patches bidder-authored fields; nil leaves a field unchanged.
type UpdateProposalInput struct {
	FinancialOffer      *float64
	Team                []TeamMember // nil means unchanged
	DeclarationAccepted *bool
}

// ApplyUpdate returns a copy with the patch applied and changed fields
// re-validated. The assessment field is never touched here.
func (p Proposal) ApplyUpdate(patch UpdateProposalInput, now time.Time) (Proposal, error) {
	next := p
	if patch.FinancialOffer != nil {
		if *patch.FinancialOffer < 0 {
			return Proposal{}, ErrOfferNegative
		}
		next.FinancialOffer = *patch.FinancialOffer
	}
	if patch.Team != nil {
		team, err := normalizeTeam(patch.Team)
		if err != nil {
			return Proposal{}, err
		}
		next.Team = team
	}
	if patch.DeclarationAccepted != nil {
		if !*patch.DeclarationAccepted {
			return Proposal{}, ErrDeclarationRequired
		}
		next.DeclarationAccepted = *patch.DeclarationAccepted
	}
	next.UpdatedAt = now.UTC()
	return next, nil
}
