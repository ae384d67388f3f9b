package api

import (
	"time"

	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/storage"
)

// Wire payloads for the JSON surface. Domain structs stay tag-free; the
// mapping here is the only place field names are committed to the wire.

type solicitationPayload struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Requirements string    `json:"requirements"`
	Deadline     time.Time `json:"deadline"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toSolicitationPayload(s domain.Solicitation) solicitationPayload {
	return solicitationPayload{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		Requirements: s.Requirements,
		Deadline:     s.Deadline,
		Currency:     s.Currency,
		Status:       string(s.Status),
		CreatedBy:    s.CreatedBy,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

type solicitationPagePayload struct {
	Solicitations []solicitationPayload `json:"solicitations"`
	NextPageToken string                `json:"next_page_token,omitempty"`
}

func toSolicitationPagePayload(page storage.SolicitationPage) solicitationPagePayload {
	out := solicitationPagePayload{
		Solicitations: make([]solicitationPayload, 0, len(page.Solicitations)),
		NextPageToken: page.NextPageToken,
	}
	for _, s := range page.Solicitations {
		out.Solicitations = append(out.Solicitations, toSolicitationPayload(s))
	}
	return out
}

type teamMemberPayload struct {
	Name       string   `json:"name"`
	Experience string   `json:"experience"`
	Documents  []string `json:"documents"`
}

type proposalPayload struct {
	ID                  string              `json:"id"`
	SolicitationID      string              `json:"solicitation_id"`
	BidderID            string              `json:"bidder_id"`
	FinancialOffer      float64             `json:"financial_offer"`
	Team                []teamMemberPayload `json:"team"`
	DeclarationAccepted bool                `json:"declaration_accepted"`
	Assessment          *domain.Assessment  `json:"assessment,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func toProposalPayload(p domain.Proposal) proposalPayload {
	team := make([]teamMemberPayload, 0, len(p.Team))
	for _, member := range p.Team {
		team = append(team, teamMemberPayload{
			Name:       member.Name,
			Experience: member.Experience,
			Documents:  member.Documents,
		})
	}
	return proposalPayload{
		ID:                  p.ID,
		SolicitationID:      p.SolicitationID,
		BidderID:            p.BidderID,
		FinancialOffer:      p.FinancialOffer,
		Team:                team,
		DeclarationAccepted: p.DeclarationAccepted,
		Assessment:          p.Assessment,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func toProposalListPayload(proposals []domain.Proposal) []proposalPayload {
	out := make([]proposalPayload, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, toProposalPayload(p))
	}
	return out
}

type scorePayload struct {
	ID                string    `json:"id"`
	ProposalID        string    `json:"proposal_id"`
	EvaluatorID       string    `json:"evaluator_id"`
	CompositeScore    float64   `json:"composite_score"`
	TechnicalSubscore *float64  `json:"technical_subscore,omitempty"`
	FinancialSubscore *float64  `json:"financial_subscore,omitempty"`
	Comments          string    `json:"comments,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toScorePayload(record domain.ScoreRecord) scorePayload {
	return scorePayload{
		ID:                record.ID,
		ProposalID:        record.ProposalID,
		EvaluatorID:       record.EvaluatorID,
		CompositeScore:    record.CompositeScore,
		TechnicalSubscore: record.TechnicalSubscore,
		FinancialSubscore: record.FinancialSubscore,
		Comments:          record.Comments,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}

type rankedScorePayload struct {
	Rank                int          `json:"rank"`
	Score               scorePayload `json:"score"`
	ProposalSubmittedAt time.Time    `json:"proposal_submitted_at"`
}

func toRankingPayload(ranked []storage.RankedScore) []rankedScorePayload {
	out := make([]rankedScorePayload, 0, len(ranked))
	for i, entry := range ranked {
		out = append(out, rankedScorePayload{
			Rank:                i + 1,
			Score:               toScorePayload(entry.Score),
			ProposalSubmittedAt: entry.ProposalSubmittedAt,
		})
	}
	return out
}

type createSolicitationRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Deadline     string `json:"deadline"`
	Currency     string `json:"currency"`
}

type updateSolicitationRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Requirements *string `json:"requirements"`
	Deadline     *string `json:"deadline"`
	Currency     *string `json:"currency"`
}

type submitProposalRequest struct {
	FinancialOffer      float64             `json:"financial_offer"`
	Team                []teamMemberPayload `json:"team"`
	DeclarationAccepted bool                `json:"declaration_accepted"`
}

type updateProposalRequest struct {
	FinancialOffer      *float64            `json:"financial_offer"`
	Team                []teamMemberPayload `json:"team"`
	DeclarationAccepted *bool               `json:"declaration_accepted"`
}

type scoreRequest struct {
	CompositeScore    float64  `json:"composite_score"`
	TechnicalSubscore *float64 `json:"technical_subscore"`
	FinancialSubscore *float64 `json:"financial_subscore"`
	Comments          string   `json:"comments"`
}

type updateScoreRequest struct {
	CompositeScore    *float64 `json:"composite_score"`
	TechnicalSubscore *float64 `json:"technical_subscore"`
	FinancialSubscore *float64 `json:"financial_subscore"`
	Comments          *string  `json:"comments"`
}

func toTeamMembers(team []teamMemberPayload) []domain.TeamMember {
	if team == nil {
		return nil
	}
	out := make([]domain.TeamMember, 0, len(team))
	for _, member := range team {
		out = append(out, domain.TeamMember{
			Name:       member.Name,
			Experience: member.Experience,
			Documents:  member.Documents,
		})
	}
	return out
}
