package service

import (
	"time"

	"github.com/clearbid/tenderspace/internal/procurement/domain"
)

// Event payloads carry identifying fields plus the mutated state; they are
// notifications, not authoritative reads.

type solicitationEventData struct {
	ID       string                    `json:"id"`
	Title    string                    `json:"title"`
	Status   domain.SolicitationStatus `json:"status"`
	Deadline time.Time                 `json:"deadline"`
	Currency string                    `json:"currency"`
}

func solicitationEvent(s domain.Solicitation) solicitationEventData {
	return solicitationEventData{
		ID:       s.ID,
		Title:    s.Title,
		Status:   s.Status,
		Deadline: s.Deadline,
		Currency: s.Currency,
	}
}

type proposalEventData struct {
	ID             string  `json:"id"`
	SolicitationID string  `json:"solicitation_id"`
	BidderID       string  `json:"bidder_id"`
	FinancialOffer float64 `json:"financial_offer"`
}

func proposalEvent(p domain.Proposal) proposalEventData {
	return proposalEventData{
		ID:             p.ID,
		SolicitationID: p.SolicitationID,
		BidderID:       p.BidderID,
		FinancialOffer: p.FinancialOffer,
	}
}

type scoreEventData struct {
	ID             string  `json:"id"`
	ProposalID     string  `json:"proposal_id"`
	SolicitationID string  `json:"solicitation_id"`
	EvaluatorID    string  `json:"evaluator_id"`
	CompositeScore float64 `json:"composite_score"`
}

func scoreEvent(record domain.ScoreRecord, solicitationID string) scoreEventData {
	return scoreEventData{
		ID:             record.ID,
		ProposalID:     record.ProposalID,
		SolicitationID: solicitationID,
		EvaluatorID:    record.EvaluatorID,
		CompositeScore: record.CompositeScore,
	}
}
