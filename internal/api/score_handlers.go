package api

import (
	"net/http"

	"github.com/clearbid/tenderspace/internal/procurement/domain"
)

func (h *Handler) handleCreateScore(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req scoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	record, err := h.evaluations.Score(r.Context(), actor, domain.ScoreInput{
		ProposalID:        r.PathValue("proposalID"),
		CompositeScore:    req.CompositeScore,
		TechnicalSubscore: req.TechnicalSubscore,
		FinancialSubscore: req.FinancialSubscore,
		Comments:          req.Comments,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScorePayload(record))
}

func (h *Handler) handleGetScore(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	record, err := h.evaluations.Get(r.Context(), actor, r.PathValue("scoreID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScorePayload(record))
}

func (h *Handler) handleGetScoreByProposal(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	record, err := h.evaluations.GetByProposal(r.Context(), actor, r.PathValue("proposalID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScorePayload(record))
}

func (h *Handler) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateScoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	record, err := h.evaluations.Update(r.Context(), actor, r.PathValue("scoreID"), domain.UpdateScoreInput{
		CompositeScore:    req.CompositeScore,
		TechnicalSubscore: req.TechnicalSubscore,
		FinancialSubscore: req.FinancialSubscore,
		Comments:          req.Comments,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScorePayload(record))
}

func (h *Handler) handleDeleteScore(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.evaluations.Delete(r.Context(), actor, r.PathValue("scoreID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRanking(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ranked, err := h.evaluations.Rank(r.Context(), actor, r.PathValue("solicitationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRankingPayload(ranked))
}
