package api

import (
	"net/http"

	"github.com/clearbid/tenderspace/internal/procurement/domain"
	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
)

func (h *Handler) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req submitProposalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	proposal, err := h.proposals.Submit(r.Context(), actor, domain.SubmitProposalInput{
		SolicitationID:      r.PathValue("solicitationID"),
		FinancialOffer:      req.FinancialOffer,
		Team:                toTeamMembers(req.Team),
		DeclarationAccepted: req.DeclarationAccepted,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProposalPayload(proposal))
}

func (h *Handler) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	proposal, err := h.proposals.Get(r.Context(), actor, r.PathValue("proposalID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProposalPayload(proposal))
}

func (h *Handler) handleUpdateProposal(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateProposalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	proposal, err := h.proposals.Update(r.Context(), actor, r.PathValue("proposalID"), domain.UpdateProposalInput{
		FinancialOffer:      req.FinancialOffer,
		Team:                toTeamMembers(req.Team),
		DeclarationAccepted: req.DeclarationAccepted,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProposalPayload(proposal))
}

func (h *Handler) handleDeleteProposal(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.proposals.Delete(r.Context(), actor, r.PathValue("proposalID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListMyProposals(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	proposals, err := h.proposals.ListMine(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProposalListPayload(proposals))
}

func (h *Handler) handleListProposals(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	proposals, err := h.proposals.ListBySolicitation(r.Context(), actor, r.PathValue("solicitationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProposalListPayload(proposals))
}

func (h *Handler) handleAssessProposal(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		writeError(w, err)
		return
	}
	if h.assessor == nil {
		writeError(w, apperrors.New(apperrors.CodeOracleUnavailable, "scoring oracle is not configured"))
		return
	}
	assessment, err := h.assessor.Assess(r.Context(), r.PathValue("proposalID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}
