package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/storage"
)

func (h *Handler) handleCreateSolicitation(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req createSolicitationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.solicitations.Create(r.Context(), actor, domain.CreateSolicitationInput{
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Deadline:     req.Deadline,
		Currency:     req.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSolicitationPayload(created))
}

func (h *Handler) handleGetSolicitation(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	solicitation, err := h.solicitations.Get(r.Context(), actor, r.PathValue("solicitationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSolicitationPayload(solicitation))
}

func (h *Handler) handleUpdateSolicitation(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateSolicitationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.solicitations.Update(r.Context(), actor, r.PathValue("solicitationID"), domain.UpdateSolicitationInput{
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Deadline:     req.Deadline,
		Currency:     req.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSolicitationPayload(updated))
}

func (h *Handler) handleCloseSolicitation(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	closed, err := h.solicitations.Close(r.Context(), actor, r.PathValue("solicitationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSolicitationPayload(closed))
}

func (h *Handler) handleDeleteSolicitation(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.solicitations.Delete(r.Context(), actor, r.PathValue("solicitationID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSearchSolicitations(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	query := storage.SolicitationQuery{
		Text:      r.URL.Query().Get("q"),
		Status:    domain.SolicitationStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		Filter:    r.URL.Query().Get("filter"),
		Order:     storage.SolicitationOrder(strings.TrimSpace(r.URL.Query().Get("order_by"))),
		PageToken: r.URL.Query().Get("page_token"),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, errInvalidPageSize)
			return
		}
		query.PageSize = size
	}
	page, err := h.solicitations.Search(r.Context(), actor, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSolicitationPagePayload(page))
}
