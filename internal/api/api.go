// Package api exposes the procurement services over a JSON HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"

	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/procurement/service"
	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
)

var errInvalidPageSize = apperrors.New(apperrors.CodeRequestInvalid, "page_size must be an integer")

// Authorizer resolves a bearer token to a canonical actor.
type Authorizer interface {
	Authenticate(ctx context.Context, token string) (domain.Actor, error)
}

// Assessor triggers an oracle fit assessment for a proposal.
type Assessor interface {
	Assess(ctx context.Context, proposalID string) (domain.Assessment, error)
}

// Config collects the handler's collaborators.
type Config struct {
	Solicitations *service.SolicitationService
	Proposals     *service.ProposalService
	Evaluations   *service.EvaluationService
	// Assessor is optional; the assess route answers 503 without it.
	Assessor   Assessor
	Authorizer Authorizer
}

// Handler serves the procurement API.
type Handler struct {
	solicitations *service.SolicitationService
	proposals     *service.ProposalService
	evaluations   *service.EvaluationService
	assessor      Assessor
	authorizer    Authorizer
}

// NewHandler builds the API router.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Solicitations == nil || cfg.Proposals == nil || cfg.Evaluations == nil {
		return nil, errors.New("solicitation, proposal, and evaluation services are required")
	}
	if cfg.Authorizer == nil {
		return nil, errors.New("authorizer is required")
	}
	h := &Handler{
		solicitations: cfg.Solicitations,
		proposals:     cfg.Proposals,
		evaluations:   cfg.Evaluations,
		assessor:      cfg.Assessor,
		authorizer:    cfg.Authorizer,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodPost+" /v1/solicitations", h.handleCreateSolicitation)
	mux.HandleFunc(http.MethodGet+" /v1/solicitations", h.handleSearchSolicitations)
	mux.HandleFunc(http.MethodGet+" /v1/solicitations/{solicitationID}", h.handleGetSolicitation)
	mux.HandleFunc(http.MethodPatch+" /v1/solicitations/{solicitationID}", h.handleUpdateSolicitation)
	mux.HandleFunc(http.MethodDelete+" /v1/solicitations/{solicitationID}", h.handleDeleteSolicitation)
	mux.HandleFunc(http.MethodPost+" /v1/solicitations/{solicitationID}/close", h.handleCloseSolicitation)
	mux.HandleFunc(http.MethodPost+" /v1/solicitations/{solicitationID}/proposals", h.handleSubmitProposal)
	mux.HandleFunc(http.MethodGet+" /v1/solicitations/{solicitationID}/proposals", h.handleListProposals)
	mux.HandleFunc(http.MethodGet+" /v1/solicitations/{solicitationID}/ranking", h.handleRanking)
	mux.HandleFunc(http.MethodGet+" /v1/proposals", h.handleListMyProposals)
	mux.HandleFunc(http.MethodGet+" /v1/proposals/{proposalID}", h.handleGetProposal)
	mux.HandleFunc(http.MethodPatch+" /v1/proposals/{proposalID}", h.handleUpdateProposal)
	mux.HandleFunc(http.MethodDelete+" /v1/proposals/{proposalID}", h.handleDeleteProposal)
	mux.HandleFunc(http.MethodPost+" /v1/proposals/{proposalID}/score", h.handleCreateScore)
	mux.HandleFunc(http.MethodGet+" /v1/proposals/{proposalID}/score", h.handleGetScoreByProposal)
	mux.HandleFunc(http.MethodPost+" /v1/proposals/{proposalID}/assess", h.handleAssessProposal)
	mux.HandleFunc(http.MethodGet+" /v1/scores/{scoreID}", h.handleGetScore)
	mux.HandleFunc(http.MethodPatch+" /v1/scores/{scoreID}", h.handleUpdateScore)
	mux.HandleFunc(http.MethodDelete+" /v1/scores/{scoreID}", h.handleDeleteScore)
	return mux, nil
}

// actor authenticates the request's bearer token.
func (h *Handler) actor(r *http.Request) (domain.Actor, error) {
	token := bearerToken(r)
	if token == "" {
		return domain.Actor{}, apperrors.New(apperrors.CodeTokenInvalid, "bearer token is required")
	}
	return h.authorizer.Authenticate(r.Context(), token)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func decodeBody(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return apperrors.Wrap(apperrors.CodeRequestInvalid, "invalid request body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps structured domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, errorPayload{
			Code:    string(apperrors.CodeUnknown),
			Message: "internal error",
		})
		return
	}
	writeJSON(w, httpStatus(appErr.Code), errorPayload{
		Code:    string(appErr.Code),
		Message: appErr.Message,
	})
}

// httpStatus follows the canonical gRPC-to-HTTP status mapping.
func httpStatus(code apperrors.Code) int {
	switch code.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
