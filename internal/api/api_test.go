package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/clearbid/tenderspace/internal/fanout"
	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/procurement/service"
	"github.com/clearbid/tenderspace/internal/storage/sqlite"
)

type staticAuthorizer map[string]domain.Actor

func (a staticAuthorizer) Authenticate(_ context.Context, token string) (domain.Actor, error) {
	actor, ok := a[token]
	if !ok {
		return domain.Actor{}, apperrors.New(apperrors.CodeTokenInvalid, "access token is invalid")
	}
	return actor, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	stores := service.Stores{Solicitations: store, Proposals: store, Scores: store}
	hub := fanout.NewHub()
	handler, err := NewHandler(Config{
		Solicitations: service.NewSolicitationService(stores, hub),
		Proposals:     service.NewProposalService(stores, hub),
		Evaluations:   service.NewEvaluationService(stores, hub),
		Authorizer: staticAuthorizer{
			"eval-token":   {ID: "eval-1", Role: domain.RoleEvaluator},
			"bidder-token": {ID: "bidder-1", Role: domain.RoleBidder},
		},
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	payload, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, payload
}

func createTestSolicitation(t *testing.T, base string) solicitationPayload {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, base+"/v1/solicitations", "eval-token", createSolicitationRequest{
		Title:        "Fleet telematics",
		Requirements: "GPS tracking for 200 vehicles",
		Deadline:     time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		Currency:     "eur",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create solicitation: status %d body %s", resp.StatusCode, body)
	}
	var created solicitationPayload
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode solicitation: %v", err)
	}
	return created
}

func submitTestProposal(t *testing.T, base, solicitationID string) proposalPayload {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/solicitations/%s/proposals", base, solicitationID), "bidder-token", submitProposalRequest{
		FinancialOffer:      48000,
		Team:                []teamMemberPayload{{Name: "Ada", Experience: "Telematics, 7y", Documents: []string{"cv.pdf"}}},
		DeclarationAccepted: true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit proposal: status %d body %s", resp.StatusCode, body)
	}
	var proposal proposalPayload
	if err := json.Unmarshal(body, &proposal); err != nil {
		t.Fatalf("decode proposal: %v", err)
	}
	return proposal
}

func TestProcurementWorkflow(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	created := createTestSolicitation(t, server.URL)
	if created.Currency != "EUR" || created.Status != "open" {
		t.Fatalf("created = %+v, want EUR/open", created)
	}

	proposal := submitTestProposal(t, server.URL, created.ID)
	if proposal.SolicitationID != created.ID || proposal.BidderID != "bidder-1" {
		t.Fatalf("proposal = %+v", proposal)
	}

	// Blind until closed: the evaluator cannot list proposals yet.
	resp, _ := doJSON(t, http.MethodGet, fmt.Sprintf("%s/v1/solicitations/%s/proposals", server.URL, created.ID), "eval-token", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("list while open: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/solicitations/%s/close", server.URL, created.ID), "eval-token", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close: status %d body %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/proposals/%s/score", server.URL, proposal.ID), "eval-token", scoreRequest{
		CompositeScore: 82,
		Comments:       "strong coverage plan",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("score: status %d body %s", resp.StatusCode, body)
	}
	var score scorePayload
	if err := json.Unmarshal(body, &score); err != nil {
		t.Fatalf("decode score: %v", err)
	}
	if score.EvaluatorID != "eval-1" || score.CompositeScore != 82 {
		t.Fatalf("score = %+v", score)
	}

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/v1/solicitations/%s/ranking", server.URL, created.ID), "eval-token", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ranking: status %d body %s", resp.StatusCode, body)
	}
	var ranking []rankedScorePayload
	if err := json.Unmarshal(body, &ranking); err != nil {
		t.Fatalf("decode ranking: %v", err)
	}
	if len(ranking) != 1 || ranking[0].Rank != 1 || ranking[0].Score.ID != score.ID {
		t.Fatalf("ranking = %+v", ranking)
	}
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/v1/solicitations", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestBidderCannotCreateSolicitation(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	resp, body := doJSON(t, http.MethodPost, server.URL+"/v1/solicitations", "bidder-token", createSolicitationRequest{
		Title:        "Side channel",
		Requirements: "n/a",
		Deadline:     time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d body %s, want %d", resp.StatusCode, body, http.StatusForbidden)
	}
}

func TestDuplicateProposalConflicts(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	created := createTestSolicitation(t, server.URL)
	submitTestProposal(t, server.URL, created.ID)

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/solicitations/%s/proposals", server.URL, created.ID), "bidder-token", submitProposalRequest{
		FinancialOffer:      52000,
		Team:                []teamMemberPayload{{Name: "Ada", Experience: "Telematics, 7y", Documents: []string{"cv.pdf"}}},
		DeclarationAccepted: true,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d body %s, want %d", resp.StatusCode, body, http.StatusConflict)
	}
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload.Code != string(apperrors.CodeProposalDuplicate) {
		t.Fatalf("code = %q, want %q", payload.Code, apperrors.CodeProposalDuplicate)
	}
}

func TestGetMissingSolicitation(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/v1/solicitations/missing", "eval-token", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestSearchFiltersByText(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	created := createTestSolicitation(t, server.URL)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/v1/solicitations?q=telematics", "bidder-token", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: status %d body %s", resp.StatusCode, body)
	}
	var page solicitationPagePayload
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Solicitations) != 1 || page.Solicitations[0].ID != created.ID {
		t.Fatalf("page = %+v", page)
	}

	resp, body = doJSON(t, http.MethodGet, server.URL+"/v1/solicitations?q=unrelated", "bidder-token", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: status %d body %s", resp.StatusCode, body)
	}
	page = solicitationPagePayload{}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Solicitations) != 0 {
		t.Fatalf("page = %+v, want empty", page)
	}
}

func TestAssessWithoutOracleUnavailable(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	created := createTestSolicitation(t, server.URL)
	proposal := submitTestProposal(t, server.URL, created.ID)

	resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/proposals/%s/assess", server.URL, proposal.ID), "eval-token", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}
