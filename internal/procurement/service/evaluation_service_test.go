package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearbid/tenderspace/internal/fanout"
	"github.com/clearbid/tenderspace/internal/procurement/domain"
)

func newEvaluationService(store *fakeStore, events Publisher, now time.Time) *EvaluationService {
	service := NewEvaluationService(store.stores(), events)
	service.clock = fixedClock(now)
	service.idGenerator = sequentialIDs("score")
	return service
}

func validScoreInput(proposalID string) domain.ScoreInput {
	technical := 44.0
	financial := 38.0
	return domain.ScoreInput{
		ProposalID:        proposalID,
		CompositeScore:    82,
		TechnicalSubscore: &technical,
		FinancialSubscore: &financial,
		Comments:          "Strong technical plan",
	}
}

// seedClosedProposal creates a solicitation, submits one proposal, and closes
// the solicitation, returning the proposal.
func seedClosedProposal(t *testing.T, store *fakeStore) domain.Proposal {
	t.Helper()

	solicitation := seedOpenSolicitation(t, store)
	proposals := newProposalService(store, nil, testNow)
	proposal, err := proposals.Submit(context.Background(), bidder, validProposalInput(solicitation.ID))
	if err != nil {
		t.Fatalf("seed proposal: %v", err)
	}
	closeSolicitation(t, store, solicitation.ID)
	return proposal
}

func TestScoreRequiresEvaluator(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	proposal := seedClosedProposal(t, store)
	service := newEvaluationService(store, nil, testNow)

	_, err := service.Score(context.Background(), bidder, validScoreInput(proposal.ID))
	if !errors.Is(err, domain.ErrActorRoleDenied) {
		t.Fatalf("error = %v, want %v", err, domain.ErrActorRoleDenied)
	}
}

func TestScoreRejectedWhileOpen(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	solicitation := seedOpenSolicitation(t, store)
	proposals := newProposalService(store, nil, testNow)
	proposal, err := proposals.Submit(context.Background(), bidder, validProposalInput(solicitation.ID))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	service := newEvaluationService(store, nil, testNow)
	_, err = service.Score(context.Background(), evaluator, validScoreInput(proposal.ID))
	if !errors.Is(err, ErrSolicitationStillOpen) {
		t.Fatalf("error = %v, want %v", err, ErrSolicitationStillOpen)
	}
}

func TestScorePublishesEvent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	proposal := seedClosedProposal(t, store)
	events := &capturePublisher{}
	service := newEvaluationService(store, events, testNow)

	record, err := service.Score(context.Background(), evaluator, validScoreInput(proposal.ID))
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if record.EvaluatorID != evaluator.ID {
		t.Fatalf("evaluator_id = %q, want %q", record.EvaluatorID, evaluator.ID)
	}

	published := events.published()
	if len(published) != 1 {
		t.Fatalf("events = %d, want 1", len(published))
	}
	if published[0].Action != fanout.ActionCreate || published[0].EntityType != fanout.EntityScore {
		t.Fatalf("event = %+v, want score create", published[0])
	}
}

func TestScoreSecondEvaluatorConflicts(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	proposal := seedClosedProposal(t, store)
	service := newEvaluationService(store, nil, testNow)

	if _, err := service.Score(context.Background(), evaluator, validScoreInput(proposal.ID)); err != nil {
		t.Fatalf("first score: %v", err)
	}
	_, err := service.Score(context.Background(), otherEvaluator, validScoreInput(proposal.ID))
	if !errors.Is(err, ErrScoreDuplicate) {
		t.Fatalf("second score error = %v, want %v", err, ErrScoreDuplicate)
	}
}

func TestScoreValidatesRanges(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	proposal := seedClosedProposal(t, store)
	service := newEvaluationService(store, nil, testNow)

	input := validScoreInput(proposal.ID)
	input.CompositeScore = 101
	if _, err := service.Score(context.Background(), evaluator, input); !errors.Is(err, domain.ErrCompositeOutOfRange) {
		t.Fatalf("composite error = %v, want %v", err, domain.ErrCompositeOutOfRange)
	}

	input = validScoreInput(proposal.ID)
	bad := 50.5
	input.TechnicalSubscore = &bad
	if _, err := service.Score(context.Background(), evaluator, input); !errors.Is(err, domain.ErrSubscoreOutOfRange) {
		t.Fatalf("subscore error = %v, want %v", err, domain.ErrSubscoreOutOfRange)
	}
}

func TestUpdateScoreOwnershipEnforced(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	proposal := seedClosedProposal(t, store)
	service := newEvaluationService(store, nil, testNow)

	record, err := service.Score(context.Background(), evaluator, validScoreInput(proposal.ID))
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	composite := 50.0
	_, err = service.Update(context.Background(), otherEvaluator, record.ID, domain.UpdateScoreInput{CompositeScore: &composite})
	if !errors.Is(err, ErrScoreNotOwned) {
		t.Fatalf("error = %v, want %v", err, ErrScoreNotOwned)
	}

	updated, err := service.Update(context.Background(), evaluator, record.ID, domain.UpdateScoreInput{CompositeScore: &composite})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.CompositeScore != composite {
		t.Fatalf("composite = %v, want %v", updated.CompositeScore, composite)
	}
}

func TestDeleteScoreOwnershipEnforced(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	proposal := seedClosedProposal(t, store)
	service := newEvaluationService(store, nil, testNow)

	record, err := service.Score(context.Background(), evaluator, validScoreInput(proposal.ID))
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if err := service.Delete(context.Background(), otherEvaluator, record.ID); !errors.Is(err, ErrScoreNotOwned) {
		t.Fatalf("error = %v, want %v", err, ErrScoreNotOwned)
	}
	if err := service.Delete(context.Background(), evaluator, record.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := service.Get(context.Background(), evaluator, record.ID); !errors.Is(err, ErrScoreNotFound) {
		t.Fatalf("get after delete error = %v, want %v", err, ErrScoreNotFound)
	}
}

func TestRankOrdersByCompositeThenSubmission(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	solicitation := seedOpenSolicitation(t, store)

	// Three bidders submit at successive instants.
	bidders := []domain.Actor{
		{ID: "bidder-a", Role: domain.RoleBidder},
		{ID: "bidder-b", Role: domain.RoleBidder},
		{ID: "bidder-c", Role: domain.RoleBidder},
	}
	proposalIDs := make([]string, 0, len(bidders))
	for i, b := range bidders {
		proposals := newProposalService(store, nil, testNow.Add(time.Duration(i)*time.Minute))
		proposals.idGenerator = sequentialIDs("prop-" + b.ID)
		proposal, err := proposals.Submit(context.Background(), b, validProposalInput(solicitation.ID))
		if err != nil {
			t.Fatalf("submit for %s: %v", b.ID, err)
		}
		proposalIDs = append(proposalIDs, proposal.ID)
	}
	closeSolicitation(t, store, solicitation.ID)

	service := newEvaluationService(store, nil, testNow)
	composites := []float64{70, 90, 70}
	for i, proposalID := range proposalIDs {
		input := validScoreInput(proposalID)
		input.CompositeScore = composites[i]
		if _, err := service.Score(context.Background(), evaluator, input); err != nil {
			t.Fatalf("score %s: %v", proposalID, err)
		}
	}

	ranked, err := service.Rank(context.Background(), evaluator, solicitation.ID)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	// bidder-b leads on composite; the 70-70 tie resolves by submission time.
	want := []string{proposalIDs[1], proposalIDs[0], proposalIDs[2]}
	if len(ranked) != len(want) {
		t.Fatalf("ranked = %d, want %d", len(ranked), len(want))
	}
	for i, proposalID := range want {
		if ranked[i].Score.ProposalID != proposalID {
			t.Fatalf("ranked[%d] = %q, want %q", i, ranked[i].Score.ProposalID, proposalID)
		}
	}
}

func TestRankRejectedWhileOpen(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	solicitation := seedOpenSolicitation(t, store)
	service := newEvaluationService(store, nil, testNow)

	_, err := service.Rank(context.Background(), evaluator, solicitation.ID)
	if !errors.Is(err, ErrSolicitationStillOpen) {
		t.Fatalf("error = %v, want %v", err, ErrSolicitationStillOpen)
	}
}

func TestGetByProposalMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	proposal := seedClosedProposal(t, store)
	service := newEvaluationService(store, nil, testNow)

	_, err := service.GetByProposal(context.Background(), evaluator, proposal.ID)
	if !errors.Is(err, ErrScoreNotFound) {
		t.Fatalf("error = %v, want %v", err, ErrScoreNotFound)
	}
}
