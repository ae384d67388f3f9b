package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/clearbid/tenderspace/internal/fanout"
	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/storage"
)

// fakeStore is an in-memory implementation of the storage interfaces with
// the same guard semantics as the SQLite store.
type fakeStore struct {
	mu            sync.Mutex
	solicitations map[string]domain.Solicitation
	proposals     map[string]domain.Proposal
	scores        map[string]domain.ScoreRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		solicitations: make(map[string]domain.Solicitation),
		proposals:     make(map[string]domain.Proposal),
		scores:        make(map[string]domain.ScoreRecord),
	}
}

func (f *fakeStore) stores() Stores {
	return Stores{Solicitations: f, Proposals: f, Scores: f}
}

func (f *fakeStore) CreateSolicitation(_ context.Context, solicitation domain.Solicitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.solicitations[solicitation.ID]; ok {
		return storage.ErrDuplicate
	}
	f.solicitations[solicitation.ID] = solicitation
	return nil
}

func (f *fakeStore) GetSolicitation(_ context.Context, id string) (domain.Solicitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	solicitation, ok := f.solicitations[id]
	if !ok {
		return domain.Solicitation{}, storage.ErrNotFound
	}
	return solicitation, nil
}

func (f *fakeStore) UpdateSolicitation(_ context.Context, solicitation domain.Solicitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.solicitations[solicitation.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if !stored.Open() {
		return storage.ErrSolicitationNotOpen
	}
	f.solicitations[solicitation.ID] = solicitation
	return nil
}

func (f *fakeStore) CloseSolicitation(_ context.Context, id string, closedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.solicitations[id]
	if !ok {
		return storage.ErrNotFound
	}
	if !stored.Open() {
		return storage.ErrSolicitationNotOpen
	}
	stored.Status = domain.StatusClosed
	stored.UpdatedAt = closedAt.UTC()
	f.solicitations[id] = stored
	return nil
}

func (f *fakeStore) DeleteSolicitation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.solicitations[id]; !ok {
		return storage.ErrNotFound
	}
	for _, proposal := range f.proposals {
		if proposal.SolicitationID == id {
			return storage.ErrHasProposals
		}
	}
	delete(f.solicitations, id)
	return nil
}

func (f *fakeStore) SearchSolicitations(_ context.Context, query storage.SolicitationQuery) (storage.SolicitationPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var results []domain.Solicitation
	for _, solicitation := range f.solicitations {
		if query.Status != "" && solicitation.Status != query.Status {
			continue
		}
		results = append(results, solicitation)
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})
	if query.PageSize > 0 && len(results) > query.PageSize {
		results = results[:query.PageSize]
	}
	return storage.SolicitationPage{Solicitations: results}, nil
}

func (f *fakeStore) proposalParentGuard(solicitationID string, at time.Time) error {
	solicitation, ok := f.solicitations[solicitationID]
	if !ok {
		return storage.ErrNotFound
	}
	if !solicitation.Open() {
		return storage.ErrSolicitationNotOpen
	}
	if solicitation.DeadlinePassed(at) {
		return storage.ErrDeadlinePassed
	}
	return nil
}

func (f *fakeStore) CreateProposal(_ context.Context, proposal domain.Proposal, submittedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.proposalParentGuard(proposal.SolicitationID, submittedAt); err != nil {
		return err
	}
	for _, existing := range f.proposals {
		if existing.SolicitationID == proposal.SolicitationID && existing.BidderID == proposal.BidderID {
			return storage.ErrDuplicate
		}
	}
	f.proposals[proposal.ID] = proposal
	return nil
}

func (f *fakeStore) GetProposal(_ context.Context, id string) (domain.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	proposal, ok := f.proposals[id]
	if !ok {
		return domain.Proposal{}, storage.ErrNotFound
	}
	return proposal, nil
}

func (f *fakeStore) UpdateProposal(_ context.Context, proposal domain.Proposal, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.proposals[proposal.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if err := f.proposalParentGuard(stored.SolicitationID, updatedAt); err != nil {
		return err
	}
	proposal.Assessment = stored.Assessment
	f.proposals[proposal.ID] = proposal
	return nil
}

func (f *fakeStore) DeleteProposal(_ context.Context, id string, deletedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.proposals[id]
	if !ok {
		return storage.ErrNotFound
	}
	if err := f.proposalParentGuard(stored.SolicitationID, deletedAt); err != nil {
		return err
	}
	delete(f.proposals, id)
	return nil
}

func (f *fakeStore) ListProposalsByBidder(_ context.Context, bidderID string) ([]domain.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var proposals []domain.Proposal
	for _, proposal := range f.proposals {
		if proposal.BidderID == bidderID {
			proposals = append(proposals, proposal)
		}
	}
	sortProposals(proposals)
	return proposals, nil
}

func (f *fakeStore) ListProposalsBySolicitation(_ context.Context, solicitationID string) ([]domain.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var proposals []domain.Proposal
	for _, proposal := range f.proposals {
		if proposal.SolicitationID == solicitationID {
			proposals = append(proposals, proposal)
		}
	}
	sortProposals(proposals)
	return proposals, nil
}

func (f *fakeStore) SetProposalAssessment(_ context.Context, proposalID string, assessment *domain.Assessment, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.proposals[proposalID]
	if !ok {
		return storage.ErrNotFound
	}
	stored.Assessment = assessment
	stored.UpdatedAt = updatedAt.UTC()
	f.proposals[proposalID] = stored
	return nil
}

func (f *fakeStore) CreateScore(_ context.Context, record domain.ScoreRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	proposal, ok := f.proposals[record.ProposalID]
	if !ok {
		return storage.ErrNotFound
	}
	solicitation, ok := f.solicitations[proposal.SolicitationID]
	if !ok {
		return storage.ErrNotFound
	}
	if solicitation.Open() {
		return storage.ErrSolicitationNotClosed
	}
	for _, existing := range f.scores {
		if existing.ProposalID == record.ProposalID {
			return storage.ErrDuplicate
		}
	}
	f.scores[record.ID] = record
	return nil
}

func (f *fakeStore) GetScore(_ context.Context, id string) (domain.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.scores[id]
	if !ok {
		return domain.ScoreRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (f *fakeStore) GetScoreByProposal(_ context.Context, proposalID string) (domain.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.scores {
		if record.ProposalID == proposalID {
			return record, nil
		}
	}
	return domain.ScoreRecord{}, storage.ErrNotFound
}

func (f *fakeStore) UpdateScore(_ context.Context, record domain.ScoreRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scores[record.ID]; !ok {
		return storage.ErrNotFound
	}
	f.scores[record.ID] = record
	return nil
}

func (f *fakeStore) DeleteScore(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scores[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.scores, id)
	return nil
}

func (f *fakeStore) ListScoresBySolicitation(_ context.Context, solicitationID string) ([]storage.RankedScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ranked []storage.RankedScore
	for _, record := range f.scores {
		proposal, ok := f.proposals[record.ProposalID]
		if !ok || proposal.SolicitationID != solicitationID {
			continue
		}
		ranked = append(ranked, storage.RankedScore{Score: record, ProposalSubmittedAt: proposal.CreatedAt})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score.CompositeScore != ranked[j].Score.CompositeScore {
			return ranked[i].Score.CompositeScore > ranked[j].Score.CompositeScore
		}
		if !ranked[i].ProposalSubmittedAt.Equal(ranked[j].ProposalSubmittedAt) {
			return ranked[i].ProposalSubmittedAt.Before(ranked[j].ProposalSubmittedAt)
		}
		return ranked[i].Score.ProposalID < ranked[j].Score.ProposalID
	})
	return ranked, nil
}

func sortProposals(proposals []domain.Proposal) {
	sort.Slice(proposals, func(i, j int) bool {
		if !proposals[i].CreatedAt.Equal(proposals[j].CreatedAt) {
			return proposals[i].CreatedAt.Before(proposals[j].CreatedAt)
		}
		return proposals[i].ID < proposals[j].ID
	})
}

// capturePublisher records published events with their topics.
type capturePublisher struct {
	mu     sync.Mutex
	events []fanout.Event
	topics [][]string
}

func (p *capturePublisher) Publish(event fanout.Event, topics ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.topics = append(p.topics, topics)
}

func (p *capturePublisher) published() []fanout.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]fanout.Event(nil), p.events...)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sequentialIDs(prefix string) func() (string, error) {
	var n int
	return func() (string, error) {
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}
