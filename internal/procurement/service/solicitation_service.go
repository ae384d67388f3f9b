package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clearbid/tenderspace/internal/fanout"
	"github.com/clearbid/tenderspace/internal/platform/id"
	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/storage"
)

const (
	defaultSearchPageSize = 20
	maxSearchPageSize     = 100
)

// SolicitationService manages the solicitation lifecycle.
type SolicitationService struct {
	stores      Stores
	events      Publisher
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewSolicitationService creates a SolicitationService with default dependencies.
func NewSolicitationService(stores Stores, events Publisher) *SolicitationService {
	return &SolicitationService{
		stores:      stores,
		events:      events,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// Create opens a new solicitation. Evaluator role required.
func (s *SolicitationService) Create(ctx context.Context, actor domain.Actor, input domain.CreateSolicitationInput) (domain.Solicitation, error) {
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		return domain.Solicitation{}, err
	}

	solicitation, err := domain.CreateSolicitation(input, actor.ID, s.clock, s.idGenerator)
	if err != nil {
		return domain.Solicitation{}, err
	}
	if err := s.stores.Solicitations.CreateSolicitation(ctx, solicitation); err != nil {
		return domain.Solicitation{}, fmt.Errorf("create solicitation: %w", err)
	}

	publish(s.events,
		fanout.Event{Action: fanout.ActionCreate, EntityType: fanout.EntitySolicitation, Data: solicitationEvent(solicitation)},
		fanout.SolicitationTopics(solicitation.ID)...,
	)
	return solicitation, nil
}

// Get loads one solicitation. Any authenticated actor may read it.
func (s *SolicitationService) Get(ctx context.Context, actor domain.Actor, solicitationID string) (domain.Solicitation, error) {
	if err := actor.Validate(); err != nil {
		return domain.Solicitation{}, err
	}

	solicitation, err := s.stores.Solicitations.GetSolicitation(ctx, solicitationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Solicitation{}, ErrSolicitationNotFound
		}
		return domain.Solicitation{}, fmt.Errorf("get solicitation: %w", err)
	}
	return solicitation, nil
}

// Update patches mutable fields while the solicitation is open. Evaluator
// role required. A concurrent close loses nothing: the store re-checks the
// open state at commit time.
func (s *SolicitationService) Update(ctx context.Context, actor domain.Actor, solicitationID string, patch domain.UpdateSolicitationInput) (domain.Solicitation, error) {
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		return domain.Solicitation{}, err
	}

	solicitation, err := s.Get(ctx, actor, solicitationID)
	if err != nil {
		return domain.Solicitation{}, err
	}
	if !solicitation.Open() {
		return domain.Solicitation{}, ErrSolicitationClosed
	}

	updated, err := solicitation.ApplyUpdate(patch, s.clock())
	if err != nil {
		return domain.Solicitation{}, err
	}
	if err := s.stores.Solicitations.UpdateSolicitation(ctx, updated); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return domain.Solicitation{}, ErrSolicitationNotFound
		case errors.Is(err, storage.ErrSolicitationNotOpen):
			return domain.Solicitation{}, ErrSolicitationClosed
		}
		return domain.Solicitation{}, fmt.Errorf("update solicitation: %w", err)
	}

	publish(s.events,
		fanout.Event{Action: fanout.ActionUpdate, EntityType: fanout.EntitySolicitation, Data: solicitationEvent(updated)},
		fanout.SolicitationTopics(updated.ID)...,
	)
	return updated, nil
}

// Close transitions the solicitation open→closed. The transition is terminal;
// closing twice fails. Evaluator role required.
func (s *SolicitationService) Close(ctx context.Context, actor domain.Actor, solicitationID string) (domain.Solicitation, error) {
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		return domain.Solicitation{}, err
	}

	closedAt := s.clock().UTC()
	if err := s.stores.Solicitations.CloseSolicitation(ctx, solicitationID, closedAt); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return domain.Solicitation{}, ErrSolicitationNotFound
		case errors.Is(err, storage.ErrSolicitationNotOpen):
			return domain.Solicitation{}, ErrSolicitationAlreadyClosed
		}
		return domain.Solicitation{}, fmt.Errorf("close solicitation: %w", err)
	}

	solicitation, err := s.Get(ctx, actor, solicitationID)
	if err != nil {
		return domain.Solicitation{}, err
	}

	publish(s.events,
		fanout.Event{Action: fanout.ActionUpdate, EntityType: fanout.EntitySolicitation, Data: solicitationEvent(solicitation)},
		fanout.SolicitationTopics(solicitation.ID)...,
	)
	return solicitation, nil
}

// Delete removes a solicitation with no proposals. Evaluator role required.
func (s *SolicitationService) Delete(ctx context.Context, actor domain.Actor, solicitationID string) error {
	if err := actor.RequireRole(domain.RoleEvaluator); err != nil {
		return err
	}

	solicitationID = strings.TrimSpace(solicitationID)
	if err := s.stores.Solicitations.DeleteSolicitation(ctx, solicitationID); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return ErrSolicitationNotFound
		case errors.Is(err, storage.ErrHasProposals):
			return ErrSolicitationHasProposals
		}
		return fmt.Errorf("delete solicitation: %w", err)
	}

	publish(s.events,
		fanout.Event{Action: fanout.ActionDelete, EntityType: fanout.EntitySolicitation, Data: solicitationEventData{ID: solicitationID}},
		fanout.SolicitationTopics(solicitationID)...,
	)
	return nil
}

// Search lists solicitations matching the query. Any authenticated actor may
// search; results are paged with an opaque cursor token.
func (s *SolicitationService) Search(ctx context.Context, actor domain.Actor, query storage.SolicitationQuery) (storage.SolicitationPage, error) {
	if err := actor.Validate(); err != nil {
		return storage.SolicitationPage{}, err
	}

	if query.PageSize <= 0 {
		query.PageSize = defaultSearchPageSize
	}
	if query.PageSize > maxSearchPageSize {
		query.PageSize = maxSearchPageSize
	}

	page, err := s.stores.Solicitations.SearchSolicitations(ctx, query)
	if err != nil {
		return storage.SolicitationPage{}, fmt.Errorf("search solicitations: %w", err)
	}
	return page, nil
}
