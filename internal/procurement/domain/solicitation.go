package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
	"github.com/clearbid/tenderspace/internal/platform/id"
)

// SolicitationStatus is the lifecycle state of a solicitation.
type SolicitationStatus string

const (
	// StatusOpen accepts proposals until the deadline.
	StatusOpen SolicitationStatus = "open"
	// StatusClosed is terminal; the requirement text is frozen for evaluation.
	StatusClosed SolicitationStatus = "closed"
)

const defaultCurrency = "USD"

var (
	// ErrTitleEmpty indicates a missing solicitation title.
	ErrTitleEmpty = apperrors.New(apperrors.CodeSolicitationTitleEmpty, "solicitation title is required")
	// ErrRequirementsEmpty indicates missing requirement text.
	ErrRequirementsEmpty = apperrors.New(apperrors.CodeSolicitationRequirementsEmpty, "solicitation requirements are required")
	// ErrDeadlineInvalid indicates an unparseable deadline.
	ErrDeadlineInvalid = apperrors.New(apperrors.CodeSolicitationDeadlineInvalid, "solicitation deadline is not a valid RFC 3339 timestamp")
	// ErrDeadlineInPast indicates a deadline at or before creation time.
	ErrDeadlineInPast = apperrors.New(apperrors.CodeSolicitationDeadlineInPast, "solicitation deadline must be in the future")
)

// Solicitation is a time-boxed request for competing proposals.
type Solicitation struct {
	ID           string
	Title        string
	Description  string
	Requirements string
	Deadline     time.Time
	Currency     string
	Status       SolicitationStatus
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Open reports whether the solicitation still accepts proposal mutations.
func (s Solicitation) Open() bool {
	return s.Status == StatusOpen
}

// DeadlinePassed reports whether now is past the submission deadline.
func (s Solicitation) DeadlinePassed(now time.Time) bool {
	return now.After(s.Deadline)
}

// CreateSolicitationInput describes the fields needed to open a solicitation.
type CreateSolicitationInput struct {
	Title        string
	Description  string
	Requirements string
	Deadline     string // RFC 3339
	Currency     string
}

// NormalizedSolicitationInput is a validated create input with a parsed deadline.
type NormalizedSolicitationInput struct {
	Title        string
	Description  string
	Requirements string
	Deadline     time.Time
	Currency     string
}

// NormalizeCreateSolicitationInput trims and validates solicitation input.
func NormalizeCreateSolicitationInput(input CreateSolicitationInput, now time.Time) (NormalizedSolicitationInput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return NormalizedSolicitationInput{}, ErrTitleEmpty
	}
	requirements := strings.TrimSpace(input.Requirements)
	if requirements == "" {
		return NormalizedSolicitationInput{}, ErrRequirementsEmpty
	}

	deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(input.Deadline))
	if err != nil {
		return NormalizedSolicitationInput{}, ErrDeadlineInvalid
	}
	deadline = deadline.UTC()
	if !deadline.After(now) {
		return NormalizedSolicitationInput{}, ErrDeadlineInPast
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	return NormalizedSolicitationInput{
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Requirements: requirements,
		Deadline:     deadline,
		Currency:     currency,
	}, nil
}

// CreateSolicitation builds an open solicitation with identity and timestamps.
func CreateSolicitation(input CreateSolicitationInput, createdBy string, now func() time.Time, idGenerator func() (string, error)) (Solicitation, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	createdAt := now().UTC()
	normalized, err := NormalizeCreateSolicitationInput(input, createdAt)
	if err != nil {
		return Solicitation{}, err
	}

	solicitationID, err := idGenerator()
	if err != nil {
		return Solicitation{}, fmt.Errorf("generate solicitation id: %w", err)
	}

	return Solicitation{
		ID:           solicitationID,
		Title:        normalized.Title,
		Description:  normalized.Description,
		Requirements: normalized.Requirements,
		Deadline:     normalized.Deadline,
		Currency:     normalized.Currency,
		Status:       StatusOpen,
		CreatedBy:    strings.TrimSpace(createdBy),
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// UpdateSolicitationInput patches mutable fields; nil pointers leave a field unchanged.
type UpdateSolicitationInput struct {
	Title        *string
	Description  *string
	Requirements *string
	Deadline     *string // RFC 3339
	Currency     *string
}

// ApplyUpdate returns a copy of the solicitation with the patch applied and
// re-validated. Lifecycle state is not checked here; callers guard that the
// solicitation is still open.
func (s Solicitation) ApplyUpdate(patch UpdateSolicitationInput, now time.Time) (Solicitation, error) {
	next := s
	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
		if next.Title == "" {
			return Solicitation{}, ErrTitleEmpty
		}
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Requirements != nil {
		next.Requirements = strings.TrimSpace(*patch.Requirements)
		if next.Requirements == "" {
			return Solicitation{}, ErrRequirementsEmpty
		}
	}
	if patch.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(*patch.Deadline))
		if err != nil {
			return Solicitation{}, ErrDeadlineInvalid
		}
		deadline = deadline.UTC()
		if !deadline.After(now) {
			return Solicitation{}, ErrDeadlineInPast
		}
		next.Deadline = deadline
	}
	if patch.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*patch.Currency))
		if currency == "" {
			currency = defaultCurrency
		}
		next.Currency = currency
	}
	next.UpdatedAt = now.UTC()
	return next, nil
}
