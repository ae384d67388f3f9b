package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
	"github.com/clearbid/tenderspace/internal/platform/id"
)

const (
	maxCompositeScore = 100
	maxSubscore       = 50
)

var (
	// ErrCompositeOutOfRange indicates a composite score outside [0,100].
	ErrCompositeOutOfRange = apperrors.New(apperrors.CodeScoreCompositeOutOfRange, "composite score must be between 0 and 100")
	// ErrSubscoreOutOfRange indicates a subscore outside [0,50].
	ErrSubscoreOutOfRange = apperrors.New(apperrors.CodeScoreSubscoreOutOfRange, "subscores must be between 0 and 50")
)

// ScoreRecord is one evaluator's judgment of a proposal.
type ScoreRecord struct {
	ID                string
	ProposalID        string
	EvaluatorID       string
	CompositeScore    float64
	TechnicalSubscore *float64
	FinancialSubscore *float64
	Comments          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ScoreInput describes a new score submission.
type ScoreInput struct {
	ProposalID        string
	CompositeScore    float64
	TechnicalSubscore *float64
	FinancialSubscore *float64
	Comments          string
}

// NormalizeScoreInput validates score ranges.
func NormalizeScoreInput(input ScoreInput) (ScoreInput, error) {
	input.ProposalID = strings.TrimSpace(input.ProposalID)
	if input.CompositeScore < 0 || input.CompositeScore > maxCompositeScore {
		return ScoreInput{}, ErrCompositeOutOfRange
	}
	for _, subscore := range []*float64{input.TechnicalSubscore, input.FinancialSubscore} {
		if subscore == nil {
			continue
		}
		if *subscore < 0 || *subscore > maxSubscore {
			return ScoreInput{}, ErrSubscoreOutOfRange
		}
	}
	input.Comments = strings.TrimSpace(input.Comments)
	return input, nil
}

// CreateScoreRecord builds a score record with identity and timestamps.
func CreateScoreRecord(input ScoreInput, evaluatorID string, now func() time.Time, idGenerator func() (string, error)) (ScoreRecord, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeScoreInput(input)
	if err != nil {
		return ScoreRecord{}, err
	}

	scoreID, err := idGenerator()
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("generate score id: %w", err)
	}

	createdAt := now().UTC()
	return ScoreRecord{
		ID:                scoreID,
		ProposalID:        normalized.ProposalID,
		EvaluatorID:       strings.TrimSpace(evaluatorID),
		CompositeScore:    normalized.CompositeScore,
		TechnicalSubscore: normalized.TechnicalSubscore,
		FinancialSubscore: normalized.FinancialSubscore,
		Comments:          normalized.Comments,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}, nil
}

// UpdateScoreInput patches an existing score; nil leaves a field unchanged.
type UpdateScoreInput struct {
	CompositeScore    *float64
	TechnicalSubscore *float64
	FinancialSubscore *float64
	Comments          *string
}

// ApplyUpdate returns a copy with the patch applied and ranges re-validated.
func (r ScoreRecord) ApplyUpdate(patch UpdateScoreInput, now time.Time) (ScoreRecord, error) {
	next := r
	if patch.CompositeScore != nil {
		if *patch.CompositeScore < 0 || *patch.CompositeScore > maxCompositeScore {
			return ScoreRecord{}, ErrCompositeOutOfRange
		}
		next.CompositeScore = *patch.CompositeScore
	}
	if patch.TechnicalSubscore != nil {
		if *patch.TechnicalSubscore < 0 || *patch.TechnicalSubscore > maxSubscore {
			return ScoreRecord{}, ErrSubscoreOutOfRange
		}
		next.TechnicalSubscore = patch.TechnicalSubscore
	}
	if patch.FinancialSubscore != nil {
		if *patch.FinancialSubscore < 0 || *patch.FinancialSubscore > maxSubscore {
			return ScoreRecord{}, ErrSubscoreOutOfRange
		}
		next.FinancialSubscore = patch.FinancialSubscore
	}
	if patch.Comments != nil {
		next.Comments = strings.TrimSpace(*patch.Comments)
	}
	next.UpdatedAt = now.UTC()
	return next, nil
}
