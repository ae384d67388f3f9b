package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/storage"
)

const scoreColumns = "id, proposal_id, evaluator_id, composite_score, technical_subscore, financial_subscore, comments, created_at, updated_at"

// CreateScore inserts a score record only while the parent solicitation is
// closed. The closed-state check joins through the proposal inside the
// statement, and the unique proposal_id index resolves racing evaluators.
func (s *Store) CreateScore(ctx context.Context, score domain.ScoreRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO scores (`+scoreColumns+`)
SELECT ?, p.id, ?, ?, ?, ?, ?, ?, ?
FROM proposals p
JOIN solicitations sol ON sol.id = p.solicitation_id
WHERE p.id = ? AND sol.status = 'closed'
`,
		score.ID,
		score.EvaluatorID,
		score.CompositeScore,
		nullFloat(score.TechnicalSubscore),
		nullFloat(score.FinancialSubscore),
		score.Comments,
		toMillis(score.CreatedAt),
		toMillis(score.UpdatedAt),
		score.ProposalID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("insert score: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert score rows affected: %w", err)
	}
	if affected == 0 {
		return s.classifyScoreParentFailure(ctx, score.ProposalID)
	}
	return nil
}

// GetScore loads one score record by ID.
func (s *Store) GetScore(ctx context.Context, id string) (domain.ScoreRecord, error) {
	return s.getScoreWhere(ctx, "id = ?", strings.TrimSpace(id))
}

// GetScoreByProposal loads the score record for a proposal, if any.
func (s *Store) GetScoreByProposal(ctx context.Context, proposalID string) (domain.ScoreRecord, error) {
	return s.getScoreWhere(ctx, "proposal_id = ?", strings.TrimSpace(proposalID))
}

func (s *Store) getScoreWhere(ctx context.Context, where string, param any) (domain.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ScoreRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.ScoreRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+scoreColumns+`
FROM scores
WHERE `+where+`
`, param)
	score, err := scanScore(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ScoreRecord{}, storage.ErrNotFound
		}
		return domain.ScoreRecord{}, fmt.Errorf("get score: %w", err)
	}
	return score, nil
}

// UpdateScore persists mutable score fields.
func (s *Store) UpdateScore(ctx context.Context, score domain.ScoreRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE scores
SET composite_score = ?, technical_subscore = ?, financial_subscore = ?, comments = ?, updated_at = ?
WHERE id = ?
`,
		score.CompositeScore,
		nullFloat(score.TechnicalSubscore),
		nullFloat(score.FinancialSubscore),
		score.Comments,
		toMillis(score.UpdatedAt),
		score.ID,
	)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update score rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteScore removes a score record.
func (s *Store) DeleteScore(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM scores WHERE id = ?", strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete score rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListScoresBySolicitation returns score records joined with each proposal's
// submission time, ordered for ranking: composite descending, then earliest
// submission, then proposal ID.
func (s *Store) ListScoresBySolicitation(ctx context.Context, solicitationID string) ([]storage.RankedScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT sc.id, sc.proposal_id, sc.evaluator_id, sc.composite_score, sc.technical_subscore, sc.financial_subscore, sc.comments, sc.created_at, sc.updated_at, p.created_at
FROM scores sc
JOIN proposals p ON p.id = sc.proposal_id
WHERE p.solicitation_id = ?
ORDER BY sc.composite_score DESC, p.created_at ASC, p.id ASC
`, strings.TrimSpace(solicitationID))
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var ranked []storage.RankedScore
	for rows.Next() {
		var (
			score       domain.ScoreRecord
			technical   sql.NullFloat64
			financial   sql.NullFloat64
			createdAt   int64
			updatedAt   int64
			submittedAt int64
		)
		if err := rows.Scan(
			&score.ID,
			&score.ProposalID,
			&score.EvaluatorID,
			&score.CompositeScore,
			&technical,
			&financial,
			&score.Comments,
			&createdAt,
			&updatedAt,
			&submittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ranked score: %w", err)
		}
		score.TechnicalSubscore = floatFromNull(technical)
		score.FinancialSubscore = floatFromNull(financial)
		score.CreatedAt = fromMillis(createdAt)
		score.UpdatedAt = fromMillis(updatedAt)
		ranked = append(ranked, storage.RankedScore{
			Score:               score,
			ProposalSubmittedAt: fromMillis(submittedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked scores: %w", err)
	}
	return ranked, nil
}

// classifyScoreParentFailure explains a zero-row conditional score insert.
func (s *Store) classifyScoreParentFailure(ctx context.Context, proposalID string) error {
	var status string
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT sol.status
FROM proposals p
JOIN solicitations sol ON sol.id = p.solicitation_id
WHERE p.id = ?
`, strings.TrimSpace(proposalID)).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify score parent failure: %w", err)
	}
	if status != string(domain.StatusClosed) {
		return storage.ErrSolicitationNotClosed
	}
	return storage.ErrNotFound
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func floatFromNull(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func scanScore(scan func(dest ...any) error) (domain.ScoreRecord, error) {
	var (
		score     domain.ScoreRecord
		technical sql.NullFloat64
		financial sql.NullFloat64
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&score.ID,
		&score.ProposalID,
		&score.EvaluatorID,
		&score.CompositeScore,
		&technical,
		&financial,
		&score.Comments,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.ScoreRecord{}, err
	}
	score.TechnicalSubscore = floatFromNull(technical)
	score.FinancialSubscore = floatFromNull(financial)
	score.CreatedAt = fromMillis(createdAt)
	score.UpdatedAt = fromMillis(updatedAt)
	return score, nil
}
