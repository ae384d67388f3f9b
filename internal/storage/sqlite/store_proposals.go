package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"github.com/clearbid/tenderspace/internal/storage"
)

const proposalColumns = "id, solicitation_id, bidder_id, financial_offer, team_json, declaration_accepted, assessment_json, created_at, updated_at"

// CreateProposal inserts a proposal with the parent guard and the uniqueness
// constraint resolved in one statement. The INSERT..SELECT commits only if
// the parent row is open and its deadline has not elapsed, so a submit that
// raced a close (or the clock) fails here regardless of what the service's
// guard read observed.
func (s *Store) CreateProposal(ctx context.Context, proposal domain.Proposal, submittedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	teamJSON, err := marshalTeam(proposal.Team)
	if err != nil {
		return err
	}
	assessmentJSON, err := marshalAssessment(proposal.Assessment)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO proposals (`+proposalColumns+`)
SELECT ?, s.id, ?, ?, ?, ?, ?, ?, ?
FROM solicitations s
WHERE s.id = ? AND s.status = 'open' AND s.deadline >= ?
`,
		proposal.ID,
		proposal.BidderID,
		proposal.FinancialOffer,
		teamJSON,
		proposal.DeclarationAccepted,
		assessmentJSON,
		toMillis(proposal.CreatedAt),
		toMillis(proposal.UpdatedAt),
		proposal.SolicitationID,
		toMillis(submittedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("insert proposal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert proposal rows affected: %w", err)
	}
	if affected == 0 {
		return s.classifyProposalParentFailure(ctx, proposal.SolicitationID, submittedAt)
	}
	return nil
}

// GetProposal loads one proposal by ID.
func (s *Store) GetProposal(ctx context.Context, id string) (domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Proposal{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Proposal{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+proposalColumns+`
FROM proposals
WHERE id = ?
`, strings.TrimSpace(id))
	proposal, err := scanProposal(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Proposal{}, storage.ErrNotFound
		}
		return domain.Proposal{}, fmt.Errorf("get proposal: %w", err)
	}
	return proposal, nil
}

// UpdateProposal persists bidder-authored fields under the parent guard.
// The assessment column is deliberately not part of this statement.
func (s *Store) UpdateProposal(ctx context.Context, proposal domain.Proposal, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	teamJSON, err := marshalTeam(proposal.Team)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE proposals
SET financial_offer = ?, team_json = ?, declaration_accepted = ?, updated_at = ?
WHERE id = ?
  AND EXISTS (
    SELECT 1 FROM solicitations s
    WHERE s.id = proposals.solicitation_id AND s.status = 'open' AND s.deadline >= ?
  )
`,
		proposal.FinancialOffer,
		teamJSON,
		proposal.DeclarationAccepted,
		toMillis(proposal.UpdatedAt),
		proposal.ID,
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update proposal rows affected: %w", err)
	}
	if affected == 0 {
		return s.classifyProposalWriteFailure(ctx, proposal.ID, updatedAt)
	}
	return nil
}

// DeleteProposal removes a proposal under the same parent guard as updates.
func (s *Store) DeleteProposal(ctx context.Context, id string, deletedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	id = strings.TrimSpace(id)
	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM proposals
WHERE id = ?
  AND EXISTS (
    SELECT 1 FROM solicitations s
    WHERE s.id = proposals.solicitation_id AND s.status = 'open' AND s.deadline >= ?
  )
`, id, toMillis(deletedAt))
	if err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete proposal rows affected: %w", err)
	}
	if affected == 0 {
		return s.classifyProposalWriteFailure(ctx, id, deletedAt)
	}
	return nil
}

// ListProposalsByBidder lists a bidder's own proposals, newest first.
func (s *Store) ListProposalsByBidder(ctx context.Context, bidderID string) ([]domain.Proposal, error) {
	return s.listProposals(ctx, "bidder_id = ?", strings.TrimSpace(bidderID))
}

// ListProposalsBySolicitation lists all proposals for a solicitation in
// submission order. Callers enforce the blind-evaluation visibility rule.
func (s *Store) ListProposalsBySolicitation(ctx context.Context, solicitationID string) ([]domain.Proposal, error) {
	return s.listProposals(ctx, "solicitation_id = ?", strings.TrimSpace(solicitationID))
}

func (s *Store) listProposals(ctx context.Context, where string, param any) ([]domain.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+proposalColumns+`
FROM proposals
WHERE `+where+`
ORDER BY created_at ASC, id ASC
`, param)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []domain.Proposal
	for rows.Next() {
		proposal, err := scanProposal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		proposals = append(proposals, proposal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return proposals, nil
}

// SetProposalAssessment replaces the assessment wholesale. It intentionally
// skips the open/deadline guard: the oracle may run at any lifecycle state.
func (s *Store) SetProposalAssessment(ctx context.Context, proposalID string, assessment *domain.Assessment, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	assessmentJSON, err := marshalAssessment(assessment)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE proposals
SET assessment_json = ?, updated_at = ?
WHERE id = ?
`, assessmentJSON, toMillis(updatedAt), strings.TrimSpace(proposalID))
	if err != nil {
		return fmt.Errorf("set proposal assessment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set proposal assessment rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// classifyProposalParentFailure explains a zero-row conditional insert.
func (s *Store) classifyProposalParentFailure(ctx context.Context, solicitationID string, at time.Time) error {
	var status string
	var deadline int64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT status, deadline FROM solicitations WHERE id = ?",
		strings.TrimSpace(solicitationID),
	).Scan(&status, &deadline)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify proposal parent failure: %w", err)
	}
	if status != string(domain.StatusOpen) {
		return storage.ErrSolicitationNotOpen
	}
	if toMillis(at) > deadline {
		return storage.ErrDeadlinePassed
	}
	return storage.ErrNotFound
}

// classifyProposalWriteFailure explains a zero-row conditional update/delete.
func (s *Store) classifyProposalWriteFailure(ctx context.Context, proposalID string, at time.Time) error {
	var solicitationID string
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT solicitation_id FROM proposals WHERE id = ?",
		strings.TrimSpace(proposalID),
	).Scan(&solicitationID)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify proposal write failure: %w", err)
	}
	return s.classifyProposalParentFailure(ctx, solicitationID, at)
}

func scanProposal(scan func(dest ...any) error) (domain.Proposal, error) {
	var (
		proposal       domain.Proposal
		teamJSON       string
		declaration    bool
		assessmentJSON sql.NullString
		createdAt      int64
		updatedAt      int64
	)
	if err := scan(
		&proposal.ID,
		&proposal.SolicitationID,
		&proposal.BidderID,
		&proposal.FinancialOffer,
		&teamJSON,
		&declaration,
		&assessmentJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Proposal{}, err
	}

	team, err := unmarshalTeam(teamJSON)
	if err != nil {
		return domain.Proposal{}, err
	}
	assessment, err := unmarshalAssessment(assessmentJSON)
	if err != nil {
		return domain.Proposal{}, err
	}

	proposal.Team = team
	proposal.DeclarationAccepted = declaration
	proposal.Assessment = assessment
	proposal.CreatedAt = fromMillis(createdAt)
	proposal.UpdatedAt = fromMillis(updatedAt)
	return proposal, nil
}
