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
	"github.com/clearbid/tenderspace/internal/storage/cursor"
	"github.com/clearbid/tenderspace/internal/storage/filter"
)

const solicitationColumns = "id, title, description, requirements, deadline, currency, status, created_by, created_at, updated_at"

// CreateSolicitation persists a new solicitation row.
func (s *Store) CreateSolicitation(ctx context.Context, solicitation domain.Solicitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO solicitations (`+solicitationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		solicitation.ID,
		solicitation.Title,
		solicitation.Description,
		solicitation.Requirements,
		toMillis(solicitation.Deadline),
		solicitation.Currency,
		string(solicitation.Status),
		solicitation.CreatedBy,
		toMillis(solicitation.CreatedAt),
		toMillis(solicitation.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("insert solicitation: %w", err)
	}
	return nil
}

// GetSolicitation loads one solicitation by ID.
func (s *Store) GetSolicitation(ctx context.Context, id string) (domain.Solicitation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Solicitation{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Solicitation{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+solicitationColumns+`
FROM solicitations
WHERE id = ?
`, strings.TrimSpace(id))
	solicitation, err := scanSolicitation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Solicitation{}, storage.ErrNotFound
		}
		return domain.Solicitation{}, fmt.Errorf("get solicitation: %w", err)
	}
	return solicitation, nil
}

// UpdateSolicitation persists mutable fields while the stored row is open.
// The status guard is part of the statement so an update racing a close
// fails with ErrSolicitationNotOpen rather than clobbering frozen text.
func (s *Store) UpdateSolicitation(ctx context.Context, solicitation domain.Solicitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE solicitations
SET title = ?, description = ?, requirements = ?, deadline = ?, currency = ?, updated_at = ?
WHERE id = ? AND status = 'open'
`,
		solicitation.Title,
		solicitation.Description,
		solicitation.Requirements,
		toMillis(solicitation.Deadline),
		solicitation.Currency,
		toMillis(solicitation.UpdatedAt),
		solicitation.ID,
	)
	if err != nil {
		return fmt.Errorf("update solicitation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update solicitation rows affected: %w", err)
	}
	if affected == 0 {
		return s.classifySolicitationWriteFailure(ctx, solicitation.ID)
	}
	return nil
}

// CloseSolicitation transitions open→closed. The transition is terminal.
func (s *Store) CloseSolicitation(ctx context.Context, id string, closedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE solicitations
SET status = 'closed', updated_at = ?
WHERE id = ? AND status = 'open'
`, toMillis(closedAt), strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("close solicitation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close solicitation rows affected: %w", err)
	}
	if affected == 0 {
		return s.classifySolicitationWriteFailure(ctx, id)
	}
	return nil
}

// DeleteSolicitation removes the row unless proposals still reference it.
func (s *Store) DeleteSolicitation(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	id = strings.TrimSpace(id)
	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM solicitations
WHERE id = ?
  AND NOT EXISTS (SELECT 1 FROM proposals WHERE solicitation_id = solicitations.id)
`, id)
	if err != nil {
		return fmt.Errorf("delete solicitation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete solicitation rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		err := s.sqlDB.QueryRowContext(ctx, "SELECT 1 FROM solicitations WHERE id = ?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("classify delete failure: %w", err)
		}
		return storage.ErrHasProposals
	}
	return nil
}

// classifySolicitationWriteFailure explains a zero-row conditional write.
func (s *Store) classifySolicitationWriteFailure(ctx context.Context, id string) error {
	var status string
	err := s.sqlDB.QueryRowContext(ctx, "SELECT status FROM solicitations WHERE id = ?", strings.TrimSpace(id)).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify solicitation write failure: %w", err)
	}
	if status != string(domain.StatusOpen) {
		return storage.ErrSolicitationNotOpen
	}
	return storage.ErrNotFound
}

// SearchSolicitations lists solicitations matching the query with
// deterministic keyset pagination (sort key plus ID tie-break).
func (s *Store) SearchSolicitations(ctx context.Context, query storage.SolicitationQuery) (storage.SolicitationPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.SolicitationPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SolicitationPage{}, fmt.Errorf("storage is not configured")
	}
	if query.PageSize <= 0 {
		return storage.SolicitationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	order := query.Order
	if order == "" {
		order = storage.OrderNewest
	}
	keyColumn, keyDescending := searchOrderKey(order)
	if keyColumn == "" {
		return storage.SolicitationPage{}, fmt.Errorf("unknown sort order %q", order)
	}

	var clauses []string
	var params []any

	if text := strings.ToLower(strings.TrimSpace(query.Text)); text != "" {
		pattern := "%" + text + "%"
		clauses = append(clauses, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(requirements) LIKE ?)")
		params = append(params, pattern, pattern, pattern)
	}
	if query.Status != "" {
		clauses = append(clauses, "status = ?")
		params = append(params, string(query.Status))
	}
	structured, err := filter.ParseSolicitationFilter(query.Filter)
	if err != nil {
		return storage.SolicitationPage{}, fmt.Errorf("parse search filter: %w", err)
	}
	if structured.Clause != "" {
		clauses = append(clauses, structured.Clause)
		params = append(params, structured.Params...)
	}

	filterKey := searchFilterKey(query)
	if token := strings.TrimSpace(query.PageToken); token != "" {
		c, err := cursor.Decode(token)
		if err != nil {
			return storage.SolicitationPage{}, fmt.Errorf("decode page token: %w", err)
		}
		if err := cursor.ValidateFilterHash(c, filterKey); err != nil {
			return storage.SolicitationPage{}, fmt.Errorf("page token: %w", err)
		}
		if err := cursor.ValidateOrderHash(c, string(order)); err != nil {
			return storage.SolicitationPage{}, fmt.Errorf("page token: %w", err)
		}
		comparison := ">"
		if keyDescending {
			comparison = "<"
		}
		clauses = append(clauses, fmt.Sprintf("(%s %s ? OR (%s = ? AND id > ?))", keyColumn, comparison, keyColumn))
		params = append(params, c.Key, c.Key, c.ID)
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	direction := "ASC"
	if keyDescending {
		direction = "DESC"
	}

	limit := query.PageSize + 1
	rows, err := s.sqlDB.QueryContext(ctx, fmt.Sprintf(`
SELECT %s
FROM solicitations
%s
ORDER BY %s %s, id ASC
LIMIT ?
`, solicitationColumns, where, keyColumn, direction), append(params, limit)...)
	if err != nil {
		return storage.SolicitationPage{}, fmt.Errorf("search solicitations: %w", err)
	}
	defer rows.Close()

	var results []domain.Solicitation
	for rows.Next() {
		solicitation, err := scanSolicitation(rows.Scan)
		if err != nil {
			return storage.SolicitationPage{}, fmt.Errorf("scan solicitation: %w", err)
		}
		results = append(results, solicitation)
	}
	if err := rows.Err(); err != nil {
		return storage.SolicitationPage{}, fmt.Errorf("iterate solicitations: %w", err)
	}

	page := storage.SolicitationPage{}
	if len(results) > query.PageSize {
		results = results[:query.PageSize]
		last := results[len(results)-1]
		next := cursor.New(searchKeyValue(last, order), last.ID, filterKey, string(order))
		token, err := cursor.Encode(next)
		if err != nil {
			return storage.SolicitationPage{}, fmt.Errorf("encode page token: %w", err)
		}
		page.NextPageToken = token
	}
	page.Solicitations = results
	return page, nil
}

func searchOrderKey(order storage.SolicitationOrder) (column string, descending bool) {
	switch order {
	case storage.OrderNewest:
		return "created_at", true
	case storage.OrderOldest:
		return "created_at", false
	case storage.OrderDeadlineAsc:
		return "deadline", false
	default:
		return "", false
	}
}

func searchKeyValue(solicitation domain.Solicitation, order storage.SolicitationOrder) int64 {
	if order == storage.OrderDeadlineAsc {
		return toMillis(solicitation.Deadline)
	}
	return toMillis(solicitation.CreatedAt)
}

func searchFilterKey(query storage.SolicitationQuery) string {
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(query.Text)),
		string(query.Status),
		strings.TrimSpace(query.Filter),
	}, "\x00")
}

func scanSolicitation(scan func(dest ...any) error) (domain.Solicitation, error) {
	var (
		solicitation domain.Solicitation
		deadline     int64
		status       string
		createdAt    int64
		updatedAt    int64
	)
	if err := scan(
		&solicitation.ID,
		&solicitation.Title,
		&solicitation.Description,
		&solicitation.Requirements,
		&deadline,
		&solicitation.Currency,
		&status,
		&solicitation.CreatedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Solicitation{}, err
	}
	solicitation.Deadline = fromMillis(deadline)
	solicitation.Status = domain.SolicitationStatus(status)
	solicitation.CreatedAt = fromMillis(createdAt)
	solicitation.UpdatedAt = fromMillis(updatedAt)
	return solicitation, nil
}
