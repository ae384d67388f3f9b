// Package assessment runs the advisory scoring oracle against proposals and
// persists its output. Oracle results never gate evaluator score records.
package assessment

import (
	"context"

	apperrors "github.com/clearbid/tenderspace/internal/platform/errors"
	"github.com/clearbid/tenderspace/internal/procurement/domain"
)

var (
	// ErrOracleUnavailable indicates the upstream model endpoint failed.
	ErrOracleUnavailable = apperrors.New(apperrors.CodeOracleUnavailable, "scoring oracle is unavailable")
	// ErrOracleParse indicates the oracle replied with output that is not a
	// valid assessment. The reply is discarded; nothing is persisted.
	ErrOracleParse = apperrors.New(apperrors.CodeOracleParse, "scoring oracle returned malformed output")
)

// Oracle produces a fit assessment of a proposal against its solicitation.
type Oracle interface {
	Assess(ctx context.Context, solicitation domain.Solicitation, proposal domain.Proposal) (domain.Assessment, error)
}
