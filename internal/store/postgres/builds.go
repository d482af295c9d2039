package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

// CurrentBuild returns the stored build identifier for a model and kind.
// The second return reports whether any build was recorded yet.
func (s *Store) CurrentBuild(ctx context.Context, model string, kind tracker.BuildKind) (string, bool, error) {
	var pda string
	err := s.pool.QueryRow(ctx,
		`SELECT pda FROM builds WHERE model = $1 AND kind = $2`,
		model, string(kind),
	).Scan(&pda)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("current build %s/%s: %w", model, kind, err)
	}
	return pda, true, nil
}

// SetBuild upserts the current build identifier for a model and kind. The
// store keeps at most one build row per (model, kind); history is never
// appended.
func (s *Store) SetBuild(ctx context.Context, model string, kind tracker.BuildKind, pda string) error {
	if _, err := s.pool.Exec(ctx, `
INSERT INTO builds (model, kind, pda) VALUES ($1, $2, $3)
ON CONFLICT (model, kind) DO UPDATE SET pda = EXCLUDED.pda`,
		model, string(kind), pda,
	); err != nil {
		return fmt.Errorf("set build %s/%s: %w", model, kind, err)
	}
	return nil
}
