package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/makeplus/makeplus-api/internal/model"
)

// GetStats returns the statistics row, creating it with the default counters
// on first access.
func (s *Store) GetStats(ctx context.Context) (*model.Stats, error) {
	var st model.Stats
	q := s.db.Rebind("SELECT * FROM stats WHERE id = ?")
	err := s.db.GetContext(ctx, &st, q, model.StatsID)
	if err == nil {
		return &st, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	st = model.DefaultStats()
	st.UpdatedAt = now()
	const ins = `INSERT INTO stats
		(id, international_congress_value, international_congress_label_fr, international_congress_label_en,
		 symposium_value, symposium_label_fr, symposium_label_en,
		 satisfied_companies_value, satisfied_companies_label_fr, satisfied_companies_label_en,
		 updated_by, updated_at)
		VALUES
		(:id, :international_congress_value, :international_congress_label_fr, :international_congress_label_en,
		 :symposium_value, :symposium_label_fr, :symposium_label_en,
		 :satisfied_companies_value, :satisfied_companies_label_fr, :satisfied_companies_label_en,
		 :updated_by, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, ins, st); err != nil {
		// A concurrent first read may have created the row already.
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("create default stats: %w", err)
		}
		if err := s.db.GetContext(ctx, &st, q, model.StatsID); err != nil {
			return nil, fmt.Errorf("get stats: %w", err)
		}
	}
	return &st, nil
}

// UpdateStats stores new counter values. The row must exist; call GetStats
// first.
func (s *Store) UpdateStats(ctx context.Context, st *model.Stats) error {
	st.ID = model.StatsID
	st.UpdatedAt = now()

	const q = `UPDATE stats SET
		international_congress_value = :international_congress_value,
		international_congress_label_fr = :international_congress_label_fr,
		international_congress_label_en = :international_congress_label_en,
		symposium_value = :symposium_value,
		symposium_label_fr = :symposium_label_fr,
		symposium_label_en = :symposium_label_en,
		satisfied_companies_value = :satisfied_companies_value,
		satisfied_companies_label_fr = :satisfied_companies_label_fr,
		satisfied_companies_label_en = :satisfied_companies_label_en,
		updated_by = :updated_by, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, st)
	if err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	if err := mustAffect(result.RowsAffected()); err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	return nil
}
