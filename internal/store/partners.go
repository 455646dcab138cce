package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/makeplus/makeplus-api/internal/model"
)

// ListPartners returns partners in display order. With activeOnly only the
// published ones are returned.
func (s *Store) ListPartners(ctx context.Context, activeOnly bool) ([]model.Partner, error) {
	q := "SELECT * FROM partners"
	var args []any
	if activeOnly {
		q += " WHERE is_active = ?"
		args = append(args, true)
	}
	q += " ORDER BY display_order, created_at DESC"

	partners := []model.Partner{}
	if err := s.db.SelectContext(ctx, &partners, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	return partners, nil
}

// GetPartner returns a partner by ID.
func (s *Store) GetPartner(ctx context.Context, id int64) (*model.Partner, error) {
	var p model.Partner
	if err := s.db.GetContext(ctx, &p, s.db.Rebind("SELECT * FROM partners WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}
	return &p, nil
}

// CreatePartner inserts a partner.
func (s *Store) CreatePartner(ctx context.Context, p *model.Partner) error {
	ts := now()
	p.CreatedAt = ts
	p.UpdatedAt = ts

	const q = `INSERT INTO partners
		(name, logo, logo_mime_type, website, display_order, is_active, created_at, updated_at)
		VALUES
		(:name, :logo, :logo_mime_type, :website, :display_order, :is_active, :created_at, :updated_at)`

	id, err := s.insert(ctx, q, p)
	if err != nil {
		return fmt.Errorf("insert partner: %w", err)
	}
	p.ID = id
	return nil
}

// UpdatePartner overwrites the editable fields of a partner.
func (s *Store) UpdatePartner(ctx context.Context, p *model.Partner) error {
	p.UpdatedAt = now()

	const q = `UPDATE partners SET
		name = :name, logo = :logo, logo_mime_type = :logo_mime_type, website = :website,
		display_order = :display_order, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, p)
	if err != nil {
		return fmt.Errorf("update partner: %w", err)
	}
	if err := mustAffect(result.RowsAffected()); err != nil {
		return fmt.Errorf("update partner: %w", err)
	}
	return nil
}

// DeletePartner removes a partner by ID.
func (s *Store) DeletePartner(ctx context.Context, id int64) error {
	if err := s.exec(ctx, "DELETE FROM partners WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete partner: %w", err)
	}
	return nil
}

// ReorderPartners applies all display order updates in one transaction.
func (s *Store) ReorderPartners(ctx context.Context, updates []model.OrderUpdate) error {
	return s.reorder(ctx, "partners", updates)
}
