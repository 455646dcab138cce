package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/makeplus/makeplus-api/internal/model"
)

// CreateContact stores a contact form submission. Status defaults to new and
// Language to fr.
func (s *Store) CreateContact(ctx context.Context, c *model.Contact) error {
	ts := now()
	c.CreatedAt = ts
	c.UpdatedAt = ts
	if c.Status == "" {
		c.Status = model.ContactNew
	}
	if c.Language == "" {
		c.Language = model.LangFR
	}

	const q = `INSERT INTO contacts
		(name, email, phone, company, subject, message, language, status,
		 ip_address, user_agent, email_sent, email_sent_at, created_at, updated_at)
		VALUES
		(:name, :email, :phone, :company, :subject, :message, :language, :status,
		 :ip_address, :user_agent, :email_sent, :email_sent_at, :created_at, :updated_at)`

	id, err := s.insert(ctx, q, c)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	c.ID = id
	return nil
}

// GetContact returns a contact by ID.
func (s *Store) GetContact(ctx context.Context, id int64) (*model.Contact, error) {
	var c model.Contact
	if err := s.db.GetContext(ctx, &c, s.db.Rebind("SELECT * FROM contacts WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return &c, nil
}

// ListContacts returns one page of contacts, newest first, together with the
// number of contacts matching the filter.
func (s *Store) ListContacts(ctx context.Context, f model.ContactFilter) ([]model.Contact, int64, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(subject) LIKE ? OR LOWER(company) LIKE ?)")
		args = append(args, like, like, like, like)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, s.db.Rebind("SELECT COUNT(*) FROM contacts"+clause), args...); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	q := "SELECT * FROM contacts" + clause + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	contacts := []model.Contact{}
	if err := s.db.SelectContext(ctx, &contacts, s.db.Rebind(q), append(args, limit, f.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, total, nil
}

// UpdateContactStatus moves a contact through the handling workflow.
func (s *Store) UpdateContactStatus(ctx context.Context, id int64, status model.ContactStatus) error {
	if err := s.exec(ctx, "UPDATE contacts SET status = ?, updated_at = ? WHERE id = ?", status, now(), id); err != nil {
		return fmt.Errorf("update contact status: %w", err)
	}
	return nil
}

// MarkContactEmailed records that the notification email went out.
func (s *Store) MarkContactEmailed(ctx context.Context, id int64) error {
	ts := now()
	if err := s.exec(ctx, "UPDATE contacts SET email_sent = ?, email_sent_at = ?, updated_at = ? WHERE id = ?", true, ts, ts, id); err != nil {
		return fmt.Errorf("mark contact emailed: %w", err)
	}
	return nil
}

// DeleteContact removes a contact by ID.
func (s *Store) DeleteContact(ctx context.Context, id int64) error {
	if err := s.exec(ctx, "DELETE FROM contacts WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

// ContactSummary counts contacts per status.
func (s *Store) ContactSummary(ctx context.Context) (model.ContactSummary, error) {
	var rows []struct {
		Status model.ContactStatus `db:"status"`
		Count  int64               `db:"n"`
	}
	var sum model.ContactSummary
	if err := s.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS n FROM contacts GROUP BY status"); err != nil {
		return sum, fmt.Errorf("contact summary: %w", err)
	}
	for _, r := range rows {
		sum.Total += r.Count
		switch r.Status {
		case model.ContactNew:
			sum.New = r.Count
		case model.ContactRead:
			sum.Read = r.Count
		case model.ContactReplied:
			sum.Replied = r.Count
		case model.ContactArchived:
			sum.Archived = r.Count
		}
	}
	return sum, nil
}
