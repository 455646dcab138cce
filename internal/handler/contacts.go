package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/makeplus/makeplus-api/internal/apierr"
	"github.com/makeplus/makeplus-api/internal/mail"
	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/server/middleware"
	"github.com/makeplus/makeplus-api/internal/validate"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	msgContactNotFound = "Contact submission not found"
)

// ContactStore persists contact submissions.
type ContactStore interface {
	CreateContact(ctx context.Context, c *model.Contact) error
	GetContact(ctx context.Context, id int64) (*model.Contact, error)
	ListContacts(ctx context.Context, f model.ContactFilter) ([]model.Contact, int64, error)
	UpdateContactStatus(ctx context.Context, id int64, status model.ContactStatus) error
	MarkContactEmailed(ctx context.Context, id int64) error
	DeleteContact(ctx context.Context, id int64) error
	ContactSummary(ctx context.Context) (model.ContactSummary, error)
}

// ContactNotifier sends the emails that follow a submission.
type ContactNotifier interface {
	ContactReceived(ctx context.Context, c *model.Contact) (mail.Result, error)
}

// ContactHandler serves the public contact form and its admin views.
type ContactHandler struct {
	store    ContactStore
	notifier ContactNotifier
	logger   *slog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(store ContactStore, notifier ContactNotifier, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{store: store, notifier: notifier, logger: logger}
}

type contactRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Language string `json:"language"`
}

// ContactReceipt acknowledges a stored submission.
type ContactReceipt struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// Submit stores a contact form submission and emails the team and the
// submitter. Email failures are logged and never fail the request.
// POST /api/contact
func (h *ContactHandler) Submit() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		var req contactRequest
		if err := validate.FromContext(r.Context()).Decode(&req); err != nil {
			return err
		}
		if req.Language == "" {
			req.Language = model.LangFR
		}

		c := &model.Contact{
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Company:   req.Company,
			Subject:   req.Subject,
			Message:   req.Message,
			Language:  req.Language,
			IPAddress: middleware.ClientIP(r),
			UserAgent: r.UserAgent(),
		}
		if err := h.store.CreateContact(r.Context(), c); err != nil {
			return err
		}
		h.logger.InfoContext(r.Context(), "contact submission stored", "contact_id", c.ID, "language", c.Language)

		res, err := h.notifier.ContactReceived(r.Context(), c)
		if err != nil {
			h.logger.WarnContext(r.Context(), "contact emails failed", "contact_id", c.ID, "error", err)
		}
		if res.Notification {
			if err := h.store.MarkContactEmailed(r.Context(), c.ID); err != nil {
				h.logger.WarnContext(r.Context(), "failed to mark contact emailed", "contact_id", c.ID, "error", err)
			}
		}

		msg := "Message envoyé avec succès"
		if c.Language == model.LangEN {
			msg = "Message sent successfully"
		}
		writeOK(w, http.StatusOK, msg, ContactReceipt{ID: c.ID, Timestamp: c.CreatedAt})
		return nil
	})
}

// ContactPage is one page of the admin contact list.
type ContactPage struct {
	Contacts   []model.Contact  `json:"contacts"`
	Pagination model.Pagination `json:"pagination"`
}

// List returns a page of submissions, newest first.
// GET /api/admin/contacts?page=&limit=&status=&search=
func (h *ContactHandler) List() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		page := max(queryInt(r, "page", 1), 1)
		limit := clampInt(queryInt(r, "limit", defaultPageSize), 1, maxPageSize)

		status := model.ContactStatus(strings.TrimSpace(r.URL.Query().Get("status")))
		if status != "" && !slices.Contains(model.ContactStatuses, status) {
			return apierr.BadRequest("Invalid status value")
		}

		contacts, total, err := h.store.ListContacts(r.Context(), model.ContactFilter{
			Status: status,
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
			Limit:  limit,
			Offset: (page - 1) * limit,
		})
		if err != nil {
			return err
		}
		if contacts == nil {
			contacts = []model.Contact{}
		}
		writeOK(w, http.StatusOK, "", ContactPage{
			Contacts:   contacts,
			Pagination: model.NewPagination(page, limit, total),
		})
		return nil
	})
}

// Get returns one submission.
// GET /api/admin/contacts/{id}
func (h *ContactHandler) Get() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r, msgContactNotFound)
		if err != nil {
			return err
		}
		c, err := h.store.GetContact(r.Context(), id)
		if err != nil {
			return notFound(err, msgContactNotFound)
		}
		writeOK(w, http.StatusOK, "", c)
		return nil
	})
}

// UpdateStatus moves a submission through the handling workflow.
// PUT /api/admin/contacts/{id}/status
func (h *ContactHandler) UpdateStatus() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r, msgContactNotFound)
		if err != nil {
			return err
		}
		status := model.ContactStatus(validate.FromContext(r.Context()).String("status"))
		if err := h.store.UpdateContactStatus(r.Context(), id, status); err != nil {
			return notFound(err, msgContactNotFound)
		}
		c, err := h.store.GetContact(r.Context(), id)
		if err != nil {
			return notFound(err, msgContactNotFound)
		}
		writeOK(w, http.StatusOK, "Status updated successfully", c)
		return nil
	})
}

// Delete removes a submission.
// DELETE /api/admin/contacts/{id}
func (h *ContactHandler) Delete() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r, msgContactNotFound)
		if err != nil {
			return err
		}
		if err := h.store.DeleteContact(r.Context(), id); err != nil {
			return notFound(err, msgContactNotFound)
		}
		h.logger.InfoContext(r.Context(), "contact deleted", "contact_id", id,
			"admin_id", middleware.CurrentAdmin(r.Context()).ID)
		writeOK(w, http.StatusOK, "Contact deleted successfully", nil)
		return nil
	})
}

// Summary counts submissions per status.
// GET /api/admin/contacts/stats/summary
func (h *ContactHandler) Summary() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		s, err := h.store.ContactSummary(r.Context())
		if err != nil {
			return err
		}
		writeOK(w, http.StatusOK, "", s)
		return nil
	})
}
