package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/makeplus/makeplus-api/internal/apierr"
	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/server/middleware"
	"github.com/makeplus/makeplus-api/internal/validate"
)

const (
	msgPartnerNotFound = "Partner not found"

	// MaxLogoSize is the largest accepted partner logo, before encoding.
	MaxLogoSize = 5 << 20
)

// LogoTypes are the accepted partner logo media types.
var LogoTypes = []string{"image/jpeg", "image/png", "image/svg+xml", "image/webp"}

var errBadLogo = errors.New("logo must be a png, jpeg, svg or webp data URI of at most 5MB")

// PartnerStore persists partner logos.
type PartnerStore interface {
	ListPartners(ctx context.Context, activeOnly bool) ([]model.Partner, error)
	GetPartner(ctx context.Context, id int64) (*model.Partner, error)
	CreatePartner(ctx context.Context, p *model.Partner) error
	UpdatePartner(ctx context.Context, p *model.Partner) error
	DeletePartner(ctx context.Context, id int64) error
	ReorderPartners(ctx context.Context, updates []model.OrderUpdate) error
}

// PartnerHandler serves the partner logo wall.
type PartnerHandler struct {
	store  PartnerStore
	logger *slog.Logger
}

// NewPartnerHandler creates a new PartnerHandler.
func NewPartnerHandler(store PartnerStore, logger *slog.Logger) *PartnerHandler {
	return &PartnerHandler{store: store, logger: logger}
}

type partnerRequest struct {
	Name     *string `json:"name"`
	Website  *string `json:"website"`
	Logo     *string `json:"logo"`
	Order    *int    `json:"order"`
	IsActive *bool   `json:"isActive"`
}

// Public lists active partners in display order.
// GET /api/content/partners
func (h *PartnerHandler) Public() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		partners, err := h.store.ListPartners(r.Context(), true)
		if err != nil {
			return err
		}
		writeOK(w, http.StatusOK, "", nonNil(partners))
		return nil
	})
}

// List returns every partner in display order.
// GET /api/admin/partners
func (h *PartnerHandler) List() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		partners, err := h.store.ListPartners(r.Context(), false)
		if err != nil {
			return err
		}
		writeOK(w, http.StatusOK, "", nonNil(partners))
		return nil
	})
}

// Get returns one partner.
// GET /api/admin/partners/{id}
func (h *PartnerHandler) Get() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r, msgPartnerNotFound)
		if err != nil {
			return err
		}
		p, err := h.store.GetPartner(r.Context(), id)
		if err != nil {
			return notFound(err, msgPartnerNotFound)
		}
		writeOK(w, http.StatusOK, "", p)
		return nil
	})
}

// Create adds a partner. The logo comes from a multipart "logo" file or a
// "logo" data URI field and is required.
// POST /api/admin/partners
func (h *PartnerHandler) Create() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		var req partnerRequest
		if err := validate.FromContext(r.Context()).Decode(&req); err != nil {
			return err
		}
		logo, mimeType, err := requestLogo(r, req.Logo)
		if err != nil {
			return err
		}
		if logo == "" {
			return apierr.BadRequest("Logo file is required")
		}

		p := &model.Partner{IsActive: true, Logo: logo, LogoMimeType: mimeType}
		req.applyTo(p)
		if err := h.store.CreatePartner(r.Context(), p); err != nil {
			return err
		}
		h.logger.InfoContext(r.Context(), "partner created", "partner_id", p.ID,
			"admin_id", middleware.CurrentAdmin(r.Context()).ID)
		writeOK(w, http.StatusCreated, "Partner added successfully", p)
		return nil
	})
}

// Update changes the fields present in the request, replacing the logo
// when a new one is supplied.
// PUT /api/admin/partners/{id}
func (h *PartnerHandler) Update() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r, msgPartnerNotFound)
		if err != nil {
			return err
		}
		p, err := h.store.GetPartner(r.Context(), id)
		if err != nil {
			return notFound(err, msgPartnerNotFound)
		}

		var req partnerRequest
		if err := validate.FromContext(r.Context()).Decode(&req); err != nil {
			return err
		}
		logo, mimeType, err := requestLogo(r, req.Logo)
		if err != nil {
			return err
		}
		if logo != "" {
			p.Logo, p.LogoMimeType = logo, mimeType
		}
		req.applyTo(p)
		if err := h.store.UpdatePartner(r.Context(), p); err != nil {
			return notFound(err, msgPartnerNotFound)
		}
		writeOK(w, http.StatusOK, "Partner updated successfully", p)
		return nil
	})
}

// Delete removes a partner.
// DELETE /api/admin/partners/{id}
func (h *PartnerHandler) Delete() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r, msgPartnerNotFound)
		if err != nil {
			return err
		}
		if err := h.store.DeletePartner(r.Context(), id); err != nil {
			return notFound(err, msgPartnerNotFound)
		}
		h.logger.InfoContext(r.Context(), "partner deleted", "partner_id", id,
			"admin_id", middleware.CurrentAdmin(r.Context()).ID)
		writeOK(w, http.StatusOK, "Partner deleted successfully", nil)
		return nil
	})
}

// Reorder sets the display order of several partners at once.
// PUT /api/admin/partners/reorder
func (h *PartnerHandler) Reorder() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		var req struct {
			Partners []model.OrderUpdate `json:"partners"`
		}
		if err := validate.FromContext(r.Context()).Decode(&req); err != nil {
			return err
		}
		if err := h.store.ReorderPartners(r.Context(), req.Partners); err != nil {
			return notFound(err, msgPartnerNotFound)
		}
		writeOK(w, http.StatusOK, "Partners reordered successfully", nil)
		return nil
	})
}

func (req *partnerRequest) applyTo(p *model.Partner) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Website != nil {
		p.Website = *req.Website
	}
	if req.Order != nil {
		p.Order = *req.Order
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

// requestLogo returns the logo as a data URI and its media type. A
// multipart file wins over a data URI field; neither yields "".
func requestLogo(r *http.Request, dataURI *string) (string, string, error) {
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["logo"]; len(files) > 0 {
			fh := files[0]
			if fh.Size > MaxLogoSize {
				return "", "", apierr.New(apierr.KindTooLarge, "Logo must be 5MB or smaller")
			}
			f, err := fh.Open()
			if err != nil {
				return "", "", fmt.Errorf("open logo: %w", err)
			}
			defer f.Close()
			data, err := io.ReadAll(io.LimitReader(f, MaxLogoSize+1))
			if err != nil {
				return "", "", fmt.Errorf("read logo: %w", err)
			}
			mimeType := logoType(fh.Header.Get("Content-Type"), data)
			if !slices.Contains(LogoTypes, mimeType) {
				return "", "", apierr.BadRequest("Only JPEG, PNG, SVG and WebP images are allowed")
			}
			return encodeDataURI(mimeType, data), mimeType, nil
		}
	}
	if dataURI == nil {
		return "", "", nil
	}
	mimeType, _, err := parseLogoDataURI(*dataURI)
	if err != nil {
		return "", "", apierr.BadRequest("Invalid logo")
	}
	return *dataURI, mimeType, nil
}

// logoType trusts the declared type when it is a known image type and
// sniffs the content otherwise.
func logoType(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && slices.Contains(LogoTypes, mt) {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func encodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// parseLogoDataURI checks that s is a base64 data URI of an accepted image
// type no larger than MaxLogoSize.
func parseLogoDataURI(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errBadLogo
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errBadLogo
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || !slices.Contains(LogoTypes, mimeType) {
		return "", nil, errBadLogo
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxLogoSize+2 {
		return "", nil, errBadLogo
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 || len(data) > MaxLogoSize {
		return "", nil, errBadLogo
	}
	return mimeType, data, nil
}
