package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/server/middleware"
	"github.com/makeplus/makeplus-api/internal/validate"
	"github.com/makeplus/makeplus-api/internal/youtube"
)

const msgVideoNotFound = "Video not found"

// VideoStore persists portfolio videos.
type VideoStore interface {
	ListVideos(ctx context.Context, activeOnly bool) ([]model.Video, error)
	GetVideo(ctx context.Context, id int64) (*model.Video, error)
	CreateVideo(ctx context.Context, v *model.Video) error
	UpdateVideo(ctx context.Context, v *model.Video) error
	DeleteVideo(ctx context.Context, id int64) error
	ReorderVideos(ctx context.Context, updates []model.OrderUpdate) error
}

// VideoHandler serves the video catalogue.
type VideoHandler struct {
	store  VideoStore
	logger *slog.Logger
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(store VideoStore, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{store: store, logger: logger}
}

// videoRequest holds validated video fields. Nil pointers were absent.
type videoRequest struct {
	TitleFr       *string  `json:"titleFr"`
	TitleEn       *string  `json:"titleEn"`
	DescriptionFr *string  `json:"descriptionFr"`
	DescriptionEn *string  `json:"descriptionEn"`
	YoutubeURL    *string  `json:"youtubeUrl"`
	Category      *string  `json:"category"`
	Tags          []string `json:"tags"`
	Order         *int     `json:"order"`
	IsActive      *bool    `json:"isActive"`
}

// applyTo copies the present fields onto v. A new YouTube URL is stored in
// its embed form together with the extracted video ID.
func (req *videoRequest) applyTo(v *model.Video, hasTags bool) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&v.TitleFr, req.TitleFr)
	set(&v.TitleEn, req.TitleEn)
	set(&v.DescriptionFr, req.DescriptionFr)
	set(&v.DescriptionEn, req.DescriptionEn)
	set(&v.Category, req.Category)
	if req.YoutubeURL != nil {
		embed, _ := youtube.EmbedURL(*req.YoutubeURL)
		v.YoutubeURL = embed
		v.YoutubeVideoID = youtube.VideoID(*req.YoutubeURL)
	}
	if hasTags {
		v.Tags = req.Tags
	}
	if req.Order != nil {
		v.Order = *req.Order
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
}

// Public lists active videos without creator details.
// GET /api/content/videos
func (h *VideoHandler) Public() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		videos, err := h.store.ListVideos(r.Context(), true)
		if err != nil {
			return err
		}
		for i := range videos {
			videos[i].CreatedBy = nil
			videos[i].Creator = nil
		}
		writeOK(w, http.StatusOK, "", nonNil(videos))
		return nil
	})
}

// List returns every video in display order.
// GET /api/admin/videos
func (h *VideoHandler) List() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		videos, err := h.store.ListVideos(r.Context(), false)
		if err != nil {
			return err
		}
		writeOK(w, http.StatusOK, "", nonNil(videos))
		return nil
	})
}

// Get returns one video.
// GET /api/admin/videos/{id}
func (h *VideoHandler) Get() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r, msgVideoNotFound)
		if err != nil {
			return err
		}
		v, err := h.store.GetVideo(r.Context(), id)
		if err != nil {
			return notFound(err, msgVideoNotFound)
		}
		writeOK(w, http.StatusOK, "", v)
		return nil
	})
}

// Create adds a video owned by the signed-in admin.
// POST /api/admin/videos
func (h *VideoHandler) Create() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		values := validate.FromContext(r.Context())
		var req videoRequest
		if err := values.Decode(&req); err != nil {
			return err
		}

		admin := middleware.CurrentAdmin(r.Context())
		v := &model.Video{IsActive: true, Tags: []string{}, CreatedBy: &admin.ID}
		req.applyTo(v, values.Has("tags"))
		if err := h.store.CreateVideo(r.Context(), v); err != nil {
			return err
		}

		created, err := h.store.GetVideo(r.Context(), v.ID)
		if err != nil {
			return err
		}
		h.logger.InfoContext(r.Context(), "video created", "video_id", v.ID, "admin_id", admin.ID)
		writeOK(w, http.StatusCreated, "Video created successfully", created)
		return nil
	})
}

// Update changes the fields present in the request.
// PUT /api/admin/videos/{id}
func (h *VideoHandler) Update() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r, msgVideoNotFound)
		if err != nil {
			return err
		}
		v, err := h.store.GetVideo(r.Context(), id)
		if err != nil {
			return notFound(err, msgVideoNotFound)
		}

		values := validate.FromContext(r.Context())
		var req videoRequest
		if err := values.Decode(&req); err != nil {
			return err
		}
		req.applyTo(v, values.Has("tags"))
		if err := h.store.UpdateVideo(r.Context(), v); err != nil {
			return notFound(err, msgVideoNotFound)
		}
		writeOK(w, http.StatusOK, "Video updated successfully", v)
		return nil
	})
}

// Delete removes a video.
// DELETE /api/admin/videos/{id}
func (h *VideoHandler) Delete() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r, msgVideoNotFound)
		if err != nil {
			return err
		}
		if err := h.store.DeleteVideo(r.Context(), id); err != nil {
			return notFound(err, msgVideoNotFound)
		}
		h.logger.InfoContext(r.Context(), "video deleted", "video_id", id,
			"admin_id", middleware.CurrentAdmin(r.Context()).ID)
		writeOK(w, http.StatusOK, "Video deleted successfully", nil)
		return nil
	})
}

// Reorder sets the display order of several videos at once. Either every
// update applies or none does.
// PUT /api/admin/videos/reorder
func (h *VideoHandler) Reorder() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		var req struct {
			Videos []model.OrderUpdate `json:"videos"`
		}
		if err := validate.FromContext(r.Context()).Decode(&req); err != nil {
			return err
		}
		if err := h.store.ReorderVideos(r.Context(), req.Videos); err != nil {
			return notFound(err, msgVideoNotFound)
		}
		writeOK(w, http.StatusOK, "Videos reordered successfully", nil)
		return nil
	})
}

// nonNil keeps empty lists serialized as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
