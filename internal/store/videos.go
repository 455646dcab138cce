package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/makeplus/makeplus-api/internal/model"
)

// videoRow is the flat table shape of model.Video. Tags are kept as a JSON
// array and the creator comes from a join on admins.
type videoRow struct {
	ID             int64     `db:"id"`
	TitleFr        string    `db:"title_fr"`
	TitleEn        string    `db:"title_en"`
	DescriptionFr  string    `db:"description_fr"`
	DescriptionEn  string    `db:"description_en"`
	YoutubeURL     string    `db:"youtube_url"`
	YoutubeVideoID string    `db:"youtube_video_id"`
	Category       string    `db:"category"`
	TagsJSON       string    `db:"tags_json"`
	Order          int       `db:"display_order"`
	IsActive       bool      `db:"is_active"`
	CreatedBy      *int64    `db:"created_by"`
	CreatorName    *string   `db:"creator_name"`
	CreatorEmail   *string   `db:"creator_email"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func videoRowFromModel(v *model.Video) (videoRow, error) {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return videoRow{}, fmt.Errorf("marshal tags: %w", err)
	}
	return videoRow{
		ID:             v.ID,
		TitleFr:        v.TitleFr,
		TitleEn:        v.TitleEn,
		DescriptionFr:  v.DescriptionFr,
		DescriptionEn:  v.DescriptionEn,
		YoutubeURL:     v.YoutubeURL,
		YoutubeVideoID: v.YoutubeVideoID,
		Category:       v.Category,
		TagsJSON:       string(tagsJSON),
		Order:          v.Order,
		IsActive:       v.IsActive,
		CreatedBy:      v.CreatedBy,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}, nil
}

func (r videoRow) toModel() (model.Video, error) {
	v := model.Video{
		ID:             r.ID,
		TitleFr:        r.TitleFr,
		TitleEn:        r.TitleEn,
		DescriptionFr:  r.DescriptionFr,
		DescriptionEn:  r.DescriptionEn,
		YoutubeURL:     r.YoutubeURL,
		YoutubeVideoID: r.YoutubeVideoID,
		Category:       r.Category,
		Tags:           []string{},
		Order:          r.Order,
		IsActive:       r.IsActive,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.TagsJSON != "" {
		if err := json.Unmarshal([]byte(r.TagsJSON), &v.Tags); err != nil {
			return v, fmt.Errorf("unmarshal tags of video %d: %w", r.ID, err)
		}
	}
	if r.CreatorName != nil {
		v.Creator = &model.Creator{Name: *r.CreatorName}
		if r.CreatorEmail != nil {
			v.Creator.Email = *r.CreatorEmail
		}
	}
	return v, nil
}

const videoSelect = `SELECT v.id, v.title_fr, v.title_en, v.description_fr, v.description_en,
		v.youtube_url, v.youtube_video_id, v.category, v.tags_json, v.display_order,
		v.is_active, v.created_by, v.created_at, v.updated_at,
		a.name AS creator_name, a.email AS creator_email
	FROM videos v LEFT JOIN admins a ON a.id = v.created_by`

// ListVideos returns videos in display order. With activeOnly only the
// published ones are returned.
func (s *Store) ListVideos(ctx context.Context, activeOnly bool) ([]model.Video, error) {
	q := videoSelect
	var args []any
	if activeOnly {
		q += " WHERE v.is_active = ?"
		args = append(args, true)
	}
	q += " ORDER BY v.display_order, v.created_at DESC"

	var rows []videoRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	videos := make([]model.Video, 0, len(rows))
	for _, r := range rows {
		v, err := r.toModel()
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// GetVideo returns a video by ID.
func (s *Store) GetVideo(ctx context.Context, id int64) (*model.Video, error) {
	var row videoRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(videoSelect+" WHERE v.id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	v, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVideo inserts a video. The ID, CreatedAt and UpdatedAt fields are
// populated after a successful insert.
func (s *Store) CreateVideo(ctx context.Context, v *model.Video) error {
	ts := now()
	v.CreatedAt = ts
	v.UpdatedAt = ts
	row, err := videoRowFromModel(v)
	if err != nil {
		return err
	}

	const q = `INSERT INTO videos
		(title_fr, title_en, description_fr, description_en, youtube_url, youtube_video_id,
		 category, tags_json, display_order, is_active, created_by, created_at, updated_at)
		VALUES
		(:title_fr, :title_en, :description_fr, :description_en, :youtube_url, :youtube_video_id,
		 :category, :tags_json, :display_order, :is_active, :created_by, :created_at, :updated_at)`

	id, err := s.insert(ctx, q, row)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	v.ID = id
	return nil
}

// UpdateVideo overwrites the editable fields of a video.
func (s *Store) UpdateVideo(ctx context.Context, v *model.Video) error {
	v.UpdatedAt = now()
	row, err := videoRowFromModel(v)
	if err != nil {
		return err
	}

	const q = `UPDATE videos SET
		title_fr = :title_fr, title_en = :title_en, description_fr = :description_fr,
		description_en = :description_en, youtube_url = :youtube_url,
		youtube_video_id = :youtube_video_id, category = :category, tags_json = :tags_json,
		display_order = :display_order, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if err := mustAffect(result.RowsAffected()); err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// DeleteVideo removes a video by ID.
func (s *Store) DeleteVideo(ctx context.Context, id int64) error {
	if err := s.exec(ctx, "DELETE FROM videos WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// ReorderVideos applies all display order updates in one transaction.
func (s *Store) ReorderVideos(ctx context.Context, updates []model.OrderUpdate) error {
	return s.reorder(ctx, "videos", updates)
}

// reorder sets display_order for each update atomically. An unknown id rolls
// the whole batch back.
func (s *Store) reorder(ctx context.Context, table string, updates []model.OrderUpdate) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder %s: %w", table, err)
	}
	defer tx.Rollback()

	q := tx.Rebind("UPDATE " + table + " SET display_order = ?, updated_at = ? WHERE id = ?")
	ts := now()
	for _, u := range updates {
		result, err := tx.ExecContext(ctx, q, u.Order, ts, u.ID)
		if err != nil {
			return fmt.Errorf("reorder %s: %w", table, err)
		}
		if err := mustAffect(result.RowsAffected()); err != nil {
			return fmt.Errorf("reorder %s id %d: %w", table, u.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder %s: %w", table, err)
	}
	return nil
}
