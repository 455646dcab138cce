package model

import "time"

// Video is a YouTube video shown in the portfolio. URLs are normalized to
// the embed form before they are stored.
type Video struct {
	ID             int64     `json:"id"`
	TitleFr        string    `json:"titleFr"`
	TitleEn        string    `json:"titleEn"`
	DescriptionFr  string    `json:"descriptionFr,omitempty"`
	DescriptionEn  string    `json:"descriptionEn,omitempty"`
	YoutubeURL     string    `json:"youtubeUrl"`
	YoutubeVideoID string    `json:"youtubeVideoId"`
	Category       string    `json:"category,omitempty"`
	Tags           []string  `json:"tags"`
	Order          int       `json:"order"`
	IsActive       bool      `json:"isActive"`
	CreatedBy      *int64    `json:"createdBy,omitempty"`
	Creator        *Creator  `json:"creator,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Creator is the public face of the admin who created a resource.
type Creator struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderUpdate moves one item to a new display position.
type OrderUpdate struct {
	ID    int64 `json:"id" mapstructure:"id"`
	Order int   `json:"order" mapstructure:"order"`
}
