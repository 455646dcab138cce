package model

import "time"

// Partner is a company logo displayed on the site. The logo is kept inline
// as a base64 data URI.
type Partner struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Logo         string    `json:"logo" db:"logo"`
	LogoMimeType string    `json:"logoMimeType" db:"logo_mime_type"`
	Website      string    `json:"website,omitempty" db:"website"`
	Order        int       `json:"order" db:"display_order"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
