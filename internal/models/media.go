package models

import "time"

// MediaType separates images from videos.
type MediaType string

const (
	MediaImage MediaType = "IMAGE"
	MediaVideo MediaType = "VIDEO"
)

// Media is a stored file. The bytes live at media/<id>.<extension>.
type Media struct {
	ID         string    `db:"id" json:"id"`
	Extension  string    `db:"extension" json:"extension"`
	Type       MediaType `db:"type" json:"type"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	FileSize   int64     `db:"file_size" json:"file_size"`
	Duration   *float64  `db:"duration" json:"duration,omitempty"`
	Width      *int      `db:"width" json:"width,omitempty"`
	Height     *int      `db:"height" json:"height,omitempty"`
	Processing bool      `db:"processing" json:"processing"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FileName returns the on-disk name relative to the media directory.
func (m *Media) FileName() string {
	return m.ID + "." + m.Extension
}

// MediaView is a media row with a signed, directly playable URL.
type MediaView struct {
	ID         string    `json:"id"`
	Type       MediaType `json:"type"`
	MimeType   string    `json:"mime_type"`
	URL        string    `json:"url"`
	Processing bool      `json:"processing"`
	Duration   *float64  `json:"duration,omitempty"`
	Width      *int      `json:"width,omitempty"`
	Height     *int      `json:"height,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
