package models

import "time"

// Video is an uploaded or imported video.
type Video struct {
	ID          string
	Title       string
	Description *string
	SourceURL   *string
	Tags        []string
	AuthorID    string
	MediaID     string
	ThumbnailID *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Author columns joined from users.
	AuthorUsername  string
	AuthorCreatedAt time.Time
}

// VideoAuthor is the minimal author shape embedded in a video.
type VideoAuthor struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoView is the public shape of a video.
type VideoView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	SourceURL   *string     `json:"source_url,omitempty"`
	Tags        []string    `json:"tags"`
	Author      VideoAuthor `json:"author"`
	Media       *MediaView  `json:"media,omitempty"`
	Thumbnail   *MediaView  `json:"thumbnail,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// VideoPage is one page of the shuffled listing.
type VideoPage struct {
	Videos []VideoView `json:"videos"`
	Seed   string      `json:"seed"`
}

// VideoList wraps search results.
type VideoList struct {
	Videos []VideoView `json:"videos"`
}

// VideoListQuery carries listing parameters.
type VideoListQuery struct {
	Skip  int    `form:"skip"`
	Count int    `form:"count"`
	Seed  string `form:"seed"`
}

// UpdateVideoRequest changes editable video fields. Nil fields are kept.
type UpdateVideoRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=256"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

// TagCount is a tag with the number of videos carrying it.
type TagCount struct {
	Tag   string `db:"tag" json:"tag"`
	Count int    `db:"count" json:"count"`
}
