package models

// UploadInfoRequest asks for metadata about a remote video.
type UploadInfoRequest struct {
	URL string `json:"url" validate:"required"`
}

// UploadURLRequest imports a remote video. URL is what gets downloaded,
// Input is what was typed by the user and is used for metadata lookup.
type UploadURLRequest struct {
	URL   string   `json:"url" validate:"required"`
	Ext   string   `json:"ext" validate:"omitempty,alphanum,max=8"`
	Input string   `json:"input" validate:"required"`
	Title string   `json:"title" validate:"required,max=256"`
	Tags  []string `json:"tags" validate:"required"`
}

// UploadFileRequest starts and completes a chunked upload.
type UploadFileRequest struct {
	Ext   string   `json:"ext" validate:"required,alphanum,max=8"`
	Title string   `json:"title" validate:"required,max=256"`
	URL   string   `json:"url"`
	Tags  []string `json:"tags" validate:"required"`
}

// UploadResult terminates the NDJSON stream of a URL import.
type UploadResult struct {
	Success bool       `json:"success"`
	Video   *VideoView `json:"video"`
}
