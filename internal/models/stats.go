package models

// StorageStats sums file sizes by media type.
type StorageStats struct {
	Total  int64 `json:"total"`
	Images int64 `json:"images"`
	Videos int64 `json:"videos"`
}

// VideoStats aggregates video durations.
type VideoStats struct {
	Total           int     `json:"total"`
	TotalDuration   float64 `json:"totalDuration"`
	AverageDuration float64 `json:"averageDuration"`
}

// Stats is the instance overview shown to administrators.
type Stats struct {
	Storage StorageStats `json:"storage"`
	Videos  VideoStats   `json:"videos"`
}
