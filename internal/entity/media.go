package entity

import "fmt"

// MediaInfo is the probed metadata of a media URL, fetched without downloading.
type MediaInfo struct {
	Platform          Platform      `json:"platform"`
	Title             string        `json:"title"`
	Thumbnail         string        `json:"thumbnail"`
	Duration          string        `json:"duration"`
	DurationSeconds   int           `json:"duration_seconds"`
	Uploader          string        `json:"uploader"`
	ViewCount         int64         `json:"view_count"`
	HasQualityOptions bool          `json:"has_quality_options"`
	Formats           []MediaFormat `json:"formats"`
}

// MediaFormat is one selectable quality option.
type MediaFormat struct {
	FormatID      string `json:"format_id"`
	Quality       string `json:"quality"`
	Height        int    `json:"height"`
	Ext           string `json:"ext"`
	Filesize      int64  `json:"filesize"`
	FilesizeHuman string `json:"filesize_human"`
}

// FetchOptions directs a single fetch. OnProgress is invoked from whatever
// goroutine runs the fetch engine, for the duration of the call.
type FetchOptions struct {
	FormatID   string
	OutputDir  string
	OnProgress func(ProgressSnapshot)
}

// FetchResult is what a completed fetch produced on disk.
type FetchResult struct {
	Title    string
	Filename string
	Filepath string
	Filesize int64
}

// FormatDuration renders seconds as M:SS or H:MM:SS.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "Unknown"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}

	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatFilesize renders a byte count in human readable units.
func FormatFilesize(size int64) string {
	if size <= 0 {
		return "Unknown size"
	}

	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}

	return fmt.Sprintf("%.1f TB", value)
}
