package ytadapter

import (
	"fmt"
	"sort"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/entity"
)

// probeInfo mirrors the subset of yt-dlp's --dump-single-json output we need.
type probeInfo struct {
	Title      string `json:"title"`
	Thumbnail  string `json:"thumbnail"`
	Thumbnails []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
	Duration  float64       `json:"duration"`
	Uploader  string        `json:"uploader"`
	Channel   string        `json:"channel"`
	Creator   string        `json:"creator"`
	ViewCount int64         `json:"view_count"`
	Formats   []probeFormat `json:"formats"`
}

type probeFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
}

func (i *probeInfo) title() string {
	if i.Title == "" {
		return "Unknown Title"
	}

	return i.Title
}

func (i *probeInfo) thumbnail() string {
	if i.Thumbnail != "" {
		return i.Thumbnail
	}
	if len(i.Thumbnails) > 0 {
		return i.Thumbnails[0].URL
	}

	return ""
}

func (i *probeInfo) uploader() string {
	for _, name := range []string{i.Uploader, i.Channel, i.Creator} {
		if name != "" {
			return name
		}
	}

	return "Unknown"
}

// selectableFormats builds the quality picker: formats carrying a video codec
// and a known height, one per resolution, highest first.
func (i *probeInfo) selectableFormats(platform entity.Platform) []entity.MediaFormat {
	if !platform.HasQualityOptions() {
		return nil
	}

	seen := make(map[int]struct{})
	formats := make([]entity.MediaFormat, 0, len(i.Formats))

	for _, f := range i.Formats {
		if f.VCodec == "" || f.VCodec == "none" || f.Height < minFormatHeight {
			continue
		}
		if _, ok := seen[f.Height]; ok {
			continue
		}
		seen[f.Height] = struct{}{}

		size := f.Filesize
		if size == 0 {
			size = int64(f.FilesizeApprox)
		}

		ext := f.Ext
		if ext == "" {
			ext = "mp4"
		}

		formats = append(formats, entity.MediaFormat{
			FormatID:      f.FormatID,
			Quality:       fmt.Sprintf("%dp", f.Height),
			Height:        f.Height,
			Ext:           ext,
			Filesize:      size,
			FilesizeHuman: entity.FormatFilesize(size),
		})
	}

	sort.Slice(formats, func(a, b int) bool {
		return formats[a].Height > formats[b].Height
	})

	return formats
}
