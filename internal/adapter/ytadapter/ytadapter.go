package ytadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/config"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/entity"
	"github.com/lrstanley/go-ytdlp"
)

const (
	progressInterval = 500 * time.Millisecond

	// Formats below this height are noise from the extractor.
	minFormatHeight = 240

	outputTemplate = "%(title)s.%(ext)s"
)

// Fetcher drives the external yt-dlp engine. Probe extracts metadata without
// downloading; Fetch blocks until the engine finishes and reports progress
// through the callback from whatever goroutine runs the engine.
type Fetcher struct {
	cfg *config.FetcherConfig
	log *slog.Logger
}

func NewFetcher(cfg *config.FetcherConfig, log *slog.Logger) *Fetcher {
	log = log.With(slog.String("item", "Fetcher"))

	if cfg.CookiesFile != "" {
		if _, err := os.Stat(cfg.CookiesFile); err != nil {
			log.Warn("Cookies file not found, authenticated downloads may fail",
				slog.String("path", cfg.CookiesFile))
		}
	}

	return &Fetcher{cfg: cfg, log: log}
}

// Probe fetches media metadata without downloading anything.
func (f *Fetcher) Probe(ctx context.Context, url string) (*entity.MediaInfo, error) {
	platform := entity.DetectPlatform(url)

	dl := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		NoWarnings().
		NoCheckCertificates().
		NoPlaylist()
	f.applyPlatformOptions(dl, platform)

	res, err := dl.Run(ctx, url)
	if err != nil {
		f.log.Error("Probe failed", slog.String("url", url), slog.Any("error", err))

		return nil, classify(err)
	}

	var info probeInfo
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return nil, fmt.Errorf("cannot parse media info: %w", err)
	}

	duration := int(info.Duration)

	return &entity.MediaInfo{
		Platform:          platform,
		Title:             info.title(),
		Thumbnail:         info.thumbnail(),
		Duration:          entity.FormatDuration(duration),
		DurationSeconds:   duration,
		Uploader:          info.uploader(),
		ViewCount:         info.ViewCount,
		HasQualityOptions: platform.HasQualityOptions(),
		Formats:           info.selectableFormats(platform),
	}, nil
}

// Fetch downloads the media into opts.OutputDir. It returns the engine's idea
// of the produced file; the caller verifies what actually landed on disk.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts entity.FetchOptions) (*entity.FetchResult, error) {
	platform := entity.DetectPlatform(url)

	dl := ytdlp.New().
		NoWarnings().
		NoCheckCertificates().
		NoPlaylist().
		RestrictFilenames().
		ForceOverwrites().
		Output(filepath.Join(opts.OutputDir, outputTemplate)).
		MergeOutputFormat("mp4")
	f.applyPlatformOptions(dl, platform)
	f.applyFormat(dl, platform, opts.FormatID)

	if opts.OnProgress != nil {
		dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			opts.OnProgress(toSnapshot(update))
		})
	}

	f.log.Info("Starting fetch",
		slog.String("url", url),
		slog.String("platform", platform.String()),
		slog.String("format_id", opts.FormatID))

	res, err := dl.Run(ctx, url)
	if err != nil {
		f.log.Error("Fetch failed", slog.String("url", url), slog.Any("error", err))

		return nil, classify(err)
	}

	result := &entity.FetchResult{}
	if infos, err := res.GetExtractedInfo(); err == nil && len(infos) > 0 {
		if infos[0].Title != nil {
			result.Title = *infos[0].Title
		}
		if infos[0].Filename != nil {
			result.Filename = filepath.Base(*infos[0].Filename)
			result.Filepath = *infos[0].Filename
		}
	}

	return result, nil
}

func (f *Fetcher) applyPlatformOptions(dl *ytdlp.Command, platform entity.Platform) {
	if f.cfg.CookiesFile != "" {
		if _, err := os.Stat(f.cfg.CookiesFile); err == nil {
			dl.Cookies(f.cfg.CookiesFile)
		}
	}

	switch platform {
	case entity.PlatformInstagram:
		dl.ExtractorArgs("instagram:api=graphql")
	case entity.PlatformTikTok:
		dl.ExtractorArgs("tiktok:api_hostname=api22-normal-c-useast2a.tiktokv.com")
	}
}

func (f *Fetcher) applyFormat(dl *ytdlp.Command, platform entity.Platform, formatID string) {
	if !platform.HasQualityOptions() || platform == entity.PlatformFacebook {
		dl.Format("best")

		return
	}

	if formatID != "" {
		dl.Format(formatID + "+bestaudio/best")

		return
	}

	dl.Format("best[height<=1080]/best")
}

func toSnapshot(update ytdlp.ProgressUpdate) entity.ProgressSnapshot {
	snapshot := entity.ProgressSnapshot{
		Status:     entity.ProgressDownloading,
		Downloaded: int64(update.DownloadedBytes),
		Total:      int64(update.TotalBytes),
		Speed:      "calculating...",
	}

	switch string(update.Status) {
	case "starting", "pre_processing":
		snapshot.Status = entity.ProgressStarting
	case "finished", "post_processing", "merging":
		snapshot.Status = entity.ProgressFinished
		snapshot.Percentage = 100
		snapshot.Message = "Processing..."

		return snapshot
	}

	if update.TotalBytes > 0 {
		snapshot.Percentage = int(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
	}

	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started); elapsed.Seconds() > 0 {
			perSecond := float64(update.DownloadedBytes) / elapsed.Seconds()
			snapshot.Speed = fmt.Sprintf("%.2f MB/s", perSecond/1024/1024)
		}
	}

	if eta := update.ETA(); eta > 0 {
		snapshot.ETASeconds = int(eta.Seconds())
	}

	return snapshot
}
