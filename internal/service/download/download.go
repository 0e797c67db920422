package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/common"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/config"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/entity"
)

const (
	serviceName = "download"

	statusCompleted = "completed"
)

type SessionStore interface {
	Get(id string) (entity.Session, error)
	Touch(id string) error
	BeginDownload(id string) (string, error)
	Complete(id string, records ...entity.DownloadRecord) error
	Fail(id string) error
	Reset(id string) error
	Cleanup(id string, force bool) (bool, error)
}

type ProgressTracker interface {
	Update(sessionID string, snapshot entity.ProgressSnapshot)
	Read(sessionID string) entity.ProgressSnapshot
	Clear(sessionID string)
}

type MediaFetcher interface {
	Probe(ctx context.Context, url string) (*entity.MediaInfo, error)
	Fetch(ctx context.Context, url string, opts entity.FetchOptions) (*entity.FetchResult, error)
}

type FolderStore interface {
	PruneInvalid(folderPath string)
	FindMedia(folderPath, expected string) (string, int64, error)
	Exists(path string) bool
}

type StatsRepository interface {
	IncDownload(ctx context.Context, platform entity.Platform) (int64, error)
	Counters(ctx context.Context) (map[string]int64, error)
}

// BulkResult is the per-URL outcome of a bulk download cycle.
type BulkResult struct {
	URL      string `json:"url"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Filename string `json:"filename,omitempty"`
	Filesize int64  `json:"filesize,omitempty"`
}

// downloadService orchestrates one fetch cycle: session state transition,
// the blocking fetch with progress reporting, post-fetch file verification,
// and the resulting record or forced reset.
type downloadService struct {
	cfg      *config.SessionConfig
	sessions SessionStore
	tracker  ProgressTracker
	fetcher  MediaFetcher
	folders  FolderStore
	stats    StatsRepository
	log      *slog.Logger
}

func NewDownloadService(
	cfg *config.SessionConfig,
	sessions SessionStore,
	tracker ProgressTracker,
	fetcher MediaFetcher,
	folders FolderStore,
	stats StatsRepository,
	log *slog.Logger,
) *downloadService {
	return &downloadService{
		cfg:      cfg,
		sessions: sessions,
		tracker:  tracker,
		fetcher:  fetcher,
		folders:  folders,
		stats:    stats,
		log:      log.With(slog.String("service", serviceName)),
	}
}

// Probe fetches media metadata without downloading.
func (s *downloadService) Probe(ctx context.Context, sessionID, url string) (*entity.MediaInfo, error) {
	if strings.TrimSpace(url) == "" {
		return nil, common.ErrURLRequired
	}

	if err := s.sessions.Touch(sessionID); err != nil {
		return nil, err
	}

	info, err := s.fetcher.Probe(ctx, url)
	if err != nil {
		s.log.Error("Probe failed", slog.String("url", url), slog.Any("error", err))

		return nil, err
	}

	s.log.Info("Probed media",
		slog.String("url", url),
		slog.String("platform", info.Platform.String()),
		slog.String("title", info.Title))

	return info, nil
}

// Download runs one full download cycle for the session and returns the
// verified record. On any failure the session is forced back to ACTIVE and
// its folder deleted; it is never left stuck in DOWNLOADING.
func (s *downloadService) Download(ctx context.Context, sessionID, url, formatID string) (*entity.DownloadRecord, error) {
	if strings.TrimSpace(url) == "" {
		return nil, common.ErrURLRequired
	}

	folder, err := s.sessions.BeginDownload(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.tracker.Clear(sessionID)

	record, err := s.fetchOne(ctx, sessionID, folder, url, formatID)
	if err != nil {
		s.failCycle(sessionID, url, err)

		return nil, err
	}

	if err := s.sessions.Complete(sessionID, *record); err != nil {
		return nil, err
	}

	s.recordStats(ctx, record.Platform)
	s.log.Info("Download completed",
		slog.String("session_id", sessionID),
		slog.String("filename", record.Filename),
		slog.Int64("filesize", record.Filesize))

	return record, nil
}

// BulkDownload processes multiple URLs as one logical unit of work: a single
// DOWNLOADING cycle, per-URL outcomes aggregated, one COMPLETED transition.
func (s *downloadService) BulkDownload(ctx context.Context, sessionID string, urls []string) ([]BulkResult, error) {
	var cleaned []string
	for _, url := range urls {
		if strings.TrimSpace(url) != "" {
			cleaned = append(cleaned, strings.TrimSpace(url))
		}
	}
	if len(cleaned) == 0 {
		return nil, common.ErrURLRequired
	}

	folder, err := s.sessions.BeginDownload(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.tracker.Clear(sessionID)

	results := make([]BulkResult, 0, len(cleaned))
	var records []entity.DownloadRecord

	for _, url := range cleaned {
		record, err := s.fetchOne(ctx, sessionID, folder, url, "")
		if err != nil {
			s.log.Warn("Bulk item failed", slog.String("url", url), slog.Any("error", err))
			results = append(results, BulkResult{URL: url, Status: "error", Message: userMessage(err)})

			continue
		}

		records = append(records, *record)
		results = append(results, BulkResult{
			URL:      url,
			Status:   statusCompleted,
			Filename: record.Filename,
			Filesize: record.Filesize,
		})
		s.recordStats(ctx, record.Platform)
	}

	if err := s.sessions.Complete(sessionID, records...); err != nil {
		return nil, err
	}

	return results, nil
}

// Progress returns the polling snapshot for the session's active fetch.
func (s *downloadService) Progress(sessionID string) entity.ProgressSnapshot {
	return s.tracker.Read(sessionID)
}

// ResolveFile maps a requested filename onto the session's folder, refusing
// anything outside it.
func (s *downloadService) ResolveFile(sessionID, filename string) (string, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	if sess.DownloadFolder == "" || !s.folders.Exists(sess.DownloadFolder) {
		return "", common.ErrFileNotFoundError
	}

	path := filepath.Join(sess.DownloadFolder, filepath.Base(filename))
	if !s.folders.Exists(path) {
		return "", common.ErrFileNotFoundError
	}

	return path, nil
}

// Finalize releases the session's folder after its file has been served and
// readies the session for the next cycle.
func (s *downloadService) Finalize(sessionID string) {
	if _, err := s.sessions.Cleanup(sessionID, true); err != nil {
		s.log.Warn("Cannot clean session after serving", slog.String("session_id", sessionID), slog.Any("error", err))

		return
	}

	if err := s.sessions.Reset(sessionID); err != nil {
		s.log.Warn("Cannot reset session after serving", slog.String("session_id", sessionID), slog.Any("error", err))
	}
}

// Close handles an explicit client goodbye. A session mid-download is left
// alone; everything else is reclaimed.
func (s *downloadService) Close(sessionID string) (bool, error) {
	return s.sessions.Cleanup(sessionID, false)
}

// Stats returns completed download counters per platform.
func (s *downloadService) Stats(ctx context.Context) (map[string]int64, error) {
	return s.stats.Counters(ctx)
}

// fetchOne performs the blocking fetch and verifies what landed on disk.
// The engine reporting success is not enough: the file must exist and be at
// least the configured minimum size.
func (s *downloadService) fetchOne(ctx context.Context, sessionID, folder, url, formatID string) (*entity.DownloadRecord, error) {
	platform := entity.DetectPlatform(url)

	s.tracker.Update(sessionID, entity.ProgressSnapshot{
		Status:  entity.ProgressStarting,
		Message: "Initializing download...",
	})

	result, err := s.fetcher.Fetch(ctx, url, entity.FetchOptions{
		FormatID:  formatID,
		OutputDir: folder,
		OnProgress: func(snapshot entity.ProgressSnapshot) {
			s.tracker.Update(sessionID, snapshot)
		},
	})
	if err != nil {
		return nil, err
	}

	s.folders.PruneInvalid(folder)

	path, size, err := s.folders.FindMedia(folder, result.Filename)
	if err != nil {
		return nil, common.ErrFileNotFoundError
	}

	if size < s.cfg.MinFileSize {
		return nil, common.ErrFileTooSmall
	}

	return &entity.DownloadRecord{
		URL:      url,
		Platform: platform,
		Filename: filepath.Base(path),
		Filepath: path,
		Filesize: size,
		Status:   statusCompleted,
	}, nil
}

// failCycle forces the session out of DOWNLOADING after a failed fetch.
func (s *downloadService) failCycle(sessionID, url string, cause error) {
	s.log.Error("Download failed",
		slog.String("session_id", sessionID),
		slog.String("url", url),
		slog.Any("error", cause))

	if err := s.sessions.Fail(sessionID); err != nil {
		s.log.Error("Cannot reset failed session", slog.String("session_id", sessionID), slog.Any("error", err))
	}
}

func (s *downloadService) recordStats(ctx context.Context, platform entity.Platform) {
	if s.stats == nil {
		return
	}

	if _, err := s.stats.IncDownload(ctx, platform); err != nil {
		s.log.Warn("Cannot record download stats", slog.Any("error", err))
	}
}

// userMessage strips internals from an error before it reaches a client.
func userMessage(err error) string {
	var fetchErr *common.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Message
	}

	switch {
	case errors.Is(err, common.ErrFileNotFoundError):
		return "Download completed but file not found"
	case errors.Is(err, common.ErrFileTooSmall):
		return "Downloaded file is too small - likely failed"
	}

	return fmt.Sprintf("Download failed: %.100s", err.Error())
}
