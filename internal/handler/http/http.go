package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/common"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/config"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/entity"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/service/download"
)

type SessionService interface {
	Create() entity.Session
	Get(id string) (entity.Session, error)
}

type DownloadService interface {
	Probe(ctx context.Context, sessionID, url string) (*entity.MediaInfo, error)
	Download(ctx context.Context, sessionID, url, formatID string) (*entity.DownloadRecord, error)
	BulkDownload(ctx context.Context, sessionID string, urls []string) ([]download.BulkResult, error)
	Progress(sessionID string) entity.ProgressSnapshot
	ResolveFile(sessionID, filename string) (string, error)
	Finalize(sessionID string)
	Close(sessionID string) (bool, error)
	Stats(ctx context.Context) (map[string]int64, error)
}

type PageRenderer interface {
	Index() []byte
}

type downloadRequest struct {
	URL      string   `json:"url"`
	FormatID string   `json:"format_id"`
	URLs     []string `json:"urls"`
}

// NewPageHandler serves the landing page and makes sure the visitor leaves
// with a session cookie.
func NewPageHandler(cfg *config.HandlerConfig, sessions SessionService, renderer PageRenderer, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "PageHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		resumeOrCreate(w, r, cfg, sessions, log)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(renderer.Index())
	}
}

// NewSessionHandler reports the caller's session state and downloads,
// creating a session when the cookie is missing or stale.
func NewSessionHandler(cfg *config.HandlerConfig, sessions SessionService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "SessionHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		sess := resumeOrCreate(w, r, cfg, sessions, log)

		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": sess.ID,
			"state":      sess.State,
			"downloads":  sess.Downloads,
		})
	}
}

// NewProbeHandler fetches media metadata for a URL without downloading.
func NewProbeHandler(cfg *config.HandlerConfig, srv DownloadService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ProbeHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(r, cfg.CookieName)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Session expired. Please refresh.")

			return
		}

		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}

		info, err := srv.Probe(r.Context(), id, req.URL)
		if err != nil {
			writeServiceError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":              "success",
			"platform":            info.Platform,
			"title":               info.Title,
			"thumbnail":           info.Thumbnail,
			"duration":            info.Duration,
			"uploader":            info.Uploader,
			"view_count":          info.ViewCount,
			"has_quality_options": info.HasQualityOptions,
			"formats":             info.Formats,
		})
	}
}

// NewDownloadHandler runs a blocking download cycle for the session.
// Progress is observed through the separate progress endpoint, not here.
func NewDownloadHandler(cfg *config.HandlerConfig, srv DownloadService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "DownloadHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(r, cfg.CookieName)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Session expired. Please refresh.")

			return
		}

		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}

		record, err := srv.Download(r.Context(), id, req.URL, req.FormatID)
		if err != nil {
			writeServiceError(w, err)

			return
		}

		log.Info("Download served",
			slog.String("session_id", id),
			slog.String("filename", record.Filename))

		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "success",
			"message":    "Video downloaded successfully!",
			"session_id": id,
			"platform":   record.Platform,
			"filename":   record.Filename,
			"filesize":   record.Filesize,
		})
	}
}

// NewBulkDownloadHandler processes a list of URLs as one download cycle.
func NewBulkDownloadHandler(cfg *config.HandlerConfig, srv DownloadService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "BulkDownloadHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(r, cfg.CookieName)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Session expired. Please refresh.")

			return
		}

		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}

		results, err := srv.BulkDownload(r.Context(), id, req.URLs)
		if err != nil {
			writeServiceError(w, err)

			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"results": results,
		})
	}
}

// NewProgressHandler returns the polling snapshot for the session's fetch.
func NewProgressHandler(cfg *config.HandlerConfig, srv DownloadService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ProgressHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(r, cfg.CookieName)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Session expired. Please refresh.")

			return
		}

		writeJSON(w, http.StatusOK, srv.Progress(id))
	}
}

// NewFileHandler streams a downloaded file to the client. Releasing the
// session folder is a guaranteed finalization step: it runs after the byte
// stream ends, whether or not the client stayed for all of it.
func NewFileHandler(cfg *config.HandlerConfig, srv DownloadService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "FileHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(r, cfg.CookieName)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Session expired. Please refresh.")

			return
		}

		name := r.PathValue("name")
		path, err := srv.ResolveFile(id, name)
		if err != nil {
			if errors.Is(err, common.ErrFileNotFoundError) {
				writeError(w, http.StatusNotFound, "File not found")

				return
			}
			writeServiceError(w, err)

			return
		}
		defer srv.Finalize(id)

		log.Info("Serving file", slog.String("session_id", id), slog.String("path", path))

		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		http.ServeFile(w, r, path)
	}
}

// NewCleanupHandler handles the explicit goodbye a page sends on close.
func NewCleanupHandler(cfg *config.HandlerConfig, srv DownloadService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "CleanupHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(r, cfg.CookieName)
		if !ok {
			writeError(w, http.StatusNotFound, "No session found")

			return
		}

		cleaned, err := srv.Close(id)
		if err != nil {
			writeServiceError(w, err)

			return
		}

		if !cleaned {
			writeJSON(w, http.StatusOK, map[string]any{
				"status":  "warning",
				"message": "Download in progress, cleanup skipped",
			})

			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "Session cleaned up",
		})
	}
}

// NewStatsHandler reports completed download counters per platform.
func NewStatsHandler(srv DownloadService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "StatsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		counters, err := srv.Stats(r.Context())
		if err != nil {
			log.Error("Cannot get stats", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Cannot get stats")

			return
		}

		writeJSON(w, http.StatusOK, counters)
	}
}

func resumeOrCreate(w http.ResponseWriter, r *http.Request, cfg *config.HandlerConfig, sessions SessionService, log *slog.Logger) entity.Session {
	if id, ok := sessionID(r, cfg.CookieName); ok {
		if sess, err := sessions.Get(id); err == nil {
			return sess
		}
	}

	sess := sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("New session issued", slog.String("session_id", sess.ID))

	return sess
}

func sessionID(r *http.Request, cookieName string) (string, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	return cookie.Value, true
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (downloadRequest, bool) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad request")

		return req, false
	}

	return req, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var fetchErr *common.FetchError
	if errors.As(err, &fetchErr) {
		writeError(w, http.StatusBadRequest, fetchErr.Message)

		return
	}

	switch {
	case errors.Is(err, common.ErrURLRequired):
		writeError(w, http.StatusBadRequest, "URL is required")
	case errors.Is(err, common.ErrDownloadInProgress):
		writeError(w, http.StatusConflict, "Download already in progress")
	case errors.Is(err, common.ErrSessionNotFound), errors.Is(err, common.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "Session expired. Please refresh.")
	case errors.Is(err, common.ErrFileNotFoundError):
		writeError(w, http.StatusBadRequest, "Download completed but file not found")
	case errors.Is(err, common.ErrFileTooSmall):
		writeError(w, http.StatusBadRequest, "Downloaded file is too small - likely failed")
	default:
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{"status": "error", "message": message})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
