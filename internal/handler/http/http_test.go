package httphandler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/common"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/config"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/entity"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/service/download"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSessionService struct {
	sessions map[string]entity.Session
	created  int
}

func (m *mockSessionService) Create() entity.Session {
	m.created++
	sess := entity.Session{ID: "fresh-session", State: entity.SessionActive}
	m.sessions[sess.ID] = sess

	return sess
}

func (m *mockSessionService) Get(id string) (entity.Session, error) {
	sess, ok := m.sessions[id]
	if !ok {
		return entity.Session{}, common.ErrSessionNotFound
	}

	return sess, nil
}

type mockDownloadService struct {
	record      *entity.DownloadRecord
	downloadErr error
	resolved    string
	resolveErr  error
	finalized   int
	closed      bool
	closeErr    error
	snapshot    entity.ProgressSnapshot
	counters    map[string]int64
}

func (m *mockDownloadService) Probe(ctx context.Context, sessionID, url string) (*entity.MediaInfo, error) {
	if url == "" {
		return nil, common.ErrURLRequired
	}

	return &entity.MediaInfo{Title: "Clip", Platform: entity.PlatformYouTube}, nil
}

func (m *mockDownloadService) Download(ctx context.Context, sessionID, url, formatID string) (*entity.DownloadRecord, error) {
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}

	return m.record, nil
}

func (m *mockDownloadService) BulkDownload(ctx context.Context, sessionID string, urls []string) ([]download.BulkResult, error) {
	results := make([]download.BulkResult, 0, len(urls))
	for _, url := range urls {
		results = append(results, download.BulkResult{URL: url, Status: "completed"})
	}

	return results, nil
}

func (m *mockDownloadService) Progress(sessionID string) entity.ProgressSnapshot {
	return m.snapshot
}

func (m *mockDownloadService) ResolveFile(sessionID, filename string) (string, error) {
	return m.resolved, m.resolveErr
}

func (m *mockDownloadService) Finalize(sessionID string) { m.finalized++ }

func (m *mockDownloadService) Close(sessionID string) (bool, error) {
	return m.closed, m.closeErr
}

func (m *mockDownloadService) Stats(ctx context.Context) (map[string]int64, error) {
	return m.counters, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHandlerConfig() *config.HandlerConfig {
	return &config.HandlerConfig{CookieName: "sid"}
}

func withSession(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: "sid", Value: "s1"})

	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestSessionHandlerResumesExisting(t *testing.T) {
	sessions := &mockSessionService{sessions: map[string]entity.Session{
		"s1": {ID: "s1", State: entity.SessionCompleted, Downloads: []entity.DownloadRecord{{Filename: "a.mp4"}}},
	}}
	h := NewSessionHandler(testHandlerConfig(), sessions, testLogger())

	rec := httptest.NewRecorder()
	h(rec, withSession(httptest.NewRequest(http.MethodGet, "/session/", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "s1", body["session_id"])
	assert.Equal(t, 0, sessions.created)
	assert.Empty(t, rec.Result().Cookies(), "no new cookie when the session is alive")
}

func TestSessionHandlerIssuesCookie(t *testing.T) {
	sessions := &mockSessionService{sessions: map[string]entity.Session{}}
	h := NewSessionHandler(testHandlerConfig(), sessions, testLogger())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/session/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "fresh-session", body["session_id"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, "fresh-session", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSessionHandlerReplacesStaleCookie(t *testing.T) {
	sessions := &mockSessionService{sessions: map[string]entity.Session{}}
	h := NewSessionHandler(testHandlerConfig(), sessions, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "evicted-long-ago"})
	h(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sessions.created)
}

func TestDownloadHandler(t *testing.T) {
	srv := &mockDownloadService{record: &entity.DownloadRecord{
		Platform: entity.PlatformYouTube,
		Filename: "Clip.mp4",
		Filesize: 52428800,
	}}
	h := NewDownloadHandler(testHandlerConfig(), srv, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/download/",
		strings.NewReader(`{"url":"https://youtu.be/abc","format_id":"137"}`))
	h(rec, withSession(req))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Clip.mp4", body["filename"])
}

func TestDownloadHandlerNoCookie(t *testing.T) {
	h := NewDownloadHandler(testHandlerConfig(), &mockDownloadService{}, testLogger())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/download/", strings.NewReader(`{"url":"x"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDownloadHandlerBadBody(t *testing.T) {
	h := NewDownloadHandler(testHandlerConfig(), &mockDownloadService{}, testLogger())

	rec := httptest.NewRecorder()
	h(rec, withSession(httptest.NewRequest(http.MethodPost, "/download/", strings.NewReader("{not json"))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadHandlerErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"missing url", common.ErrURLRequired, http.StatusBadRequest},
		{"busy session", common.ErrDownloadInProgress, http.StatusConflict},
		{"unknown session", common.ErrSessionNotFound, http.StatusUnauthorized},
		{"missing file", common.ErrFileNotFoundError, http.StatusBadRequest},
		{"tiny file", common.ErrFileTooSmall, http.StatusBadRequest},
		{"fetch failure", common.NewFetchError(common.FetchErrPrivate, "This video is private"), http.StatusBadRequest},
		{"internal", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDownloadHandler(testHandlerConfig(), &mockDownloadService{downloadErr: tt.err}, testLogger())

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/download/", strings.NewReader(`{"url":"https://youtu.be/abc"}`))
			h(rec, withSession(req))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "error", decodeBody(t, rec)["status"])
		})
	}
}

func TestBulkDownloadHandler(t *testing.T) {
	h := NewBulkDownloadHandler(testHandlerConfig(), &mockDownloadService{}, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bulk/",
		strings.NewReader(`{"urls":["https://youtu.be/a","https://youtu.be/b"]}`))
	h(rec, withSession(req))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Len(t, body["results"], 2)
}

func TestProgressHandler(t *testing.T) {
	srv := &mockDownloadService{snapshot: entity.ProgressSnapshot{
		Status:     entity.ProgressDownloading,
		Percentage: 42,
	}}
	h := NewProgressHandler(testHandlerConfig(), srv, testLogger())

	rec := httptest.NewRecorder()
	h(rec, withSession(httptest.NewRequest(http.MethodGet, "/progress/", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "downloading", body["status"])
	assert.Equal(t, float64(42), body["percentage"])
}

func TestFileHandler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Clip.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0644))

	srv := &mockDownloadService{resolved: path}
	h := NewFileHandler(testHandlerConfig(), srv, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/file/Clip.mp4/", nil)
	req.SetPathValue("name", "Clip.mp4")
	h(rec, withSession(req))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Clip.mp4")
	assert.Len(t, rec.Body.Bytes(), 2048)
	assert.Equal(t, 1, srv.finalized, "session folder is released after serving")
}

func TestFileHandlerQuotesFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0644))

	srv := &mockDownloadService{resolved: path}
	h := NewFileHandler(testHandlerConfig(), srv, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/file/x/", nil)
	req.SetPathValue("name", `My "Best" Clip.mp4`)
	h(rec, withSession(req))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="My \"Best\" Clip.mp4"`,
		rec.Header().Get("Content-Disposition"))
}

func TestFileHandlerNotFound(t *testing.T) {
	srv := &mockDownloadService{resolveErr: common.ErrFileNotFoundError}
	h := NewFileHandler(testHandlerConfig(), srv, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/file/absent.mp4/", nil)
	req.SetPathValue("name", "absent.mp4")
	h(rec, withSession(req))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, srv.finalized)
}

func TestCleanupHandler(t *testing.T) {
	srv := &mockDownloadService{closed: true}
	h := NewCleanupHandler(testHandlerConfig(), srv, testLogger())

	rec := httptest.NewRecorder()
	h(rec, withSession(httptest.NewRequest(http.MethodPost, "/cleanup/", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decodeBody(t, rec)["status"])
}

func TestCleanupHandlerDownloadInProgress(t *testing.T) {
	srv := &mockDownloadService{closed: false}
	h := NewCleanupHandler(testHandlerConfig(), srv, testLogger())

	rec := httptest.NewRecorder()
	h(rec, withSession(httptest.NewRequest(http.MethodPost, "/cleanup/", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "warning", decodeBody(t, rec)["status"])
}

func TestCleanupHandlerNoSession(t *testing.T) {
	h := NewCleanupHandler(testHandlerConfig(), &mockDownloadService{}, testLogger())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/cleanup/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsHandler(t *testing.T) {
	srv := &mockDownloadService{counters: map[string]int64{"youtube": 12, "total": 30}}
	h := NewStatsHandler(srv, testLogger())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/stats/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(12), body["youtube"])
	assert.Equal(t, float64(30), body["total"])
}
