package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/common"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/config"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/entity"
	"github.com/google/uuid"
)

const (
	serviceName = "session"
)

type FolderStore interface {
	Ensure(sessionID string) (string, error)
	Remove(sessionID string) error
}

// entry pairs a session with its guard. All state transitions for one id run
// under mu, so a session entering DOWNLOADING is atomically visible to any
// concurrent begin-download or reaper sweep for the same id.
type entry struct {
	mu sync.Mutex
	s  *entity.Session
}

// Store is the registry of sessions and their state machine. The registry
// lock only guards the map; transitions are serialized per session id.
type Store struct {
	cfg     *config.SessionConfig
	folders FolderStore
	log     *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*entry

	now func() time.Time
}

func NewStore(cfg *config.SessionConfig, folders FolderStore, log *slog.Logger) *Store {
	return &Store{
		cfg:      cfg,
		folders:  folders,
		log:      log.With(slog.String("service", serviceName)),
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Create mints a new ACTIVE session with a fresh unguessable id.
func (st *Store) Create() entity.Session {
	now := st.now()
	s := &entity.Session{
		ID:             uuid.NewString(),
		State:          entity.SessionActive,
		CreatedAt:      now,
		LastActivityAt: now,
		TimeoutAt:      now.Add(st.cfg.Timeout()),
	}

	st.mu.Lock()
	st.sessions[s.ID] = &entry{s: s}
	st.mu.Unlock()

	st.log.Info("Session created", slog.String("session_id", s.ID))

	return snapshot(s)
}

// Get returns a copy of the session.
func (st *Store) Get(id string) (entity.Session, error) {
	e, err := st.entry(id)
	if err != nil {
		return entity.Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return snapshot(e.s), nil
}

// Touch records client activity. An idle ACTIVE session's expiry countdown
// restarts; in any other state only the activity timestamp moves.
func (st *Store) Touch(id string) error {
	e, err := st.entry(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st.touchLocked(e.s)

	return nil
}

// BeginDownload validates the state machine and reserves the session folder.
// A DOWNLOADING session rejects the request; COMPLETED and EXPIRED sessions
// are reset first, wiping the previous folder and records.
func (st *Store) BeginDownload(id string) (string, error) {
	e, err := st.entry(id)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.s.State {
	case entity.SessionDownloading:
		return "", common.ErrDownloadInProgress
	case entity.SessionCompleted, entity.SessionExpired:
		st.log.Info("Resetting session before new download",
			slog.String("session_id", id), slog.String("state", e.s.State.String()))
		st.resetLocked(e.s)
	}

	st.touchLocked(e.s)

	path, err := st.folders.Ensure(id)
	if err != nil {
		return "", fmt.Errorf("cannot create download folder: %w", err)
	}

	e.s.State = entity.SessionDownloading
	e.s.DownloadFolder = path

	return path, nil
}

// Complete records the cycle's verified downloads and moves the session to
// COMPLETED. A bulk cycle records all its results in this one transition.
func (st *Store) Complete(id string, records ...entity.DownloadRecord) error {
	e, err := st.entry(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.s.Downloads = append(e.s.Downloads, records...)
	e.s.State = entity.SessionCompleted
	e.s.LastActivityAt = st.now()

	return nil
}

// Fail forces the session back to ACTIVE after a failed or unverified fetch.
// The folder is deleted so the next cycle starts clean; the session stays
// recoverable rather than stuck in DOWNLOADING.
func (st *Store) Fail(id string) error {
	e, err := st.entry(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st.removeFolderLocked(e.s)
	e.s.State = entity.SessionActive
	e.s.LastActivityAt = st.now()
	e.s.TimeoutAt = st.now().Add(st.cfg.Timeout())

	return nil
}

// Reset wipes the session's folder and records and renews its timeout.
func (st *Store) Reset(id string) error {
	e, err := st.entry(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st.resetLocked(e.s)

	return nil
}

// Cleanup reclaims the session folder and marks the session EXPIRED.
// Without force a DOWNLOADING session is left alone. Idempotent: cleaning an
// already-expired session is a no-op that still reports success.
func (st *Store) Cleanup(id string, force bool) (bool, error) {
	e, err := st.entry(id)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.State == entity.SessionDownloading && !force {
		return false, nil
	}

	st.removeFolderLocked(e.s)
	e.s.State = entity.SessionExpired

	return true, nil
}

// ListExpired returns ids whose deadline has passed and that may be reclaimed.
// Sessions past their deadline while DOWNLOADING are never returned; their
// deadline is pushed forward by grace so the sweep cannot delete a folder an
// in-flight fetch is writing into.
func (st *Store) ListExpired(grace time.Duration) []string {
	now := st.now()

	var expired []string
	for _, e := range st.entries() {
		e.mu.Lock()
		if now.After(e.s.TimeoutAt) {
			if e.s.State == entity.SessionDownloading {
				e.s.TimeoutAt = now.Add(grace)
				st.log.Info("Extended deadline of downloading session",
					slog.String("session_id", e.s.ID), slog.Duration("grace", grace))
			} else {
				expired = append(expired, e.s.ID)
			}
		}
		e.mu.Unlock()
	}

	return expired
}

// Evict drops EXPIRED sessions whose deadline passed more than retention ago,
// so the registry does not grow without bound. Returns the evicted ids.
func (st *Store) Evict(retention time.Duration) []string {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	var evicted []string
	for id, e := range st.sessions {
		e.mu.Lock()
		if e.s.State == entity.SessionExpired && now.After(e.s.TimeoutAt.Add(retention)) {
			delete(st.sessions, id)
			evicted = append(evicted, id)
		}
		e.mu.Unlock()
	}

	return evicted
}

// All returns copies of every known session, for diagnostics.
func (st *Store) All() []entity.Session {
	entries := st.entries()

	sessions := make([]entity.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		sessions = append(sessions, snapshot(e.s))
		e.mu.Unlock()
	}

	return sessions
}

func (st *Store) entry(id string) (*entry, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	e, ok := st.sessions[id]
	if !ok {
		return nil, common.ErrSessionNotFound
	}

	return e, nil
}

func (st *Store) entries() []*entry {
	st.mu.RLock()
	defer st.mu.RUnlock()

	entries := make([]*entry, 0, len(st.sessions))
	for _, e := range st.sessions {
		entries = append(entries, e)
	}

	return entries
}

func (st *Store) touchLocked(s *entity.Session) {
	s.LastActivityAt = st.now()
	if s.State == entity.SessionActive {
		s.TimeoutAt = st.now().Add(st.cfg.Timeout())
	}
}

func (st *Store) resetLocked(s *entity.Session) {
	st.removeFolderLocked(s)
	s.State = entity.SessionActive
	s.Downloads = nil
	s.LastActivityAt = st.now()
	s.TimeoutAt = st.now().Add(st.cfg.Timeout())
}

// removeFolderLocked reclaims the folder best effort. Filesystem errors are
// logged and swallowed: cleanup must never block a client response.
func (st *Store) removeFolderLocked(s *entity.Session) {
	if s.DownloadFolder == "" {
		return
	}

	if err := st.folders.Remove(s.ID); err != nil {
		st.log.Warn("Cannot remove session folder",
			slog.String("session_id", s.ID), slog.Any("error", err))
	}

	s.DownloadFolder = ""
}

func snapshot(s *entity.Session) entity.Session {
	out := *s
	out.Downloads = append([]entity.DownloadRecord(nil), s.Downloads...)

	return out
}
