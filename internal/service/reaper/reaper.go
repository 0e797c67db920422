package reaper

import (
	"log/slog"
	"time"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/config"
)

const (
	serviceName = "reaper"
)

type SessionStore interface {
	ListExpired(grace time.Duration) []string
	Cleanup(id string, force bool) (bool, error)
	Evict(retention time.Duration) []string
}

// Reaper periodically reclaims the folders of expired sessions. It never
// touches an in-flight download: the store extends those deadlines instead.
type Reaper struct {
	cfg   *config.ReaperConfig
	store SessionStore
	log   *slog.Logger

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

func New(cfg *config.ReaperConfig, store SessionStore, log *slog.Logger) *Reaper {
	return &Reaper{
		cfg:   cfg,
		store: store,
		log:   log.With(slog.String("service", serviceName)),
		kick:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (r *Reaper) Start() {
	go r.loop()

	r.log.Info("Reaper started", slog.Duration("interval", r.cfg.SweepInterval()))
}

func (r *Reaper) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-r.kick:
			r.Sweep()
		case <-r.stop:
			return
		}
	}
}

// Sweep runs one reclaim pass. Per-session failures are logged and the pass
// continues with the rest.
func (r *Reaper) Sweep() {
	expired := r.store.ListExpired(r.cfg.DownloadGrace())

	for _, id := range expired {
		cleaned, err := r.store.Cleanup(id, false)
		if err != nil {
			r.log.Warn("Cannot clean session", slog.String("session_id", id), slog.Any("error", err))

			continue
		}

		if cleaned {
			r.log.Info("Cleaned expired session", slog.String("session_id", id))
		} else {
			r.log.Info("Skipped session, download in progress", slog.String("session_id", id))
		}
	}

	if evicted := r.store.Evict(r.cfg.EvictAfter()); len(evicted) > 0 {
		r.log.Info("Evicted expired sessions", slog.Int("count", len(evicted)))
	}
}

// Kick requests an immediate sweep without waiting for the ticker.
func (r *Reaper) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

func (r *Reaper) Stop() {
	close(r.stop)
	<-r.done
}
