package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/adapter/page"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/adapter/ytadapter"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/config"
	httphandler "github.com/farazsidiqui2k23/Smart-Convert/internal/handler/http"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/repository/stats"
	srvdownload "github.com/farazsidiqui2k23/Smart-Convert/internal/service/download"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/service/progress"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/service/reaper"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/service/session"
	"github.com/farazsidiqui2k23/Smart-Convert/internal/storage/folder"
	"github.com/lrstanley/go-ytdlp"
	"github.com/redis/go-redis/v9"
)

const (
	installTimeout  = 2 * time.Minute
	shutdownTimeout = 5 * time.Second
)

type App struct {
	cfgPath  string
	cfg      *config.Config
	srv      *http.Server
	sessions *session.Store
	reaper   *reaper.Reaper
	log      *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Start() {
	a.cfg = config.MustLoad(a.cfgPath)

	opt, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		panic(err)
	}

	rdb := redis.NewClient(opt)
	ctx := context.Background()
	_, err = rdb.Ping(ctx).Result()
	if err != nil {
		panic(err)
	}

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	installCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()
	if _, err := ytdlp.Install(installCtx, nil); err != nil {
		log.Warn("Cannot install fetch engine, relying on system binary", slog.Any("error", err))
	}

	folders := folder.NewStore(a.cfg.SessionConfig.DownloadDir, log)
	if removed := folders.SweepOrphans(); removed > 0 {
		log.Info("Startup orphan sweep done", slog.Int("removed", removed))
	}

	a.sessions = session.NewStore(&a.cfg.SessionConfig, folders, log)
	tracker := progress.NewTracker()
	fetcher := ytadapter.NewFetcher(&a.cfg.FetcherConfig, log)
	srepo := stats.NewStatsRepository(rdb, log)
	dSrv := srvdownload.NewDownloadService(&a.cfg.SessionConfig, a.sessions, tracker, fetcher, folders, srepo, log)

	renderer, err := page.NewRenderer(a.cfg.HandlerConfig.URL)
	if err != nil {
		panic(err)
	}

	hcfg := &a.cfg.HandlerConfig
	http.Handle("GET /{$}", httphandler.NewPageHandler(hcfg, a.sessions, renderer, log))
	http.Handle("GET /session/{$}", httphandler.NewSessionHandler(hcfg, a.sessions, log))
	http.Handle("POST /probe/{$}", httphandler.NewProbeHandler(hcfg, dSrv, log))
	http.Handle("POST /download/{$}", httphandler.NewDownloadHandler(hcfg, dSrv, log))
	http.Handle("POST /bulk/{$}", httphandler.NewBulkDownloadHandler(hcfg, dSrv, log))
	http.Handle("GET /progress/{$}", httphandler.NewProgressHandler(hcfg, dSrv, log))
	http.Handle("GET /file/{name}/{$}", httphandler.NewFileHandler(hcfg, dSrv, log))
	http.Handle("POST /cleanup/{$}", httphandler.NewCleanupHandler(hcfg, dSrv, log))
	http.Handle("GET /stats/{$}", httphandler.NewStatsHandler(dSrv, log))

	a.reaper = reaper.New(&a.cfg.ReaperConfig, a.sessions, log)
	a.reaper.Start()

	a.srv = &http.Server{
		Addr: a.cfg.Listen,
	}

	go func() {
		log.Info("Start listen", slog.String("addr", a.cfg.Listen))

		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Could not serve", slog.String("listen_addr", a.cfg.Listen), slog.Any("error", err))
			os.Exit(2)
		}
	}()
}

// Sweep triggers an immediate reaper pass.
func (a *App) Sweep() {
	a.reaper.Kick()
}

// Dump prints every known session, for live debugging.
func (a *App) Dump() {
	for i, s := range a.sessions.All() {
		fmt.Printf("%d. %s state=%s downloads=%d timeout_at=%s\n",
			i+1, s.ID, s.State, len(s.Downloads), s.TimeoutAt.Format(time.RFC3339))
	}
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.srv.Shutdown(ctx)
	a.reaper.Stop()
}
