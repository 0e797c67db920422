package folder

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	dirPerm = 0o755

	// Files below this size are never considered downloaded media.
	minMediaSize = 1024
)

var (
	// Leftovers the fetch engine may write next to the media file.
	invalidExtensions = []string{".mhtml", ".html", ".htm", ".txt", ".xml", ".part", ".ytdl", ".temp"}

	mediaExtensions = []string{
		".mp4", ".mkv", ".webm", ".m4v", ".mov", ".avi", ".flv",
		".jpg", ".jpeg", ".png", ".gif", ".webp",
	}
)

// Store owns the download root: one folder per session id underneath it.
type Store struct {
	fs   afero.Fs
	root string
	log  *slog.Logger
}

func NewStore(root string, log *slog.Logger) *Store {
	return NewStoreWithFS(afero.NewOsFs(), root, log)
}

func NewStoreWithFS(fs afero.Fs, root string, log *slog.Logger) *Store {
	return &Store{
		fs:   fs,
		root: root,
		log:  log.With(slog.String("item", "FolderStore")),
	}
}

// Path returns the deterministic folder path for a session id.
func (s *Store) Path(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

// Ensure creates the session folder with parents, idempotent if present.
func (s *Store) Ensure(sessionID string) (string, error) {
	if strings.Contains(sessionID, "..") {
		return "", fmt.Errorf("invalid session id")
	}

	path := s.Path(sessionID)
	if err := s.fs.MkdirAll(path, dirPerm); err != nil {
		return "", fmt.Errorf("cannot create folder %s: %w", path, err)
	}

	return path, nil
}

// Remove deletes the session folder and everything in it. Removing a folder
// that does not exist is not an error.
func (s *Store) Remove(sessionID string) error {
	if strings.Contains(sessionID, "..") {
		return fmt.Errorf("invalid session id")
	}

	path := s.Path(sessionID)
	if err := s.fs.RemoveAll(path); err != nil {
		return fmt.Errorf("cannot remove folder %s: %w", path, err)
	}

	return nil
}

func (s *Store) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)

	return err == nil && ok
}

func (s *Store) FileSize(path string) (int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("cannot stat %s: %w", path, err)
	}

	return info.Size(), nil
}

// SweepOrphans deletes every folder under the download root. Run at startup:
// leftover folders from a previous process have no session records behind them.
// Deletion errors are logged and do not abort the sweep.
func (s *Store) SweepOrphans() int {
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		s.log.Warn("Cannot read download root", slog.String("root", s.root), slog.Any("error", err))

		return 0
	}

	var removed int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(s.root, entry.Name())
		if err := s.fs.RemoveAll(path); err != nil {
			s.log.Warn("Cannot remove orphaned folder", slog.String("path", path), slog.Any("error", err))

			continue
		}

		s.log.Info("Removed orphaned folder", slog.String("path", path))
		removed++
	}

	return removed
}

// PruneInvalid removes non-media leftovers from a folder, best effort.
func (s *Store) PruneInvalid(folderPath string) {
	entries, err := afero.ReadDir(s.fs, folderPath)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), invalidExtensions) {
			continue
		}

		path := filepath.Join(folderPath, entry.Name())
		if err := s.fs.Remove(path); err != nil {
			s.log.Warn("Cannot remove invalid file", slog.String("path", path), slog.Any("error", err))
		}
	}
}

// FindMedia locates the produced media file in a folder. If expected is given,
// name variations with every media extension are tried first; otherwise any
// media file larger than 1KB wins.
func (s *Store) FindMedia(folderPath, expected string) (string, int64, error) {
	if expected != "" {
		base := strings.TrimSuffix(expected, filepath.Ext(expected))
		for _, ext := range mediaExtensions {
			candidate := filepath.Join(folderPath, base+ext)
			if info, err := s.fs.Stat(candidate); err == nil {
				return candidate, info.Size(), nil
			}
		}
	}

	entries, err := afero.ReadDir(s.fs, folderPath)
	if err != nil {
		return "", 0, fmt.Errorf("cannot read folder %s: %w", folderPath, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), mediaExtensions) {
			continue
		}

		if entry.Size() > minMediaSize {
			return filepath.Join(folderPath, entry.Name()), entry.Size(), nil
		}
	}

	return "", 0, fmt.Errorf("no media file in %s", folderPath)
}

func hasExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}

	return false
}
