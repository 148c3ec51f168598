// Package storage handles the destination directory for downloaded media:
// deterministic filenames, existence checks and atomic writes.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"txd/pkg/twitter"
)

// Manager handles file storage operations for one save directory.
type Manager struct {
	dir string
}

// NewManager creates a storage manager, creating the directory if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the managed directory path.
func (m *Manager) Dir() string {
	return m.dir
}

// Filename derives the destination filename for a media reference:
// {local-date}-{media-id}.{ext}. It is a pure function of the reference, so
// re-running against the same tweet recomputes the same name.
func Filename(item twitter.MediaItem) string {
	date := item.PostedAt.In(time.Local).Format("2006-01-02")
	return fmt.Sprintf("%s-%s.%s", date, mediaID(item.URL), extension(item))
}

// mediaID extracts the media identifier from the URL's last path segment,
// minus any extension.
func mediaID(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if idx := strings.IndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}
	if base == "" || base == "." || base == "/" {
		return "unknown"
	}
	return base
}

// extension picks mp4 for videos and the URL's own extension for images,
// defaulting to jpg.
func extension(item twitter.MediaItem) string {
	if item.Kind == twitter.KindVideo {
		return "mp4"
	}

	p := item.URL
	if u, err := url.Parse(item.URL); err == nil {
		p = u.Path
	}
	if ext := strings.TrimPrefix(path.Ext(p), "."); ext != "" {
		return ext
	}
	return "jpg"
}

// Exists reports whether a completed file already occupies the name.
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(m.dir, name))
	return err == nil
}

// Save writes the reader's contents to name via a temp file and atomic
// rename, so a completed file is never left half-written. It returns the
// SHA-256 of the written bytes as lowercase hex, computed while writing.
func (m *Manager) Save(name string, r io.Reader) (string, int64, error) {
	dest := filepath.Join(m.dir, name)
	tempFile := dest + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, hasher), r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", 0, fmt.Errorf("failed to write media data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, dest); err != nil {
		os.Remove(tempFile)
		return "", 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
