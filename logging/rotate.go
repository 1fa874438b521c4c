package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	defaultMaxSize     = 10 * 1024 * 1024 // 10 MB
	defaultMaxArchives = 5
)

// RotatingWriter appends to a file and rotates it once it would exceed
// maxSize: path becomes path.1, path.1 becomes path.2 and so on, and the
// oldest archive is discarded.
type RotatingWriter struct {
	mu          sync.Mutex
	path        string
	maxSize     int64
	maxArchives int
	f           *os.File
	size        int64
	closed      bool
}

// NewRotatingWriter opens path for appending, creating its directory.
// Non-positive limits select the defaults.
func NewRotatingWriter(path string, maxSize int64, maxArchives int) (*RotatingWriter, error) {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	if maxArchives <= 0 {
		maxArchives = defaultMaxArchives
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	w := &RotatingWriter{path: path, maxSize: maxSize, maxArchives: maxArchives}
	if err := w.open(); err != nil {
		return nil, err
	}
	if w.size > w.maxSize {
		if err := w.rotate(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	w.f = f
	w.size = st.Size()
	return nil
}

// Write appends p, rotating first if p would push the file past maxSize.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, os.ErrClosed
	}
	if w.f == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	if w.size > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

// rotate archives the current file and opens a fresh one. When the file
// cannot be archived it is reopened and keeps growing; the next write
// tries again.
func (w *RotatingWriter) rotate() error {
	w.f.Close()
	w.f = nil

	_ = os.Remove(w.archiveName(w.maxArchives))
	for i := w.maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(w.archiveName(i), w.archiveName(i+1))
	}
	_ = os.Rename(w.path, w.archiveName(1))
	return w.open()
}

func (w *RotatingWriter) archiveName(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

// Close closes the file. Later writes fail.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
