package source

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const mimeDirectory = "inode/directory"

// Filesystem lists the immediate children of one root directory.
type Filesystem struct {
	notifier
	root   string
	logger *slog.Logger

	mu    sync.RWMutex
	items snapshot
}

var _ Provider = (*Filesystem)(nil)

// NewFilesystem creates a provider for root. The directory is not read until
// Scan is called.
func NewFilesystem(root string, logger *slog.Logger) *Filesystem {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	return &Filesystem{root: abs, logger: logger}
}

// Root returns the absolute directory this provider wraps.
func (f *Filesystem) Root() string { return f.root }

// Scan re-reads the directory and signals a change. Enumeration failures
// leave the provider empty. Indexes built over the old snapshot are stale
// until rebuilt, so Scan belongs on the goroutine that owns the index.
func (f *Filesystem) Scan() {
	items, err := readDir(f.root)
	if err != nil {
		f.logger.Warn("directory scan failed", "root", f.root, "error", err)
		items = nil
	}

	f.mu.Lock()
	f.items = items
	f.mu.Unlock()

	f.logger.Debug("directory scanned", "root", f.root, "items", len(items))
	f.notify()
}

func readDir(root string) (snapshot, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	items := make(snapshot, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(root, name)

		// Lstat: symlinks are listed as themselves, never resolved.
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}

		item := Item{
			Key:        path,
			Name:       name,
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			HasModTime: true,
			Kind:       KindFilesystem,
		}
		if info.IsDir() {
			item.Mime = mimeDirectory
			item.Size = 0
		} else {
			item.Mime = detectMime(path, info)
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// detectMime resolves a MIME type name by extension, falling back to content
// sniffing for regular files with unknown extensions.
func detectMime(path string, info os.FileInfo) string {
	if ext := filepath.Ext(path); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			if base, _, err := mime.ParseMediaType(t); err == nil {
				return base
			}
			return t
		}
	}
	if !info.Mode().IsRegular() {
		return "application/octet-stream"
	}

	fh, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer fh.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(fh, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "application/octet-stream"
	}
	t := http.DetectContentType(buf[:n])
	if base, _, err := mime.ParseMediaType(t); err == nil {
		return base
	}
	return t
}

func (f *Filesystem) Name() string { return f.root }
func (f *Filesystem) Kind() Kind   { return KindFilesystem }

func (f *Filesystem) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

func (f *Filesystem) Item(i int) (Item, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.items.item(i)
}

func (f *Filesystem) Identity(i int) string {
	it, _ := f.Item(i)
	return it.Key
}

func (f *Filesystem) DisplayName(i int) string {
	it, _ := f.Item(i)
	return it.Name
}

func (f *Filesystem) Size(i int) int64 {
	it, ok := f.Item(i)
	if !ok {
		return SizeUnknown
	}
	return it.Size
}

func (f *Filesystem) LastModified(i int) (time.Time, bool) {
	it, ok := f.Item(i)
	if !ok || !it.HasModTime {
		return time.Time{}, false
	}
	return it.ModTime, true
}

func (f *Filesystem) MimeType(i int) string {
	it, _ := f.Item(i)
	return it.Mime
}
