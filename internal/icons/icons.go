// Package icons resolves decorative icons for desktop items. Failures never
// affect layout: an unresolvable icon is simply empty.
package icons

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/1broseidon/deskgrid/internal/source"
)

// Icon names a themed icon and, when found, the file that renders it.
type Icon struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// Empty reports whether no image file backs the icon.
func (i Icon) Empty() bool { return i.Path == "" }

// Resolver maps an item to its icon at a pixel size.
type Resolver interface {
	Icon(item source.Item, size int) Icon
}

// ThemeResolver looks icons up in freedesktop icon theme directories.
type ThemeResolver struct {
	Theme string
	Dirs  []string
}

// NewThemeResolver creates a resolver for theme (hicolor when empty). With no
// dirs it searches the XDG data directories.
func NewThemeResolver(theme string, dirs []string) *ThemeResolver {
	if theme == "" {
		theme = "hicolor"
	}
	if len(dirs) == 0 {
		dirs = defaultIconDirs()
	}
	return &ThemeResolver{Theme: theme, Dirs: dirs}
}

func defaultIconDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "icons"), filepath.Join(home, ".icons"))
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, d := range strings.Split(dataDirs, ":") {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "icons"))
		}
	}
	return dirs
}

// Icon resolves the item's icon name and searches the theme for a file.
func (r *ThemeResolver) Icon(item source.Item, size int) Icon {
	name := IconName(item)
	if name == "" {
		return Icon{}
	}
	return Icon{Name: name, Path: r.find(name, size)}
}

func (r *ThemeResolver) find(name string, size int) string {
	themes := []string{r.Theme}
	if r.Theme != "hicolor" {
		themes = append(themes, "hicolor")
	}
	sizeDir := strconv.Itoa(size) + "x" + strconv.Itoa(size)

	for _, dir := range r.Dirs {
		for _, theme := range themes {
			for _, sub := range []string{sizeDir, "scalable"} {
				matches, err := filepath.Glob(filepath.Join(dir, theme, sub, "*", name+".*"))
				if err != nil {
					continue
				}
				for _, m := range matches {
					switch filepath.Ext(m) {
					case ".png", ".svg":
						return m
					}
				}
			}
		}
	}
	return ""
}

// IconName maps an item to a freedesktop icon name.
func IconName(item source.Item) string {
	if item.IconName != "" {
		return item.IconName
	}
	switch item.Key {
	case source.PCID:
		return "computer"
	case source.TrashID:
		return "user-trash"
	}

	mime := item.Mime
	if mime == "" {
		return "unknown"
	}
	if mime == "inode/directory" {
		return "folder"
	}
	major, _, _ := strings.Cut(mime, "/")
	switch major {
	case "image", "audio", "video", "text", "font":
		return major + "-x-generic"
	case "application":
		switch {
		case strings.Contains(mime, "zip"), strings.Contains(mime, "tar"), strings.Contains(mime, "compressed"):
			return "package-x-generic"
		case strings.Contains(mime, "pdf"), strings.Contains(mime, "document"):
			return "x-office-document"
		case strings.Contains(mime, "executable"), strings.Contains(mime, "sharedlib"):
			return "application-x-executable"
		}
	}
	return "unknown"
}

type cacheKey struct {
	key     string
	size    int
	modTime int64
	bytes   int64
}

// Cache memoizes a Resolver. It is invalidated explicitly when the icon size
// changes or the desktop is rescanned.
type Cache struct {
	resolver Resolver

	mu      sync.Mutex
	entries map[cacheKey]Icon
}

// NewCache wraps resolver.
func NewCache(resolver Resolver) *Cache {
	return &Cache{resolver: resolver, entries: make(map[cacheKey]Icon)}
}

// Icon returns the cached icon, resolving it on a miss.
func (c *Cache) Icon(item source.Item, size int) Icon {
	if c == nil || c.resolver == nil {
		return Icon{}
	}
	k := cacheKey{key: item.Key, size: size, bytes: item.Size}
	if item.HasModTime {
		k.modTime = item.ModTime.UnixNano()
	}

	c.mu.Lock()
	icon, ok := c.entries[k]
	c.mu.Unlock()
	if ok {
		return icon
	}

	icon = c.resolver.Icon(item, size)

	c.mu.Lock()
	c.entries[k] = icon
	c.mu.Unlock()
	return icon
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]Icon)
	c.mu.Unlock()
}
