package display

import "log/slog"

// Open returns the X11 backend when a display server is reachable, and a
// Static backend of fallbackW x fallbackH otherwise.
func Open(name string, fallbackW, fallbackH int, logger *slog.Logger) Backend {
	if logger == nil {
		logger = slog.Default()
	}
	b, err := NewX11Backend(name)
	if err != nil {
		logger.Warn("no display server, using fallback size", "error", err,
			"width", fallbackW, "height", fallbackH)
		return NewStatic(fallbackW, fallbackH)
	}
	if _, err := b.PrimaryDisplay(); err != nil {
		logger.Warn("display query failed, using fallback size", "error", err)
		b.Close()
		return NewStatic(fallbackW, fallbackH)
	}
	return b
}
