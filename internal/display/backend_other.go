//go:build !linux

package display

import "fmt"

// NewX11Backend is only available on Linux.
func NewX11Backend(string) (Backend, error) {
	return nil, fmt.Errorf("X11 display backend is not supported on this platform")
}
