// Package hotkeys binds global X11 key sequences to desktop actions.
package hotkeys

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/1broseidon/deskgrid/internal/config"
	"github.com/1broseidon/deskgrid/internal/display"
	"github.com/1broseidon/deskgrid/internal/sortview"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// ErrNoX11 is returned when the display backend has no X connection to grab
// keys on.
var ErrNoX11 = errors.New("hotkeys need an X11 display backend")

// Desktop is the subset of the desktop controller hotkeys drive.
type Desktop interface {
	SortBy(key sortview.Key)
	ToggleSnap() bool
	Rescan()
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu   *xgbutil.XUtil
	root xproto.Window
	desk Desktop
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler on the backend's X connection.
func NewHandler(backend display.Backend, desk Desktop) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok {
		return nil, ErrNoX11
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:   xu,
		root: accessor.RootWindow(),
		desk: desk,
	}, nil
}

// ActionFunc returns the callback for a named action.
func ActionFunc(desk Desktop, action string) (func(), error) {
	arrange := func(key sortview.Key) func() {
		return func() {
			log.Printf("Hotkey: arranging icons by %s", key)
			desk.SortBy(key)
		}
	}
	switch action {
	case config.ActionArrangeName:
		return arrange(sortview.ByName), nil
	case config.ActionArrangeType:
		return arrange(sortview.ByType), nil
	case config.ActionArrangeSize:
		return arrange(sortview.BySize), nil
	case config.ActionArrangeDate:
		return arrange(sortview.ByDate), nil
	case config.ActionToggleSnap:
		return func() {
			log.Printf("Hotkey: snap to grid %v", desk.ToggleSnap())
		}, nil
	case config.ActionRescan:
		return func() {
			log.Println("Hotkey: rescanning desktop")
			desk.Rescan()
		}, nil
	default:
		return nil, fmt.Errorf("unknown hotkey action %q", action)
	}
}

// Register binds one action to a key sequence.
func (h *Handler) Register(action, keySequence string) error {
	fn, err := ActionFunc(h.desk, action)
	if err != nil {
		return err
	}
	if err := h.RegisterFunc(keySequence, fn); err != nil {
		return fmt.Errorf("failed to register %s hotkey %q: %w", action, keySequence, err)
	}
	return nil
}

// RegisterAll binds every entry of an action to key sequence map. It keeps
// going past failures and returns them joined.
func (h *Handler) RegisterAll(bindings map[string]string) error {
	actions := make([]string, 0, len(bindings))
	for action := range bindings {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	var errs []error
	for _, action := range actions {
		if err := h.Register(action, bindings[action]); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Printf("Registered hotkey %s for %s", bindings[action], action)
	}
	return errors.Join(errs...)
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	xevent.IgnoreMods = lockCombinations(base)
}

// lockCombinations returns every OR of the given lock masks, including 0.
func lockCombinations(base []uint16) []uint16 {
	unique := make(map[uint16]struct{})
	unique[0] = struct{}{}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	out := make([]uint16, 0, len(unique))
	for mask := range unique {
		out = append(out, mask)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
