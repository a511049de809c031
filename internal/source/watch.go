package source

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of events (e.g. a file copy) into one rescan.
const watchDebounce = 250 * time.Millisecond

// Watch calls rescan after each burst of changes to the directory, until ctx
// is cancelled. rescan runs on the watcher goroutine and is expected to hand
// the work to whoever owns the provider; nil means Scan directly. It returns
// an error only if the watcher cannot be set up; the provider keeps its last
// snapshot in that case.
func (f *Filesystem) Watch(ctx context.Context, rescan func()) error {
	if rescan == nil {
		rescan = f.Scan
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(f.root); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", f.root, err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) &&
					!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Write) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				fire = timer.C

			case <-fire:
				fire = nil
				rescan()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("directory watch error", "root", f.root, "error", err)
			}
		}
	}()

	return nil
}
