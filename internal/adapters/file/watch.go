package file

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of fsnotify events a single atomic
// save produces (create, write, rename) into one signal.
const watchDebounce = 200 * time.Millisecond

// Watch signals on the returned channel whenever another process changes
// the data directory. The signal carries no payload: consumers re-read.
// The watcher shuts down when ctx is cancelled.
func (s *Storage) Watch(ctx context.Context) (<-chan struct{}, error) {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(s.BasePath); err != nil {
		fw.Close()
		return nil, err
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer fw.Close()
		defer close(ch)

		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				// Our own temp files churn constantly; only settled
				// destination files matter.
				if strings.Contains(event.Name, string(os.PathSeparator)+"tmp-") {
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
				select {
				case ch <- struct{}{}:
				default:
				}
			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return ch, nil
}
