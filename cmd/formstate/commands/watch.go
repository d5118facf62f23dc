package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const watchDelay = 100 * time.Millisecond

// fileWatcher reports writes to a single file. It watches the parent
// directory so editors that save by renaming over the file are still seen.
type fileWatcher struct {
	path    string
	delay   time.Duration
	watcher *fsnotify.Watcher
}

func newFileWatcher(path string) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &fileWatcher{path: abs, delay: watchDelay, watcher: watcher}, nil
}

func (w *fileWatcher) Close() error {
	return w.watcher.Close()
}

// Run calls onChange once per burst of writes until ctx is done.
func (w *fileWatcher) Run(ctx context.Context, onChange func(context.Context)) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("path", w.path).Msg("watching values")

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("values file changed")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.delay, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watch error")
		case <-fire:
			onChange(ctx)
		}
	}
}
