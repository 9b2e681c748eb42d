// Package watcher monitors a drop directory and feeds new documents into
// a session as attached artifacts.
package watcher

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Attacher receives files discovered in the watched directory. The bool
// result reports whether the file type was accepted. Remove retracts a
// previously attached artifact when its file changes on disk.
type Attacher interface {
	AttachFile(name string, payload []byte) (string, bool)
	Remove(id string)
}

// attachedFile remembers what a watched path was last attached as, so
// repeated filesystem events for the same drop collapse into one artifact.
type attachedFile struct {
	id  string
	sum [sha256.Size]byte
}

// Watcher watches a directory for new documents.
type Watcher struct {
	watcher    *fsnotify.Watcher
	attacher   Attacher
	extensions []string
	attached   map[string]attachedFile
	log        *zap.Logger
}

// New creates a directory watcher that attaches files with the given
// extensions. Defaults to the document types the engine understands.
func New(attacher Attacher, extensions []string, log *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".txt", ".md"}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Watcher{
		watcher:    w,
		attacher:   attacher,
		extensions: extensions,
		attached:   make(map[string]attachedFile),
		log:        log,
	}, nil
}

// Watch monitors dir until ctx is cancelled. A created or modified file
// with a watched extension is attached to the session. A single drop
// commonly fires both a create and a write event, so events whose
// content matches the path's last attachment are ignored; a genuine
// rewrite replaces the earlier artifact.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}

				data, err := os.ReadFile(event.Name)
				if err != nil {
					w.log.Warn("failed to read watched file",
						zap.String("path", event.Name), zap.Error(err))
					continue
				}

				sum := sha256.Sum256(data)
				prev, seen := w.attached[event.Name]
				if seen && prev.sum == sum {
					continue
				}

				id, ok := w.attacher.AttachFile(filepath.Base(event.Name), data)
				if !ok {
					continue
				}
				if seen {
					w.attacher.Remove(prev.id)
				}
				w.attached[event.Name] = attachedFile{id: id, sum: sum}
				w.log.Info("attached watched file",
					zap.String("path", event.Name), zap.String("artifact", id))
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn("watch error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) isWatchedExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
