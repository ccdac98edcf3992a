package monitoring

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher reports changes to artifact files on disk. Loaded artifacts
// are immutable for the life of the process, so a change only produces a
// warning that a restart is needed to pick it up.
type ArtifactWatcher struct {
	watcher *fsnotify.Watcher
	dir     string
	files   map[string]struct{}
	logger  *zap.Logger
	changed func(name string)
}

func NewArtifactWatcher(dir string, files []string, logger *zap.Logger) (*ArtifactWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		set[f] = struct{}{}
	}
	return &ArtifactWatcher{watcher: w, dir: dir, files: set, logger: logger.Named("watcher")}, nil
}

// OnChange registers a callback run after each logged change. Must be set
// before Run.
func (aw *ArtifactWatcher) OnChange(fn func(name string)) {
	aw.changed = fn
}

// Run logs artifact changes until ctx is done or the watcher is closed.
func (aw *ArtifactWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-aw.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if _, tracked := aw.files[name]; !tracked {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			aw.logger.Warn("artifact changed on disk, restart required to load it",
				zap.String("dir", aw.dir),
				zap.String("file", name),
				zap.String("op", event.Op.String()),
			)
			if aw.changed != nil {
				aw.changed(name)
			}
		case err, ok := <-aw.watcher.Errors:
			if !ok {
				return
			}
			aw.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}

func (aw *ArtifactWatcher) Close() error {
	return aw.watcher.Close()
}
