package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aldric/tavle/internal/storage"
)

// reconcileDelay debounces the cleanup pass triggered by rename events.
const reconcileDelay = 200 * time.Millisecond

// EventCallback is invoked after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind, path string)

type vaultWatcher struct {
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback
	fsw    *fsnotify.Watcher
}

// Watch starts an fsnotify watcher on the vault root and keeps the
// index in step with on-disk changes until ctx is cancelled. cb (if
// non-nil) fires after each successful index mutation.
//
// Directories created at runtime are added to the watch list. A rename
// only reports the old path, so renames schedule a short reconciliation
// pass that sweeps the index against the file system.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w := &vaultWatcher{db: db, store: store, root: vaultRoot, logger: logger, cb: cb, fsw: fsw}
	if err := w.watchTree(vaultRoot); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				scheduleReconcile()
			}

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handle processes one fsnotify event. It returns true when a
// reconciliation pass should be scheduled.
func (w *vaultWatcher) handle(ev fsnotify.Event) bool {
	abs := ev.Name

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			if err := w.watchTree(abs); err != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", abs), slog.String("error", err.Error()))
			}
			w.indexDir(abs)
			return false
		}
	}

	if !strings.HasSuffix(abs, ".md") {
		return false
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := "updated"
		if ev.Op&fsnotify.Create != 0 {
			kind = "created"
		}
		w.reindex(rel, kind)

	case ev.Op&fsnotify.Remove != 0:
		w.drop(rel)

	case ev.Op&fsnotify.Rename != 0:
		// Only the old path is reported; the new one arrives as a
		// separate Create if it lands in a watched dir.
		w.drop(rel)
		return true
	}
	return false
}

func (w *vaultWatcher) reindex(rel, kind string) {
	info, err := w.store.Stat(rel)
	if err != nil {
		w.logger.Warn("watcher: stat failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := indexFile(w.db, info, data); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	if w.cb != nil {
		w.cb(kind, rel)
	}
}

func (w *vaultWatcher) drop(rel string) {
	if err := w.db.DeleteNote(rel); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("path", rel))
	if w.cb != nil {
		w.cb("deleted", rel)
	}
}

// reconcile sweeps the index against the file system: stale entries are
// dropped, unindexed or changed files are (re)indexed.
func (w *vaultWatcher) reconcile() {
	checksums, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	infos, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]storage.FileInfo, len(infos))
	for _, info := range infos {
		disk[info.Path] = info
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := w.db.DeleteNote(p); err == nil {
				w.logger.Debug("reconcile: removed stale", slog.String("path", p))
				if w.cb != nil {
					w.cb("deleted", p)
				}
			}
		}
	}

	for p, info := range disk {
		if checksums[p] == info.Checksum {
			continue
		}
		data, err := w.store.Read(p)
		if err != nil {
			continue
		}
		if err := indexFile(w.db, info, data); err == nil {
			w.logger.Debug("reconcile: indexed", slog.String("path", p))
			if w.cb != nil {
				w.cb("created", p)
			}
		}
	}
}

// indexDir indexes any .md files inside a newly created directory.
func (w *vaultWatcher) indexDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		w.reindex(filepath.ToSlash(rel), "created")
		return nil
	})
}

// watchTree adds dir and all its subdirectories to the watch list.
func (w *vaultWatcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}
