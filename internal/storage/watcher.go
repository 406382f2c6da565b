// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jeranaias/statchat/internal/util"
)

// =============================================================================
// WATCHER INTERFACE
// =============================================================================

// Watcher reports changes to a store's backing file.
type Watcher interface {
	// Start begins watching and calls onChange (debounced) after each change.
	// onChange runs on the watcher's goroutine.
	Start(onChange func()) error

	// Close stops watching and releases resources.
	Close() error
}

// NewWatcher watches the file at path, falling back to polling when
// fsnotify is unavailable (some network filesystems, container mounts).
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger) Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := NewFsnotifyWatcher(path, debounce, logger)
	if err == nil {
		return fw
	}
	logger.Warn("fsnotify unavailable, polling session file", "error", err)
	return NewPollingWatcher(path, time.Second, logger)
}

// matchesTarget reports whether name belongs to the watched file.
// SQLite writes land in "<db>-wal" and "<db>-journal" siblings.
func matchesTarget(target, name string) bool {
	base := filepath.Base(name)
	if util.IsTempFile(base) {
		return false
	}
	t := filepath.Base(target)
	return base == t || strings.HasPrefix(base, t+"-")
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// FsnotifyWatcher implements Watcher using fsnotify.
//
// It watches the parent directory, not the file itself: atomic writes
// replace the file by rename, which would drop a watch on the old inode.
type FsnotifyWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending bool
	last    time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   sync.WaitGroup
}

// NewFsnotifyWatcher creates a new fsnotify-based watcher.
func NewFsnotifyWatcher(path string, debounce time.Duration, logger *slog.Logger) (*FsnotifyWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &FsnotifyWatcher{
		path:     path,
		watcher:  w,
		debounce: debounce,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start implements Watcher.
func (fw *FsnotifyWatcher) Start(onChange func()) error {
	dir := filepath.Dir(fw.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	if err := fw.watcher.Add(dir); err != nil {
		return err
	}

	fw.done.Add(2)
	go fw.processEvents()
	go fw.processPending(onChange)
	return nil
}

func (fw *FsnotifyWatcher) processEvents() {
	defer fw.done.Done()
	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !matchesTarget(fw.path, event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			fw.mu.Lock()
			fw.pending = true
			fw.last = time.Now()
			fw.mu.Unlock()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("storage watcher error", "error", err)
		}
	}
}

// processPending fires onChange once the file has been quiet for the
// debounce interval.
func (fw *FsnotifyWatcher) processPending(onChange func()) {
	defer fw.done.Done()

	tick := fw.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return
		case now := <-ticker.C:
			fw.mu.Lock()
			fire := fw.pending && now.Sub(fw.last) >= fw.debounce
			if fire {
				fw.pending = false
			}
			fw.mu.Unlock()
			if fire {
				onChange()
			}
		}
	}
}

// Close implements Watcher.
func (fw *FsnotifyWatcher) Close() error {
	fw.cancel()
	err := fw.watcher.Close()
	fw.done.Wait()
	return err
}

// =============================================================================
// POLLING WATCHER (FALLBACK)
// =============================================================================

// PollingWatcher implements Watcher by comparing the file's mod time and
// size at a fixed interval.
type PollingWatcher struct {
	path     string
	interval time.Duration
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     sync.WaitGroup
}

// NewPollingWatcher creates a new polling watcher.
func NewPollingWatcher(path string, interval time.Duration, logger *slog.Logger) *PollingWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PollingWatcher{
		path:     path,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

type fileStamp struct {
	exists  bool
	modTime time.Time
	size    int64
}

func stat(path string) fileStamp {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{exists: true, modTime: info.ModTime(), size: info.Size()}
}

// Start implements Watcher.
func (pw *PollingWatcher) Start(onChange func()) error {
	last := stat(pw.path)
	pw.done.Add(1)
	go func() {
		defer pw.done.Done()
		ticker := time.NewTicker(pw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-pw.ctx.Done():
				return
			case <-ticker.C:
				cur := stat(pw.path)
				if cur != last {
					last = cur
					onChange()
				}
			}
		}
	}()
	return nil
}

// Close implements Watcher.
func (pw *PollingWatcher) Close() error {
	pw.cancel()
	pw.done.Wait()
	return nil
}
