package replay

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tinytelemetry/flowdeck/internal/flowapi"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

// Sink receives reloaded snapshots.
type Sink interface {
	ReplaceAll(flows []model.Flow) bool
}

// reloadDebounce coalesces the burst of events a single save produces.
const reloadDebounce = 100 * time.Millisecond

// LoadFile reads a flows file (a bare array or a {"flows": [...]} envelope)
// into sink and returns the number of flows loaded.
func LoadFile(path string, sink Sink) (int, error) {
	// #nosec G304 - path comes from the operator
	body, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("replay: read %s: %w", path, err)
	}
	flows, err := flowapi.DecodeFlowFile(body)
	if err != nil {
		return 0, fmt.Errorf("replay: decode %s: %w", path, err)
	}
	sink.ReplaceAll(flows)
	return len(flows), nil
}

// Watch reloads path into sink whenever it changes, until ctx is done. The
// parent directory is watched so editors and capture scripts that replace
// the file by rename are picked up too. A file that fails to parse leaves
// the previous snapshot in place.
func Watch(ctx context.Context, path string, sink Sink) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("replay: resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("replay: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("replay: watch %s: %w", filepath.Dir(abs), err)
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("replay: watcher events channel closed")
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce = time.After(reloadDebounce)
			}

		case <-debounce:
			debounce = nil
			n, err := LoadFile(abs, sink)
			if err != nil {
				log.Printf("replay: reload failed, keeping previous flows: %v", err)
				continue
			}
			log.Printf("replay: reloaded %d flows from %s", n, abs)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("replay: watcher errors channel closed")
			}
			log.Printf("replay: watcher error: %v", err)
		}
	}
}
