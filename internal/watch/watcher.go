// ABOUTME: Keeps the knowledge base in step with a folder of record files
// ABOUTME: Created or changed files are re-ingested, removed files are deleted
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/harper/health-copilot/internal/core"
	"github.com/harper/health-copilot/internal/extract"
	"github.com/harper/health-copilot/internal/models"
)

// ChangeType describes what happened to a watched file
type ChangeType string

const (
	ChangeIngested ChangeType = "ingested"
	ChangeDeleted  ChangeType = "deleted"
	ChangeFailed   ChangeType = "failed"
)

// Change is the outcome of handling one file event
type Change struct {
	Type       ChangeType
	Path       string
	DocumentID string
	Chunks     int
	Err        error
}

// Watcher mirrors a directory into an engine
type Watcher struct {
	engine *core.Engine
	root   string
}

// New creates a Watcher for root
func New(engine *core.Engine, root string) *Watcher {
	return &Watcher{engine: engine, root: root}
}

// DocumentID derives a stable document ID from a file path
func DocumentID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()
}

// IngestFile reads path and ingests it under its stable ID
func (w *Watcher) IngestFile(ctx context.Context, path string) Change {
	change := Change{Path: path, DocumentID: DocumentID(path)}

	text, err := extract.ReadDocumentFile(path)
	if err != nil {
		change.Type, change.Err = ChangeFailed, err
		return change
	}

	doc := &models.Document{
		ID:         change.DocumentID,
		Title:      extract.TitleFromPath(path),
		Content:    text,
		Type:       extract.GuessDocumentType(path),
		SourceFile: filepath.Base(path),
	}

	result, err := w.engine.Ingest(ctx, doc)
	if err != nil {
		change.Type, change.Err = ChangeFailed, err
		return change
	}

	change.Type = ChangeIngested
	change.Chunks = result.ChunksCreated
	return change
}

// Scan ingests every supported file under root
func (w *Watcher) Scan(ctx context.Context) ([]Change, error) {
	return w.scanTree(ctx, w.root)
}

// scanTree ingests every supported, non-hidden file below dir
func (w *Watcher) scanTree(ctx context.Context, dir string) ([]Change, error) {
	var changes []Change
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(path) || !extract.IsSupported(path) {
			return nil
		}
		changes = append(changes, w.IngestFile(ctx, path))
		return ctx.Err()
	})
	if err != nil {
		return changes, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return changes, nil
}

// watchedDirs lists dir and every non-hidden directory below it
func watchedDirs(dir string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

func addTree(fsw *fsnotify.Watcher, dir string) error {
	dirs, err := watchedDirs(dir)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			return err
		}
	}
	return nil
}

// HandleEvent applies one filesystem event. It returns nil for events
// that do not affect the knowledge base.
func (w *Watcher) HandleEvent(ctx context.Context, event fsnotify.Event) *Change {
	if isHidden(event.Name) || !extract.IsSupported(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		id := DocumentID(event.Name)
		change := &Change{Type: ChangeDeleted, Path: event.Name, DocumentID: id}
		deleted, err := w.engine.DeleteDocument(ctx, id)
		if err != nil {
			change.Type, change.Err = ChangeFailed, err
			return change
		}
		if !deleted {
			return nil
		}
		return change

	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		change := w.IngestFile(ctx, event.Name)
		return &change
	}

	return nil
}

// Run watches root and its non-hidden subdirectories until ctx is done,
// reporting each change to onChange. Directories created later are watched
// and scanned as they appear.
func (w *Watcher) Run(ctx context.Context, onChange func(Change)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := addTree(fsw, w.root); err != nil {
		return fmt.Errorf("watching %s: %w", w.root, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && isNewDir(event.Name) {
				// Files can land before the watch does, so scan the new tree too
				if err := addTree(fsw, event.Name); err != nil {
					log.Printf("[Watch] cannot watch %s: %v", event.Name, err)
				}
				changes, err := w.scanTree(ctx, event.Name)
				if err != nil {
					log.Printf("[Watch] %v", err)
				}
				for _, change := range changes {
					if onChange != nil {
						onChange(change)
					}
				}
				continue
			}
			if change := w.HandleEvent(ctx, event); change != nil && onChange != nil {
				onChange(*change)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[Watch] watcher error: %v", err)
		}
	}
}

func isNewDir(path string) bool {
	if isHidden(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
