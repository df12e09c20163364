// ABOUTME: Tests for directory mirroring
// ABOUTME: Drives HandleEvent with synthetic events and Run against a real directory tree
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/health-copilot/internal/core"
	"github.com/harper/health-copilot/internal/models"
	"github.com/harper/health-copilot/internal/storage/sqlite"
)

func newTestWatcher(t *testing.T) (*Watcher, *core.Engine, string) {
	t.Helper()
	store, err := sqlite.NewStorageInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := core.NewEngine(store, core.NewFallbackEmbedder(8))
	dir := t.TempDir()
	return New(engine, dir), engine, dir
}

func writeRecord(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDocumentID_Stable(t *testing.T) {
	assert.Equal(t, DocumentID("/records/labs.pdf"), DocumentID("/records/labs.pdf"))
	assert.NotEqual(t, DocumentID("/records/labs.pdf"), DocumentID("/records/rx.txt"))
}

func TestIngestFile(t *testing.T) {
	w, engine, dir := newTestWatcher(t)
	path := writeRecord(t, dir, "lipid_panel.txt", "LDL 95 mg/dL")

	change := w.IngestFile(context.Background(), path)
	require.NoError(t, change.Err)
	assert.Equal(t, ChangeIngested, change.Type)
	assert.Equal(t, 1, change.Chunks)

	info, err := engine.GetDocument(context.Background(), change.DocumentID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "lipid panel", info.Title)
	assert.Equal(t, models.DocumentTypeLabResult, info.Type)
	assert.Equal(t, "lipid_panel.txt", info.SourceFile)
}

func TestScan(t *testing.T) {
	w, engine, dir := newTestWatcher(t)
	writeRecord(t, dir, "visit.md", "Follow-up in six weeks.")
	writeRecord(t, dir, "rx.txt", "Atorvastatin 20mg daily.")
	writeRecord(t, dir, ".DS_Store", "junk")
	writeRecord(t, dir, "scan.png", "binary")
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))
	writeRecord(t, filepath.Join(dir, ".git"), "HEAD", "ref: main")

	changes, err := w.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, changes, 2)

	docs, err := engine.ListDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestHandleEvent(t *testing.T) {
	w, engine, dir := newTestWatcher(t)
	ctx := context.Background()
	path := writeRecord(t, dir, "note.txt", "Knee pain after running.")

	change := w.HandleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Create})
	require.NotNil(t, change)
	assert.Equal(t, ChangeIngested, change.Type)

	require.NoError(t, os.WriteFile(path, []byte("Knee pain resolved."), 0644))
	change = w.HandleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Write | fsnotify.Chmod})
	require.NotNil(t, change)
	assert.Equal(t, ChangeIngested, change.Type)

	chunks, err := engine.Store().ListChunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Knee pain resolved.", chunks[0].Content)

	require.NoError(t, os.Remove(path))
	change = w.HandleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Remove})
	require.NotNil(t, change)
	assert.Equal(t, ChangeDeleted, change.Type)

	docs, err := engine.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestHandleEvent_Ignored(t *testing.T) {
	w, _, dir := newTestWatcher(t)
	ctx := context.Background()

	hidden := writeRecord(t, dir, ".swap.txt", "x")
	unsupported := writeRecord(t, dir, "photo.jpg", "x")
	plain := writeRecord(t, dir, "note.txt", "x")
	subdir := filepath.Join(dir, "2024.txt")
	require.NoError(t, os.Mkdir(subdir, 0755))

	tests := []struct {
		name  string
		event fsnotify.Event
	}{
		{"hidden file", fsnotify.Event{Name: hidden, Op: fsnotify.Create}},
		{"unsupported type", fsnotify.Event{Name: unsupported, Op: fsnotify.Write}},
		{"chmod only", fsnotify.Event{Name: plain, Op: fsnotify.Chmod}},
		{"directory", fsnotify.Event{Name: subdir, Op: fsnotify.Create}},
		{"remove of unknown file", fsnotify.Event{Name: filepath.Join(dir, "gone.txt"), Op: fsnotify.Remove}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, w.HandleEvent(ctx, tt.event))
		})
	}
}

func TestHandleEvent_UnreadableFileFails(t *testing.T) {
	w, _, dir := newTestWatcher(t)
	path := writeRecord(t, dir, "empty.txt", "   ")

	change := w.HandleEvent(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Create})
	require.NotNil(t, change)
	assert.Equal(t, ChangeFailed, change.Type)
	assert.Error(t, change.Err)
}

func TestWatchedDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "labs", "2024"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "objects"), 0755))
	writeRecord(t, dir, "rx.txt", "Metformin 500mg")

	dirs, err := watchedDirs(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		dir,
		filepath.Join(dir, "labs"),
		filepath.Join(dir, "labs", "2024"),
	}, dirs)
}

func TestRun_FollowsSubdirectories(t *testing.T) {
	w, engine, dir := newTestWatcher(t)
	existing := filepath.Join(dir, "labs")
	require.NoError(t, os.Mkdir(existing, 0755))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var mu sync.Mutex
	var seen []Change
	go func() {
		done <- w.Run(ctx, func(c Change) {
			mu.Lock()
			seen = append(seen, c)
			mu.Unlock()
		})
	}()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	hasDocument := func(path string) bool {
		info, err := engine.GetDocument(context.Background(), DocumentID(path))
		return err == nil && info != nil
	}

	// Rewrite until the watch is live; each write is a fresh event
	nested := filepath.Join(existing, "lipids.txt")
	require.Eventually(t, func() bool {
		if err := os.WriteFile(nested, []byte("LDL 110 mg/dL"), 0644); err != nil {
			return false
		}
		return hasDocument(nested)
	}, 5*time.Second, 50*time.Millisecond, "file in an existing subdirectory was not ingested")

	require.NoError(t, os.Remove(nested))
	require.Eventually(t, func() bool { return !hasDocument(nested) },
		5*time.Second, 50*time.Millisecond, "removed file in a subdirectory was not deleted")

	created := filepath.Join(dir, "imaging")
	require.NoError(t, os.Mkdir(created, 0755))
	report := filepath.Join(created, "chest_xray.txt")
	require.Eventually(t, func() bool {
		if err := os.WriteFile(report, []byte("No acute findings"), 0644); err != nil {
			return false
		}
		return hasDocument(report)
	}, 5*time.Second, 50*time.Millisecond, "file in a new subdirectory was not ingested")

	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, seen)
}
