package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSource is a Source backed by a JSON file on disk, watched for
// external edits so a host application's settings UI (writing through a
// separate process or a text editor) takes effect without a restart.
// Grounded on petervdpas-goop2's lua/engine.go watchLoop: an
// fsnotify.Watcher added on the containing directory, filtered to the one
// file of interest, reload-on-Write/Create, with errors logged rather
// than propagated (a transient watch hiccup must never take playback
// down — config is explicitly off the critical path per spec.md §5).
type FileSource struct {
	path string

	mu   sync.RWMutex
	data tree

	watcher     *fsnotify.Watcher
	closed      chan struct{}
	subscribers map[int]func()
	nextSubID   int
	subMu       sync.Mutex
}

// OpenFileSource reads path (creating it with an empty JSON object if
// absent) and starts watching it for changes.
func OpenFileSource(path string) (*FileSource, error) {
	s := &FileSource{
		path:        path,
		data:        make(tree),
		closed:      make(chan struct{}),
		subscribers: make(map[int]func()),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(path), err)
	}
	s.watcher = watcher

	go s.watchLoop()
	return s, nil
}

func (s *FileSource) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.persistLocked(make(tree))
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", s.path, err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.data = tree(parsed)
	s.mu.Unlock()
	return nil
}

func (s *FileSource) watchLoop() {
	for {
		select {
		case <-s.closed:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := s.load(); err != nil {
					continue // transient read races with the writer; next event retries
				}
				s.notify()
			}
		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (s *FileSource) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *FileSource) GetBool(path string, fallback bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data.get(path)
	if !ok {
		return fallback
	}
	return asBool(v, fallback)
}

func (s *FileSource) GetInt(path string, fallback int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data.get(path)
	if !ok {
		return fallback
	}
	return asInt(v, fallback)
}

func (s *FileSource) GetFloat(path string, fallback float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data.get(path)
	if !ok {
		return fallback
	}
	return asFloat(v, fallback)
}

func (s *FileSource) GetString(path string, fallback string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data.get(path)
	if !ok {
		return fallback
	}
	return asString(v, fallback)
}

func (s *FileSource) GetStringSlice(path string, fallback []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data.get(path)
	if !ok {
		return fallback
	}
	return asStringSlice(v, fallback)
}

// Set updates the in-memory tree and persists it to disk. The resulting
// write triggers this source's own watcher, which re-loads an identical
// tree and notifies subscribers — harmless, and keeps Set and an external
// edit on exactly one code path.
func (s *FileSource) Set(path string, value any) {
	s.mu.Lock()
	s.data.set(path, value)
	snapshot := s.data
	s.mu.Unlock()

	_ = s.persistLocked(snapshot)
}

func (s *FileSource) persistLocked(data tree) error {
	raw, err := json.MarshalIndent(map[string]any(data), "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", s.path, err)
	}
	return nil
}

// OnChange registers fn to run after every successful reload, whether
// triggered by an external file edit or by Set's own write.
func (s *FileSource) OnChange(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// Close stops the watcher goroutine.
func (s *FileSource) Close() error {
	close(s.closed)
	return s.watcher.Close()
}
