package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const fileExt = ".json"

// FileStorage keeps one file per key in a directory. Several processes may
// share the directory; each one learns about the others' writes through an
// fsnotify watch.
type FileStorage struct {
	dir     string
	watcher *fsnotify.Watcher
	subs    fanout

	mu    sync.Mutex
	known map[string]*string // last value seen or written per key; nil when absent

	done chan struct{}
	wg   sync.WaitGroup
}

// OpenFile creates dir if needed and starts watching it. Close releases
// the watch.
func OpenFile(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s := &FileStorage{
		dir:     dir,
		watcher: w,
		known:   make(map[string]*string),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.watch()
	return s, nil
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *FileStorage) Get(key string) (string, bool) {
	if validKey(key) != nil {
		return "", false
	}
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[storage] failed to read %q: %v", key, err)
		}
		return "", false
	}
	return string(b), true
}

// Set writes through a temp file and rename, so readers never see a
// partial value.
func (s *FileStorage) Set(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}

	s.remember(key, &value)

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *FileStorage) Remove(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.remember(key, nil)
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Subscribe reports writes made by other FileStorage instances on the same
// directory.
func (s *FileStorage) Subscribe() (<-chan Change, func()) {
	return s.subs.subscribe(s)
}

func (s *FileStorage) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	err := s.watcher.Close()
	s.wg.Wait()
	s.subs.closeAll()
	return err
}

func (s *FileStorage) remember(key string, value *string) {
	s.mu.Lock()
	s.known[key] = value
	s.mu.Unlock()
}

// observe records the current state of key and reports whether it differs
// from what this instance last saw or wrote.
func (s *FileStorage) observe(key string, value *string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, seen := s.known[key]
	s.known[key] = value
	if !seen {
		return true
	}
	switch {
	case prev == nil && value == nil:
		return false
	case prev == nil || value == nil:
		return true
	default:
		return *prev != *value
	}
}

func (s *FileStorage) watch() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[storage] watcher error on %s: %v", s.dir, err)
		}
	}
}

func (s *FileStorage) handleEvent(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	key := strings.TrimSuffix(name, fileExt)

	var change Change
	if value, ok := s.Get(key); ok {
		if !s.observe(key, &value) {
			return
		}
		change = Change{Key: key, Value: value}
	} else {
		if !s.observe(key, nil) {
			return
		}
		change = Change{Key: key, Removed: true}
	}
	s.subs.publish(nil, change)
}
