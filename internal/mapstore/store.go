// Package mapstore keeps rendered map artifacts on disk and maintains an
// in-memory index of them, kept consistent with external file changes via
// fsnotify.
package mapstore

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	filePrefix = "urban_heat_map_"
	fileSuffix = ".html"
)

// ErrInvalidName is returned for names outside the map artifact policy.
var ErrInvalidName = fmt.Errorf("invalid map file name")

// Info describes one stored map artifact.
type Info struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Store is a directory-backed registry of rendered maps.
type Store struct {
	dir string

	mu    sync.RWMutex
	index map[string]Info

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
}

// Open creates the maps directory if needed, indexes existing artifacts,
// and starts watching for external changes.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create maps dir: %w", err)
	}

	st := &Store{
		dir:   dir,
		index: make(map[string]Info),
		done:  make(chan struct{}),
	}
	if err := st.rescan(); err != nil {
		return nil, err
	}

	fsW, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsW.Add(dir); err != nil {
		fsW.Close()
		return nil, fmt.Errorf("watch maps dir: %w", err)
	}
	st.fsWatcher = fsW

	go st.watchLoop()
	return st, nil
}

// ValidName reports whether a name matches the artifact policy: a bare
// file name of the form urban_heat_map_*.html.
func ValidName(name string) bool {
	return name != "" &&
		filepath.Base(name) == name &&
		strings.HasPrefix(name, filePrefix) &&
		strings.HasSuffix(name, fileSuffix)
}

// Save writes a map artifact and records it in the index.
func (st *Store) Save(name, html string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}

	path := filepath.Join(st.dir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write map: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat map: %w", err)
	}
	st.record(name, info.Size(), info.ModTime())
	return nil
}

// Path returns the on-disk path of an artifact if it exists.
func (st *Store) Path(name string) (string, bool) {
	if !ValidName(name) {
		return "", false
	}

	st.mu.RLock()
	_, ok := st.index[name]
	st.mu.RUnlock()
	if !ok {
		return "", false
	}
	return filepath.Join(st.dir, name), true
}

// Delete removes an artifact. Deleting a missing artifact is not an error,
// matching the idempotent delete the API exposes.
func (st *Store) Delete(name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}

	st.mu.Lock()
	delete(st.index, name)
	st.mu.Unlock()

	err := os.Remove(filepath.Join(st.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete map: %w", err)
	}
	return nil
}

// List returns the indexed artifacts sorted by name.
func (st *Store) List() []Info {
	st.mu.RLock()
	out := make([]Info, 0, len(st.index))
	for _, info := range st.index {
		out = append(out, info)
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close stops the directory watcher.
func (st *Store) Close() {
	close(st.done)
	if st.fsWatcher != nil {
		st.fsWatcher.Close()
	}
}

func (st *Store) record(name string, size int64, modTime time.Time) {
	st.mu.Lock()
	st.index[name] = Info{Name: name, Size: size, ModTime: modTime.UTC()}
	st.mu.Unlock()
}

// rescan rebuilds the index from the directory contents.
func (st *Store) rescan() error {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return fmt.Errorf("read maps dir: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.index = make(map[string]Info)
	for _, entry := range entries {
		if entry.IsDir() || !ValidName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		st.index[entry.Name()] = Info{Name: entry.Name(), Size: info.Size(), ModTime: info.ModTime().UTC()}
	}
	return nil
}

// watchLoop keeps the index in sync when files are added or removed
// outside the API.
func (st *Store) watchLoop() {
	for {
		select {
		case <-st.done:
			return

		case event, ok := <-st.fsWatcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !ValidName(name) {
				continue
			}

			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				st.mu.Lock()
				delete(st.index, name)
				st.mu.Unlock()

			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				if info, err := os.Stat(event.Name); err == nil && !info.IsDir() {
					st.record(name, info.Size(), info.ModTime())
				}
			}

		case err, ok := <-st.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("mapstore watcher error: %v", err)
		}
	}
}
