// Package gallery provides the sample-image store.
// Clean Architecture: Adapter implementing ports.GalleryStore.
// The samples directory is watched with fsnotify so the picker reflects
// adds and removes without a restart.
package gallery

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/visionask/visionask-go/internal/domain/entities"
)

// Store implements ports.GalleryStore over a local directory.
type Store struct {
	dir        string
	extensions []string // image extensions to offer (e.g. ".jpg", ".png")
	watcher    *fsnotify.Watcher

	mu     sync.RWMutex
	images map[string]entities.GalleryImage
}

// NewStore creates a store for the given directory and scans it once.
func NewStore(dir string, extensions []string) (*Store, error) {
	if len(extensions) == 0 {
		extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:        dir,
		extensions: extensions,
		watcher:    w,
		images:     make(map[string]entities.GalleryImage),
	}
	if err := s.scan(); err != nil {
		w.Close()
		return nil, err
	}
	return s, nil
}

// Watch starts reflecting directory changes into the listing until the
// context is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	if err := s.watcher.Add(s.dir); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-s.watcher.Events:
				if !ok {
					return
				}
				if !s.isImageFile(event.Name) {
					continue
				}
				switch {
				case event.Op&fsnotify.Create == fsnotify.Create,
					event.Op&fsnotify.Write == fsnotify.Write:
					s.add(event.Name)
				case event.Op&fsnotify.Remove == fsnotify.Remove,
					event.Op&fsnotify.Rename == fsnotify.Rename:
					s.remove(event.Name)
				}
			case _, ok := <-s.watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

// Stop stops the watcher.
func (s *Store) Stop() error {
	return s.watcher.Close()
}

// List returns the known sample images, sorted by name.
func (s *Store) List() []entities.GalleryImage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	images := make([]entities.GalleryImage, 0, len(s.images))
	for _, img := range s.images {
		images = append(images, img)
	}
	sort.Slice(images, func(i, j int) bool {
		return images[i].Name < images[j].Name
	})
	return images
}

// Open opens a known sample image by name for reading.
// Only listed names resolve; arbitrary paths never reach the filesystem.
func (s *Store) Open(name string) (io.ReadCloser, int64, error) {
	s.mu.RLock()
	img, ok := s.images[name]
	s.mu.RUnlock()
	if !ok {
		return nil, 0, fmt.Errorf("unknown sample image: %s", name)
	}

	f, err := os.Open(img.Path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// scan populates the listing from a directory read.
func (s *Store) scan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		if entry.IsDir() || !s.isImageFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		s.images[entry.Name()] = entities.GalleryImage{
			Name: entry.Name(),
			Path: filepath.Join(s.dir, entry.Name()),
			Size: info.Size(),
		}
	}
	return nil
}

func (s *Store) add(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	name := filepath.Base(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[name] = entities.GalleryImage{
		Name: name,
		Path: path,
		Size: info.Size(),
	}
}

func (s *Store) remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.images, filepath.Base(path))
}

// isImageFile checks the extension against the offered set.
func (s *Store) isImageFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range s.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
