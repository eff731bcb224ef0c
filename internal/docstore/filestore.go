package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FileStore keeps documents as JSON files under a shared directory, one file
// per document at <dir>/<collection>/<id>.json. Pointing every device at the
// same synced folder gives a remote store without a cloud service; change
// notifications come from the filesystem watcher.
type FileStore struct {
	dir string
	log zerolog.Logger
}

// NewFileStore opens (and creates if needed) a file-backed store rooted at dir.
func NewFileStore(dir string, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir, log: log}, nil
}

func (s *FileStore) path(collection, id string) string {
	return filepath.Join(s.dir, collection, id+".json")
}

// Create implements Store.
func (s *FileStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	if err := s.writeFile(collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// Read implements Store.
func (s *FileStore) Read(ctx context.Context, collection, id string) (Document, error) {
	return s.readFile(collection, id)
}

// Write implements Store.
func (s *FileStore) Write(ctx context.Context, collection, id string, doc Document, merge bool) error {
	out := doc
	if merge {
		stored, err := s.readFile(collection, id)
		switch {
		case errors.Is(err, ErrNotFound):
			stored = make(Document)
		case err != nil:
			return err
		}
		for field, v := range doc {
			stored[field] = v
		}
		out = stored
	}
	return s.writeFile(collection, id, out)
}

// Subscribe implements Store. The watcher covers the collection directory
// rather than the file itself so atomic rename writes keep delivering.
func (s *FileStore) Subscribe(collection, id string, onChange func(Document), onError func(error)) (CancelFunc, error) {
	dir := filepath.Join(s.dir, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create collection directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	deliver := func() {
		doc, err := s.readFile(collection, id)
		if errors.Is(err, ErrNotFound) {
			return
		}
		if err != nil {
			onError(err)
			return
		}
		onChange(doc)
	}

	deliver()

	want := id + ".json"
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != want {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				deliver()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onError(err)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			if err := watcher.Close(); err != nil {
				s.log.Debug().Err(err).Msg("close watcher")
			}
		})
	}
	return cancel, nil
}

func (s *FileStore) readFile(collection, id string) (Document, error) {
	data, err := os.ReadFile(s.path(collection, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return doc, nil
}

// writeFile writes via a temp file and rename so readers and watchers never
// observe a partial document.
func (s *FileStore) writeFile(collection, id string, doc Document) error {
	path := s.path(collection, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create collection directory: %w", err)
	}
	// Compact form, so a field read back here is byte-identical to the same
	// field read from any other backend.
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", id, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+id+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
