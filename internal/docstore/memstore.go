package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-process Store. It backs tests and single-device use;
// subscribers are notified synchronously with a copy of the latest document.
type MemStore struct {
	mu      sync.Mutex
	docs    map[string]Document // collection/id -> document
	subs    map[string]map[int]func(Document)
	nextSub int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]Document),
		subs: make(map[string]map[int]func(Document)),
	}
}

func key(collection, id string) string {
	return collection + "/" + id
}

// Create implements Store.
func (s *MemStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.docs[key(collection, id)] = Clone(doc)
	s.mu.Unlock()
	return id, nil
}

// Read implements Store.
func (s *MemStore) Read(ctx context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key(collection, id)]
	if !ok {
		return nil, ErrNotFound
	}
	return Clone(doc), nil
}

// Write implements Store.
func (s *MemStore) Write(ctx context.Context, collection, id string, doc Document, merge bool) error {
	k := key(collection, id)

	s.mu.Lock()
	stored, ok := s.docs[k]
	if !merge || !ok {
		stored = make(Document, len(doc))
	} else {
		stored = Clone(stored)
	}
	for field, v := range doc {
		stored[field] = append([]byte(nil), v...)
	}
	s.docs[k] = stored

	// Snapshot the subscriber list so callbacks run outside the lock and may
	// re-enter the store.
	var notify []func(Document)
	for _, fn := range s.subs[k] {
		notify = append(notify, fn)
	}
	s.mu.Unlock()

	for _, fn := range notify {
		fn(Clone(stored))
	}
	return nil
}

// Subscribe implements Store.
func (s *MemStore) Subscribe(collection, id string, onChange func(Document), onError func(error)) (CancelFunc, error) {
	k := key(collection, id)

	s.mu.Lock()
	s.nextSub++
	token := s.nextSub
	if s.subs[k] == nil {
		s.subs[k] = make(map[int]func(Document))
	}
	s.subs[k][token] = onChange
	current, exists := s.docs[k]
	if exists {
		current = Clone(current)
	}
	s.mu.Unlock()

	if exists {
		onChange(current)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[k], token)
			s.mu.Unlock()
		})
	}
	return cancel, nil
}
