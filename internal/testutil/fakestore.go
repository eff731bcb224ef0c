package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"kudos/internal/docstore"
	"kudos/internal/family"
	"kudos/internal/localcache"
	"kudos/internal/syncer"
)

// FaultStore wraps a Store with per-operation error injection for testing.
type FaultStore struct {
	docstore.Store

	CreateErr    error
	ReadErr      error
	WriteErr     error
	SubscribeErr error
}

// Create implements docstore.Store.
func (f *FaultStore) Create(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	return f.Store.Create(ctx, collection, doc)
}

// Read implements docstore.Store.
func (f *FaultStore) Read(ctx context.Context, collection, id string) (docstore.Document, error) {
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	return f.Store.Read(ctx, collection, id)
}

// Write implements docstore.Store.
func (f *FaultStore) Write(ctx context.Context, collection, id string, doc docstore.Document, merge bool) error {
	if f.WriteErr != nil {
		return f.WriteErr
	}
	return f.Store.Write(ctx, collection, id, doc, merge)
}

// Subscribe implements docstore.Store.
func (f *FaultStore) Subscribe(collection, id string, onChange func(docstore.Document), onError func(error)) (docstore.CancelFunc, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	return f.Store.Subscribe(collection, id, onChange, onError)
}

// NewCache opens a throwaway local cache under t.TempDir.
func NewCache(t *testing.T) *localcache.Cache {
	t.Helper()
	cache, err := localcache.Open(filepath.Join(t.TempDir(), "kudos.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

// NewService builds a hydrated family service over the given store.
// store may be nil for local-only mode. Notifications are disabled.
func NewService(t *testing.T, store docstore.Store) *family.Service {
	t.Helper()
	cache := NewCache(t)
	log := zerolog.Nop()

	ctrl, err := syncer.NewController(store, cache, log)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	var recon *syncer.Reconciler
	if store != nil {
		recon = syncer.NewReconciler(store, log)
	}

	svc := family.NewService(cache, ctrl, recon, nil, nil, log)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return svc
}
