package syncer

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"kudos/internal/docstore"
)

// Reconciler maintains the live subscription to the bound group's document.
// Consecutive notifications carrying the same serialized document are
// suppressed before delivery: the client's own push triggers the store's
// change notification, and without the comparison the client would react to
// its own write. Suppression is by value, not sequence number, because
// ordering between a push and an inbound notification is not guaranteed.
type Reconciler struct {
	store docstore.Store
	log   zerolog.Logger

	mu      sync.Mutex
	gen     int
	cancel  docstore.CancelFunc
	lastRaw []byte
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store docstore.Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Subscribe opens a subscription for groupID, tearing down any previous one
// first so a stale subscription can never deliver into the current group.
// The returned cancel is synchronous and idempotent.
func (r *Reconciler) Subscribe(groupID string, onUpdate func(docstore.Document), onError func(error)) (docstore.CancelFunc, error) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.lastRaw = nil
	r.mu.Unlock()

	deliver := func(doc docstore.Document) {
		raw, err := json.Marshal(doc) // map keys marshal sorted, so this is canonical
		if err != nil {
			onError(err)
			return
		}
		r.mu.Lock()
		if r.gen != gen {
			r.mu.Unlock()
			return
		}
		if bytes.Equal(raw, r.lastRaw) {
			r.mu.Unlock()
			r.log.Debug().Str("group_id", groupID).Msg("suppressed echo notification")
			return
		}
		r.lastRaw = raw
		r.mu.Unlock()
		onUpdate(doc)
	}

	fail := func(err error) {
		r.mu.Lock()
		stale := r.gen != gen
		r.mu.Unlock()
		if !stale {
			onError(err)
		}
	}

	cancel, err := r.store.Subscribe(Collection, groupID, deliver, fail)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.gen != gen {
		// A newer subscription raced in while we were connecting.
		r.mu.Unlock()
		cancel()
		return func() {}, nil
	}
	r.cancel = cancel
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		if r.gen == gen && r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
		r.mu.Unlock()
	}, nil
}

// Unsubscribe tears down the current subscription, if any. Idempotent.
func (r *Reconciler) Unsubscribe() {
	r.mu.Lock()
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.lastRaw = nil
	r.mu.Unlock()
}
