// Package syncer owns the binding between this client and a shared remote
// family group, and moves snapshots in both directions: the controller pushes
// local state out, the reconciler merges remote change notifications in.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"kudos/internal/docstore"
	"kudos/internal/localcache"
	"kudos/internal/model"
)

// Collection is the remote collection holding one document per family group.
const Collection = "familyGroups"

// ErrRemoteUnavailable means no remote store is configured; callers fall back
// to local-only mode.
var ErrRemoteUnavailable = errors.New("remote store not configured")

// Controller manages the group binding lifecycle: Unbound -> Bound(groupID)
// -> Unbound. It is the only writer of the persisted group id.
type Controller struct {
	store docstore.Store // nil when no remote store is configured
	cache *localcache.Cache
	log   zerolog.Logger

	mu         sync.Mutex
	groupID    string
	dataLoaded bool
}

// NewController restores any persisted binding from the cache.
func NewController(store docstore.Store, cache *localcache.Cache, log zerolog.Logger) (*Controller, error) {
	id, err := cache.LoadGroupID()
	if err != nil {
		return nil, fmt.Errorf("restore group binding: %w", err)
	}
	return &Controller{store: store, cache: cache, log: log, groupID: id}, nil
}

// GroupID returns the bound group id, and whether a binding exists.
func (c *Controller) GroupID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupID, c.groupID != ""
}

// MarkLoaded records that local hydration has settled. Pushes are suppressed
// until then so a default or stale snapshot cannot clobber the authoritative
// remote state right after joining.
func (c *Controller) MarkLoaded() {
	c.mu.Lock()
	c.dataLoaded = true
	c.mu.Unlock()
}

// CreateGroup seeds a brand-new remote document with the local snapshot and
// binds to it. The client stays Unbound on any failure.
func (c *Controller) CreateGroup(ctx context.Context, snap model.Snapshot) (string, error) {
	if c.store == nil {
		return "", ErrRemoteUnavailable
	}
	doc, err := snap.EncodeDocument()
	if err != nil {
		return "", err
	}
	id, err := c.store.Create(ctx, Collection, doc)
	if err != nil {
		return "", fmt.Errorf("create group: %w", err)
	}

	c.mu.Lock()
	c.groupID = id
	c.dataLoaded = true
	c.mu.Unlock()

	if err := c.cache.SaveGroupID(id); err != nil {
		// The binding holds for this run; it just won't survive a restart.
		c.log.Error().Err(err).Str("group_id", id).Msg("persist group binding failed")
	}
	return id, nil
}

// JoinGroup reads the remote document and binds to it. The returned snapshot
// replaces local state; an absent quickTaskSeeds field is defaulted. On any
// failure the client stays Unbound and local state is untouched.
func (c *Controller) JoinGroup(ctx context.Context, groupID string) (model.Snapshot, error) {
	if c.store == nil {
		return model.Snapshot{}, ErrRemoteUnavailable
	}
	doc, err := c.store.Read(ctx, Collection, groupID)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("join group %s: %w", groupID, err)
	}
	snap, err := model.DecodeDocument(doc)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("join group %s: %w", groupID, err)
	}
	if snap.QuickTasks == nil {
		snap.QuickTasks = model.DefaultQuickTasks()
	}

	if err := c.cache.SaveSnapshot(snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("join group %s: cache snapshot: %w", groupID, err)
	}

	c.mu.Lock()
	c.groupID = groupID
	c.dataLoaded = true
	c.mu.Unlock()

	if err := c.cache.SaveGroupID(groupID); err != nil {
		c.log.Error().Err(err).Str("group_id", groupID).Msg("persist group binding failed")
	}
	return snap, nil
}

// LeaveGroup clears the binding. Local only, always succeeds; the remote
// document stays for the other bound clients.
func (c *Controller) LeaveGroup() {
	c.mu.Lock()
	c.groupID = ""
	c.mu.Unlock()

	if err := c.cache.ClearGroupID(); err != nil {
		c.log.Error().Err(err).Msg("clear group binding failed")
	}
}

// Push writes the full snapshot to the bound remote document with a
// document-level merge. Failures are logged only: the local write already
// succeeded before Push was attempted and must never be rolled back.
func (c *Controller) Push(ctx context.Context, snap model.Snapshot) {
	c.mu.Lock()
	groupID, loaded := c.groupID, c.dataLoaded
	c.mu.Unlock()

	if groupID == "" {
		return
	}
	if c.store == nil {
		// A binding can survive in the cache after sync is unconfigured.
		// Stay local-only rather than failing the mutation.
		c.log.Debug().Str("group_id", groupID).Msg("push skipped: remote store not configured")
		return
	}
	if !loaded {
		c.log.Debug().Str("group_id", groupID).Msg("push suppressed before first hydration")
		return
	}

	doc, err := snap.EncodeDocument()
	if err != nil {
		c.log.Error().Err(err).Str("group_id", groupID).Msg("encode snapshot failed")
		return
	}
	if err := c.store.Write(ctx, Collection, groupID, doc, true); err != nil {
		c.log.Error().Err(err).Str("group_id", groupID).Msg("push to remote store failed")
	}
}
