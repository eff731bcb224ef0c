// Package family holds the live snapshot and the mutation handlers around
// it. Every mutation commits locally first; the remote push that follows is
// best effort and never rolls local state back.
package family

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"kudos/internal/docstore"
	"kudos/internal/encourage"
	"kudos/internal/localcache"
	"kudos/internal/model"
	"kudos/internal/notify"
	"kudos/internal/syncer"
)

var (
	// ErrMemberNotFound is returned when a member name or id resolves to nothing.
	ErrMemberNotFound = errors.New("member not found")

	// ErrAmbiguousMember is returned when a name matches several members.
	ErrAmbiguousMember = errors.New("ambiguous member name")

	// ErrTaskNotFound is returned when a task reference resolves to nothing.
	ErrTaskNotFound = errors.New("task not found")
)

// Service is the single owner of the in-memory snapshot.
type Service struct {
	cache    *localcache.Cache
	ctrl     *syncer.Controller
	recon    *syncer.Reconciler // nil when no remote store is configured
	notifier *notify.Dispatcher // nil when notifications are disabled
	gen      encourage.Generator
	log      zerolog.Logger

	mu      sync.Mutex
	snap    model.Snapshot
	onMerge func(model.Snapshot)
}

// NewService wires the state service. recon and notifier may be nil.
func NewService(cache *localcache.Cache, ctrl *syncer.Controller, recon *syncer.Reconciler, notifier *notify.Dispatcher, gen encourage.Generator, log zerolog.Logger) *Service {
	if gen == nil {
		gen = encourage.Fallback{}
	}
	return &Service{cache: cache, ctrl: ctrl, recon: recon, notifier: notifier, gen: gen, log: log}
}

// Load hydrates the snapshot from the local cache, falling back to the
// default roster and quick-task seeds on first run or a corrupt cache, then
// reopens the live subscription when a group binding was restored.
func (s *Service) Load(ctx context.Context) error {
	snap, ok, err := s.cache.LoadSnapshot()
	if err != nil {
		s.log.Error().Err(err).Msg("cache unreadable; resetting to defaults")
		snap, ok = model.Snapshot{}, false
	}
	if !ok || snap.Members == nil {
		snap.Members = model.DefaultMembers()
	}
	if snap.QuickTasks == nil {
		snap.QuickTasks = model.DefaultQuickTasks()
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if err := s.cache.SaveSnapshot(snap); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	s.ctrl.MarkLoaded()
	s.resubscribe()
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// GroupID reports the current group binding.
func (s *Service) GroupID() (string, bool) {
	return s.ctrl.GroupID()
}

// commit applies a mutation under the lock, persists the result locally, and
// then pushes it to the remote store. The two stages are decoupled: a failed
// push is logged and leaves the committed local state alone.
func (s *Service) commit(ctx context.Context, mutate func(*model.Snapshot)) model.Snapshot {
	s.mu.Lock()
	mutate(&s.snap)
	snap := s.snap.Clone()
	s.mu.Unlock()

	if err := s.cache.SaveSnapshot(snap); err != nil {
		s.log.Error().Err(err).Msg("persist snapshot failed")
	}
	s.ctrl.Push(ctx, snap)
	return snap
}

// ResolveMember finds a member by display name, case-insensitive and trimmed.
func (s *Service) ResolveMember(name string) (model.FamilyMember, error) {
	target := strings.ToLower(strings.TrimSpace(name))

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []model.FamilyMember
	for _, m := range s.snap.Members {
		if strings.ToLower(strings.TrimSpace(m.Name)) == target {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return model.FamilyMember{}, ErrMemberNotFound
	case 1:
		return matches[0], nil
	default:
		return model.FamilyMember{}, ErrAmbiguousMember
	}
}

// TaskAt resolves a 1-based position in the newest-first task listing.
func (s *Service) TaskAt(pos int) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos < 1 || pos > len(s.snap.Tasks) {
		return model.Task{}, ErrTaskNotFound
	}
	return s.snap.Tasks[pos-1], nil
}

// AddTask logs a completed task for a member, newest first. The encouragement
// line and the chat notification are best effort and never fail the action.
func (s *Service) AddTask(ctx context.Context, memberID int64, description string) (model.Task, string) {
	task := model.NewTask(memberID, description)
	snap := s.commit(ctx, func(sn *model.Snapshot) {
		sn.Tasks = append([]model.Task{task}, sn.Tasks...)
	})

	actor := snap.MemberName(memberID)
	message, err := s.gen.Encouragement(ctx, actor, description)
	if err != nil {
		s.log.Warn().Err(err).Msg("encouragement generator failed; using fallback")
		message, _ = encourage.Fallback{}.Encouragement(ctx, actor, description)
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, notify.Event{
			Actor:       actor,
			Description: description,
			Message:     message,
		})
	}
	return task, message
}

// AppreciateTask increments a task's appreciation count.
func (s *Service) AppreciateTask(ctx context.Context, taskID int64) error {
	found := false
	s.commit(ctx, func(sn *model.Snapshot) {
		for i := range sn.Tasks {
			if sn.Tasks[i].ID == taskID {
				sn.Tasks[i].AppreciationCount++
				found = true
				return
			}
		}
	})
	if !found {
		return ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, taskID int64) error {
	found := false
	s.commit(ctx, func(sn *model.Snapshot) {
		for i := range sn.Tasks {
			if sn.Tasks[i].ID == taskID {
				sn.Tasks = append(sn.Tasks[:i], sn.Tasks[i+1:]...)
				found = true
				return
			}
		}
	})
	if !found {
		return ErrTaskNotFound
	}
	return nil
}

// AddMember appends a member with a derived avatar.
func (s *Service) AddMember(ctx context.Context, name string) (model.FamilyMember, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.FamilyMember{}, errors.New("member name required")
	}
	var member model.FamilyMember
	s.commit(ctx, func(sn *model.Snapshot) {
		member = model.NewMember(name, len(sn.Members))
		sn.Members = append(sn.Members, member)
	})
	return member, nil
}

// RemoveMember drops a member from the roster. Their tasks stay and render
// as orphaned.
func (s *Service) RemoveMember(ctx context.Context, memberID int64) error {
	found := false
	s.commit(ctx, func(sn *model.Snapshot) {
		for i := range sn.Members {
			if sn.Members[i].ID == memberID {
				sn.Members = append(sn.Members[:i], sn.Members[i+1:]...)
				found = true
				return
			}
		}
	})
	if !found {
		return ErrMemberNotFound
	}
	return nil
}

// AddQuickTask appends a quick-task suggestion seed.
func (s *Service) AddQuickTask(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("suggestion text required")
	}
	s.commit(ctx, func(sn *model.Snapshot) {
		for _, existing := range sn.QuickTasks {
			if existing == text {
				return
			}
		}
		sn.QuickTasks = append(sn.QuickTasks, text)
	})
	return nil
}

// RemoveQuickTask drops a quick-task suggestion seed.
func (s *Service) RemoveQuickTask(ctx context.Context, text string) error {
	found := false
	s.commit(ctx, func(sn *model.Snapshot) {
		for i, existing := range sn.QuickTasks {
			if existing == text {
				sn.QuickTasks = append(sn.QuickTasks[:i], sn.QuickTasks[i+1:]...)
				found = true
				return
			}
		}
	})
	if !found {
		return errors.New("suggestion not found")
	}
	return nil
}

// CreateGroup publishes the current snapshot as a new shared group.
func (s *Service) CreateGroup(ctx context.Context) (string, error) {
	id, err := s.ctrl.CreateGroup(ctx, s.Snapshot())
	if err != nil {
		return "", err
	}
	s.resubscribe()
	return id, nil
}

// JoinGroup binds to an existing group and replaces local state with its
// snapshot. On failure local state is unchanged and the client stays unbound.
func (s *Service) JoinGroup(ctx context.Context, groupID string) error {
	snap, err := s.ctrl.JoinGroup(ctx, groupID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	s.resubscribe()
	return nil
}

// LeaveGroup clears the binding and stops the live subscription. The remote
// document is untouched.
func (s *Service) LeaveGroup() {
	s.ctrl.LeaveGroup()
	if s.recon != nil {
		s.recon.Unsubscribe()
	}
}

// resubscribe aligns the live subscription with the current binding.
func (s *Service) resubscribe() {
	if s.recon == nil {
		return
	}
	groupID, bound := s.ctrl.GroupID()
	if !bound {
		s.recon.Unsubscribe()
		return
	}
	_, err := s.recon.Subscribe(groupID, s.applyRemote, func(err error) {
		s.log.Error().Err(err).Str("group_id", groupID).Msg("subscription error")
	})
	if err != nil {
		s.log.Error().Err(err).Str("group_id", groupID).Msg("subscribe failed")
	}
}

// applyRemote merges an inbound remote document. Tasks, members, and seeds
// are compared field by field in serialized form and replaced independently,
// so a self-echo cannot overwrite a local mutation that landed after the
// push it echoes.
func (s *Service) applyRemote(doc docstore.Document) {
	incoming, err := model.DecodeDocument(doc)
	if err != nil {
		s.log.Error().Err(err).Msg("malformed remote snapshot ignored")
		return
	}

	s.mu.Lock()
	changed := false
	if raw, ok := doc[model.FieldTasks]; ok && !fieldEqual(raw, s.snap.Tasks) {
		s.snap.Tasks = incoming.Tasks
		changed = true
	}
	if raw, ok := doc[model.FieldMembers]; ok && !fieldEqual(raw, s.snap.Members) {
		s.snap.Members = incoming.Members
		changed = true
	}
	if raw, ok := doc[model.FieldQuickTasks]; ok && !fieldEqual(raw, s.snap.QuickTasks) {
		s.snap.QuickTasks = incoming.QuickTasks
		changed = true
	}
	var snap model.Snapshot
	if changed {
		snap = s.snap.Clone()
	}
	onMerge := s.onMerge
	s.mu.Unlock()

	if !changed {
		return
	}
	s.log.Info().Msg("merged remote snapshot")
	if err := s.cache.SaveSnapshot(snap); err != nil {
		s.log.Error().Err(err).Msg("persist merged snapshot failed")
	}
	if onMerge != nil {
		onMerge(snap)
	}
}

// SetOnMerge registers a callback invoked after each remote snapshot merge.
// The callback receives a clone and runs outside the service lock.
func (s *Service) SetOnMerge(fn func(model.Snapshot)) {
	s.mu.Lock()
	s.onMerge = fn
	s.mu.Unlock()
}

// Close tears down the subscription and releases the local cache.
func (s *Service) Close() error {
	if s.recon != nil {
		s.recon.Unsubscribe()
	}
	return s.cache.Close()
}

// fieldEqual compares a remote field's raw JSON against the serialized form
// of the local value. The remote side is compacted first so formatting
// differences between backends do not read as changes.
func fieldEqual(raw json.RawMessage, local any) bool {
	localRaw, err := json.Marshal(local)
	if err != nil {
		return false
	}
	var compacted bytes.Buffer
	if err := json.Compact(&compacted, raw); err != nil {
		return false
	}
	return bytes.Equal(compacted.Bytes(), localRaw)
}
