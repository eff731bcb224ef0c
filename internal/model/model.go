// Package model defines the shared family data types and their document form.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Document field names used by the remote store.
const (
	FieldTasks      = "tasks"
	FieldMembers    = "members"
	FieldQuickTasks = "quickTaskSeeds"
)

// Avatar is the rendered identity of a family member.
type Avatar struct {
	Initial string `json:"initial"`
	Color   string `json:"color"`
}

// FamilyMember is one person in the family roster.
type FamilyMember struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar Avatar `json:"avatar"`
}

// Task is one logged contribution.
// Timestamp is an RFC 3339 string to match the shared wire shape.
type Task struct {
	ID                int64  `json:"id"`
	Description       string `json:"description"`
	MemberID          int64  `json:"memberId"`
	AppreciationCount int    `json:"appreciationCount"`
	Timestamp         string `json:"timestamp"`
}

// Snapshot is the complete shared state of one family group.
// It is always read and written as a whole.
type Snapshot struct {
	Tasks      []Task
	Members    []FamilyMember
	QuickTasks []string
}

// AvatarColors is the rotating palette for new members.
var AvatarColors = []string{
	"bg-pink-500",
	"bg-blue-600",
	"bg-green-500",
	"bg-purple-500",
	"bg-orange-500",
	"bg-yellow-500",
	"bg-teal-500",
	"bg-indigo-500",
}

// DefaultMembers returns the starter roster for a fresh install.
func DefaultMembers() []FamilyMember {
	return []FamilyMember{
		{ID: 1, Name: "Mom", Avatar: Avatar{Initial: "M", Color: "bg-pink-500"}},
		{ID: 2, Name: "Dad", Avatar: Avatar{Initial: "D", Color: "bg-blue-600"}},
		{ID: 3, Name: "Alex", Avatar: Avatar{Initial: "A", Color: "bg-green-500"}},
		{ID: 4, Name: "Bella", Avatar: Avatar{Initial: "B", Color: "bg-purple-500"}},
	}
}

// DefaultQuickTasks returns the starter quick-task suggestion seeds.
func DefaultQuickTasks() []string {
	return []string{
		"Did the dishes",
		"Took out the trash",
		"Walked the dog",
		"Made dinner",
		"Cleaned their room",
	}
}

// NewMember builds a member with a derived avatar. position is the current
// roster size and selects the avatar color.
func NewMember(name string, position int) FamilyMember {
	initial := ""
	for _, r := range strings.TrimSpace(name) {
		initial = string(unicode.ToUpper(r))
		break
	}
	return FamilyMember{
		ID:   time.Now().UnixMilli(),
		Name: strings.TrimSpace(name),
		Avatar: Avatar{
			Initial: initial,
			Color:   AvatarColors[position%len(AvatarColors)],
		},
	}
}

// NewTask builds a task stamped with the current wall clock.
func NewTask(memberID int64, description string) Task {
	now := time.Now()
	return Task{
		ID:          now.UnixMilli(),
		Description: description,
		MemberID:    memberID,
		Timestamp:   now.UTC().Format(time.RFC3339),
	}
}

// MemberName resolves a member id to a display name. Dangling references
// render as "Someone" rather than failing.
func (s *Snapshot) MemberName(id int64) string {
	for _, m := range s.Members {
		if m.ID == id {
			return m.Name
		}
	}
	return "Someone"
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() Snapshot {
	out := Snapshot{
		Tasks:      make([]Task, len(s.Tasks)),
		Members:    make([]FamilyMember, len(s.Members)),
		QuickTasks: make([]string, len(s.QuickTasks)),
	}
	copy(out.Tasks, s.Tasks)
	copy(out.Members, s.Members)
	copy(out.QuickTasks, s.QuickTasks)
	return out
}

// EncodeDocument serializes the snapshot into the remote document field map.
// Nil slices encode as empty arrays so two clients agree on the wire form.
func (s *Snapshot) EncodeDocument() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage, 3)
	for field, v := range map[string]any{
		FieldTasks:      emptyIfNil(s.Tasks),
		FieldMembers:    emptyIfNil(s.Members),
		FieldQuickTasks: emptyIfNil(s.QuickTasks),
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", field, err)
		}
		doc[field] = data
	}
	return doc, nil
}

// DecodeDocument builds a snapshot from a remote document field map.
// An absent quickTaskSeeds field leaves QuickTasks nil; callers default it.
func DecodeDocument(doc map[string]json.RawMessage) (Snapshot, error) {
	var s Snapshot
	if raw, ok := doc[FieldTasks]; ok {
		if err := json.Unmarshal(raw, &s.Tasks); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", FieldTasks, err)
		}
	}
	if raw, ok := doc[FieldMembers]; ok {
		if err := json.Unmarshal(raw, &s.Members); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", FieldMembers, err)
		}
	}
	if raw, ok := doc[FieldQuickTasks]; ok {
		if err := json.Unmarshal(raw, &s.QuickTasks); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", FieldQuickTasks, err)
		}
	}
	return s, nil
}

func emptyIfNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
