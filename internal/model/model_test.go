package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeDocument(t *testing.T) {
	snap := Snapshot{
		Tasks: []Task{
			{ID: 10, Description: "Made dinner", MemberID: 2, AppreciationCount: 3, Timestamp: "2026-03-14T09:00:00Z"},
		},
		Members:    DefaultMembers(),
		QuickTasks: []string{"Did the dishes"},
	}

	doc, err := snap.EncodeDocument()
	require.NoError(t, err)
	require.Contains(t, doc, FieldTasks)
	require.Contains(t, doc, FieldMembers)
	require.Contains(t, doc, FieldQuickTasks)

	got, err := DecodeDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, snap.Tasks, got.Tasks)
	assert.Equal(t, snap.Members, got.Members)
	assert.Equal(t, snap.QuickTasks, got.QuickTasks)
}

func TestEncodeDocument_NilSlicesAsArrays(t *testing.T) {
	var snap Snapshot
	doc, err := snap.EncodeDocument()
	require.NoError(t, err)
	for _, field := range []string{FieldTasks, FieldMembers, FieldQuickTasks} {
		assert.JSONEq(t, "[]", string(doc[field]), field)
	}
}

func TestEncodeDocument_CamelCaseTaskFields(t *testing.T) {
	snap := Snapshot{Tasks: []Task{{ID: 1, MemberID: 2, AppreciationCount: 1}}}
	doc, err := snap.EncodeDocument()
	require.NoError(t, err)

	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(doc[FieldTasks], &tasks))
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0], "memberId")
	assert.Contains(t, tasks[0], "appreciationCount")
}

func TestDecodeDocument_AbsentSeedsStayNil(t *testing.T) {
	doc := map[string]json.RawMessage{
		FieldTasks:   json.RawMessage(`[]`),
		FieldMembers: json.RawMessage(`[]`),
	}
	got, err := DecodeDocument(doc)
	require.NoError(t, err)
	assert.Nil(t, got.QuickTasks)
}

func TestDecodeDocument_Malformed(t *testing.T) {
	doc := map[string]json.RawMessage{
		FieldTasks: json.RawMessage(`{"not":"an array"}`),
	}
	_, err := DecodeDocument(doc)
	assert.Error(t, err)
}

func TestMemberName(t *testing.T) {
	snap := Snapshot{Members: DefaultMembers()}
	assert.Equal(t, "Mom", snap.MemberName(1))
	assert.Equal(t, "Someone", snap.MemberName(999))
}

func TestNewMember(t *testing.T) {
	m := NewMember("  zoe ", 9)
	assert.Equal(t, "zoe", m.Name)
	assert.Equal(t, "Z", m.Avatar.Initial)
	// position 9 wraps around the palette
	assert.Equal(t, AvatarColors[9%len(AvatarColors)], m.Avatar.Color)
	assert.NotZero(t, m.ID)
}

func TestClone_Independent(t *testing.T) {
	snap := Snapshot{
		Tasks:      []Task{{ID: 1, Description: "Walked the dog"}},
		Members:    DefaultMembers(),
		QuickTasks: DefaultQuickTasks(),
	}
	clone := snap.Clone()
	clone.Tasks[0].Description = "changed"
	clone.QuickTasks[0] = "changed"
	assert.Equal(t, "Walked the dog", snap.Tasks[0].Description)
	assert.Equal(t, "Did the dishes", snap.QuickTasks[0])
}
