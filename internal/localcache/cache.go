// Package localcache is the durable local slot store. It owns the on-disk
// copy of the family snapshot and the group binding for this client.
package localcache

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"kudos/internal/model"
)

// Slot names.
const (
	SlotGroupID    = "group_id"
	SlotTasks      = "tasks"
	SlotMembers    = "members"
	SlotQuickTasks = "quick_task_seeds"
)

var bucketSlots = []byte("slots")

// Cache is a bbolt-backed key-value store scoped to named slots.
type Cache struct {
	db *bolt.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSlots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the slot value, or nil when the slot is absent.
func (c *Cache) Get(slot string) ([]byte, error) {
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSlots).Get([]byte(slot)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

// Put stores a slot value.
func (c *Cache) Put(slot string, value []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSlots).Put([]byte(slot), value)
	})
}

// Delete removes a slot. Deleting an absent slot is not an error.
func (c *Cache) Delete(slot string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSlots).Delete([]byte(slot))
	})
}

// SaveSnapshot persists all three snapshot slots in one transaction.
func (c *Cache) SaveSnapshot(s model.Snapshot) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSlots)
		for slot, v := range map[string]any{
			SlotTasks:      s.Tasks,
			SlotMembers:    s.Members,
			SlotQuickTasks: s.QuickTasks,
		} {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode %s: %w", slot, err)
			}
			if err := b.Put([]byte(slot), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSnapshot reads the cached snapshot. ok is false when nothing has ever
// been persisted, so the caller can fall back to defaults.
func (c *Cache) LoadSnapshot() (s model.Snapshot, ok bool, err error) {
	err = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSlots)
		for slot, dst := range map[string]any{
			SlotTasks:      &s.Tasks,
			SlotMembers:    &s.Members,
			SlotQuickTasks: &s.QuickTasks,
		} {
			v := b.Get([]byte(slot))
			if v == nil {
				continue
			}
			ok = true
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("decode %s: %w", slot, err)
			}
		}
		return nil
	})
	if err != nil {
		return model.Snapshot{}, false, err
	}
	return s, ok, nil
}

// SaveGroupID persists the bound group id.
func (c *Cache) SaveGroupID(id string) error {
	return c.Put(SlotGroupID, []byte(id))
}

// LoadGroupID returns the persisted group id, or "" when unbound.
func (c *Cache) LoadGroupID() (string, error) {
	v, err := c.Get(SlotGroupID)
	return string(v), err
}

// ClearGroupID removes the persisted group binding.
func (c *Cache) ClearGroupID() error {
	return c.Delete(SlotGroupID)
}
