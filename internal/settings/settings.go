package settings

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
)

var ErrNotFound = errors.New("settings not found")

// Blob is an opaque key/value bag of UI state. Only the per-pane accessors
// below know the key layout; stores persist the raw pairs.
type Blob struct {
	values map[string]string
}

// NewBlob creates an empty blob.
func NewBlob() *Blob {
	return &Blob{values: make(map[string]string)}
}

// FromValues wraps raw pairs loaded by a store.
func FromValues(v map[string]string) *Blob {
	b := NewBlob()
	for k, val := range v {
		b.values[k] = val
	}
	return b
}

// Values returns a copy of the raw pairs.
func (b *Blob) Values() map[string]string {
	out := make(map[string]string, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Keys lists the raw keys in sorted order.
func (b *Blob) Keys() []string {
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func key(pane, field string) string { return pane + "." + field }

func (b *Blob) getInt(pane, field string, def int) int {
	s, ok := b.values[key(pane, field)]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func (b *Blob) Index(pane string) int       { return b.getInt(pane, "index", 0) }
func (b *Blob) SetIndex(pane string, i int) { b.values[key(pane, "index")] = strconv.Itoa(i) }

func (b *Blob) Filter(pane string) string       { return b.values[key(pane, "filter")] }
func (b *Blob) SetFilter(pane string, f string) { b.values[key(pane, "filter")] = f }

func (b *Blob) Sort(pane string) string       { return b.values[key(pane, "sort")] }
func (b *Blob) SetSort(pane string, s string) { b.values[key(pane, "sort")] = s }

// Area returns the stored area of pane, or def when nothing was saved.
func (b *Blob) Area(pane string, def int) int { return b.getInt(pane, "area", def) }
func (b *Blob) SetArea(pane string, id int)   { b.values[key(pane, "area")] = strconv.Itoa(id) }

func (b *Blob) InVehicle(pane string) bool { return b.values[key(pane, "in_vehicle")] == "1" }
func (b *Blob) SetInVehicle(pane string, v bool) {
	s := "0"
	if v {
		s = "1"
	}
	b.values[key(pane, "in_vehicle")] = s
}

// Store loads and saves blobs by profile name.
type Store interface {
	Load(ctx context.Context, profile string) (*Blob, error)
	Save(ctx context.Context, profile string, b *Blob) error
}

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]map[string]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]map[string]string)}
}

func (m *MemoryStore) Load(_ context.Context, profile string) (*Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.blobs[profile]
	if !ok {
		return nil, ErrNotFound
	}
	return FromValues(v), nil
}

func (m *MemoryStore) Save(_ context.Context, profile string, b *Blob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[profile] = b.Values()
	return nil
}
