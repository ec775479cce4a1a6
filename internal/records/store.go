// Package records owns the canonical expense list and keeps it written
// through to a storage.BlobStore on every mutation.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"spendsmart/internal/core"
	"spendsmart/internal/log"
	"spendsmart/internal/storage"
)

// DefaultKey is the storage key holding the serialized collection.
const DefaultKey = "ss-expenses"

// IDGenerator returns a new opaque record id.
type IDGenerator func() string

// Store is the in-memory list of expenses, newest first, mirrored to a
// blob after every successful mutation.
type Store struct {
	mu      sync.Mutex
	blob    storage.BlobStore
	key     string
	newID   IDGenerator
	logger  *log.Logger
	items   []core.Expense
	version uint64
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger used for recovered load failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger.WithComponent(log.ComponentStore) }
}

// New creates a store over blob and loads whatever is persisted there.
func New(ctx context.Context, blob storage.BlobStore, opts ...Option) *Store {
	s := &Store{
		blob:   blob,
		key:    DefaultKey,
		newID:  uuid.NewString,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.items = loadWithLogger(ctx, s.logger, blob, s.key, nil)
	return s
}

// Load reads the collection stored under key. A missing key, a failed
// read or an unparseable payload all yield fallback.
func Load(ctx context.Context, blob storage.BlobReader, key string, fallback []core.Expense) []core.Expense {
	return loadWithLogger(ctx, log.FromContext(ctx), blob, key, fallback)
}

func loadWithLogger(ctx context.Context, logger *log.Logger, blob storage.BlobReader, key string, fallback []core.Expense) []core.Expense {
	raw, err := blob.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return fallback
	}
	if err != nil {
		logger.WarnContext(ctx, "Failed to read stored expenses, starting from fallback",
			log.FieldStorageKey, key, log.FieldOperation, log.OpLoad, log.FieldError, err)
		return fallback
	}
	if len(raw) == 0 {
		return fallback
	}

	var items []core.Expense
	if err := json.Unmarshal(raw, &items); err != nil {
		logger.WarnContext(ctx, "Stored expenses are corrupt, starting from fallback",
			log.FieldStorageKey, key, log.FieldOperation, log.OpLoad, log.FieldError, err)
		return fallback
	}
	if items == nil {
		// A stored "null" is treated like an absent key.
		return fallback
	}
	return items
}

// Persist serializes records and overwrites key.
func Persist(ctx context.Context, blob storage.BlobWriter, key string, records []core.Expense) error {
	if records == nil {
		records = []core.Expense{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal expenses: %w", err)
	}
	if err := blob.Put(ctx, key, payload); err != nil {
		return fmt.Errorf("persist expenses: %w", err)
	}
	return nil
}

// Add assigns an id, normalizes the input, prepends the record and
// persists. On a persist failure nothing changes in memory.
func (s *Store) Add(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	in = in.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	e := core.Expense{
		ID:       s.uniqueID(),
		Amount:   in.Amount,
		Category: in.Category,
		Note:     in.Note,
		Date:     in.Date,
	}

	next := make([]core.Expense, 0, len(s.items)+1)
	next = append(next, e)
	next = append(next, s.items...)

	if err := Persist(ctx, s.blob, s.key, next); err != nil {
		return core.Expense{}, err
	}
	s.items = next
	s.version++
	return e, nil
}

// Remove deletes the record with id and persists. It reports false, and
// writes nothing, when no such record exists.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.items, func(e core.Expense) bool { return e.ID == id })
	if idx < 0 {
		return false, nil
	}

	next := slices.Delete(slices.Clone(s.items), idx, idx+1)
	if err := Persist(ctx, s.blob, s.key, next); err != nil {
		return false, err
	}
	s.items = next
	s.version++
	return true, nil
}

// Reload replaces the in-memory list with what is persisted.
func (s *Store) Reload(ctx context.Context) {
	items := loadWithLogger(ctx, s.logger, s.blob, s.key, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.version++
}

// Records returns a copy of the collection, newest first.
func (s *Store) Records() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Snapshot returns a copy of the collection together with the version it
// was taken at.
func (s *Store) Snapshot() ([]core.Expense, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items), s.version
}

// Get looks a record up by id.
func (s *Store) Get(id string) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Version increases with every successful mutation or reload.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Key returns the storage key the store persists under.
func (s *Store) Key() string {
	return s.key
}

// uniqueID must be called with s.mu held.
func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id == "" {
			continue
		}
		if !slices.ContainsFunc(s.items, func(e core.Expense) bool { return e.ID == id }) {
			return id
		}
	}
}
