// Package worker keeps a secondary copy of the expense collection in sync
// by applying the events the API publishes.
//
// Events may be redelivered and may arrive out of order. Removed ids are
// remembered as tombstones so an add that shows up after its remove is
// ignored.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"spendsmart/internal/amqp"
	"spendsmart/internal/core"
	"spendsmart/internal/log"
	"spendsmart/internal/records"
	"spendsmart/internal/storage"
)

// MaxTombstones bounds how many removed ids a replica remembers; the
// oldest are forgotten first.
const MaxTombstones = 1024

// EventSource delivers expense events until ctx is cancelled.
type EventSource interface {
	ConsumeExpenseEvents(ctx context.Context, handler func(*amqp.ExpenseEvent) error) error
}

// Replica mirrors the collection into its own blob. It reads and writes
// the same serialized form as records.Store, so a replica can be promoted
// by pointing the API at it.
type Replica struct {
	mu      sync.Mutex
	blob    storage.BlobStore
	key     string
	logger  *log.Logger
	applied int64
	skipped int64
}

func NewReplica(blob storage.BlobStore, key string, logger *log.Logger) *Replica {
	if key == "" {
		key = records.DefaultKey
	}
	return &Replica{
		blob:   blob,
		key:    key,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Apply folds one event into the replica. Redelivered events are no-ops:
// adding a known or already removed id, or removing an id twice, changes
// nothing.
func (r *Replica) Apply(ctx context.Context, ev *amqp.ExpenseEvent) error {
	if ev == nil {
		return errors.New("nil event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	items := records.Load(ctx, r.blob, r.key, []core.Expense{})
	idx := slices.IndexFunc(items, func(e core.Expense) bool { return e.ID == ev.ID })
	removed := r.loadTombstones(ctx)

	switch ev.Type {
	case amqp.EventExpenseAdded:
		if ev.Expense == nil {
			return fmt.Errorf("%s event for %s carries no expense", ev.Type, ev.ID)
		}
		if idx >= 0 || slices.Contains(removed, ev.ID) {
			r.skip(ctx, ev)
			return nil
		}
		items = append([]core.Expense{*ev.Expense}, items...)
	case amqp.EventExpenseRemoved:
		if !slices.Contains(removed, ev.ID) {
			removed = append(removed, ev.ID)
			if len(removed) > MaxTombstones {
				removed = removed[len(removed)-MaxTombstones:]
			}
			if err := r.saveTombstones(ctx, removed); err != nil {
				return err
			}
		}
		if idx < 0 {
			r.skip(ctx, ev)
			return nil
		}
		items = slices.Delete(items, idx, idx+1)
	default:
		return fmt.Errorf("unsupported event type %q", ev.Type)
	}

	if err := records.Persist(ctx, r.blob, r.key, items); err != nil {
		return err
	}
	atomic.AddInt64(&r.applied, 1)
	r.logger.InfoContext(ctx, "Applied expense event",
		log.FieldOperation, log.OpReplicate,
		log.FieldExpenseID, ev.ID,
		"type", string(ev.Type),
		log.FieldCount, len(items))
	return nil
}

func (r *Replica) tombstoneKey() string {
	return r.key + ".removed"
}

// loadTombstones treats a missing or unreadable list as empty.
func (r *Replica) loadTombstones(ctx context.Context) []string {
	raw, err := r.blob.Get(ctx, r.tombstoneKey())
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.WarnContext(ctx, "Failed to read tombstones", log.FieldError, err)
		}
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		r.logger.WarnContext(ctx, "Tombstones are corrupt, starting empty", log.FieldError, err)
		return nil
	}
	return ids
}

func (r *Replica) saveTombstones(ctx context.Context, ids []string) error {
	payload, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal tombstones: %w", err)
	}
	if err := r.blob.Put(ctx, r.tombstoneKey(), payload); err != nil {
		return fmt.Errorf("persist tombstones: %w", err)
	}
	return nil
}

func (r *Replica) skip(ctx context.Context, ev *amqp.ExpenseEvent) {
	atomic.AddInt64(&r.skipped, 1)
	r.logger.DebugContext(ctx, "Event already reflected in replica",
		log.FieldOperation, log.OpReplicate, log.FieldExpenseID, ev.ID, "type", string(ev.Type))
}

// Run consumes from src until ctx is cancelled. Cancellation is not an
// error.
func (r *Replica) Run(ctx context.Context, src EventSource) error {
	err := src.ConsumeExpenseEvents(ctx, func(ev *amqp.ExpenseEvent) error {
		return r.Apply(ctx, ev)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stats reports how many events changed the replica and how many were
// already reflected in it.
func (r *Replica) Stats() (applied, skipped int64) {
	return atomic.LoadInt64(&r.applied), atomic.LoadInt64(&r.skipped)
}

// Records returns the current replica contents.
func (r *Replica) Records(ctx context.Context) []core.Expense {
	r.mu.Lock()
	defer r.mu.Unlock()
	return records.Load(ctx, r.blob, r.key, []core.Expense{})
}
