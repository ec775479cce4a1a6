package worker

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"spendsmart/internal/amqp"
	"spendsmart/internal/core"
	"spendsmart/internal/log"
	"spendsmart/internal/storage/memory"
)

type fakeSource struct {
	events []*amqp.ExpenseEvent
	errs   []error
}

func (f *fakeSource) ConsumeExpenseEvents(ctx context.Context, handler func(*amqp.ExpenseEvent) error) error {
	for _, ev := range f.events {
		f.errs = append(f.errs, handler(ev))
	}
	return context.Canceled
}

func expense(id, category string) core.Expense {
	return core.Expense{ID: id, Amount: decimal.NewFromInt(10), Category: category, Date: "2024-01-05"}
}

func TestReplicaApply(t *testing.T) {
	ctx := context.Background()
	r := NewReplica(memory.New(), "", log.Discard())

	steps := []*amqp.ExpenseEvent{
		amqp.NewExpenseAddedEvent(expense("a", "Food")),
		amqp.NewExpenseAddedEvent(expense("b", "Travel")),
		amqp.NewExpenseAddedEvent(expense("a", "Food")), // redelivery
		amqp.NewExpenseRemovedEvent("a"),
		amqp.NewExpenseRemovedEvent("a"), // redelivery
		amqp.NewExpenseRemovedEvent("missing"),
	}
	for i, ev := range steps {
		if err := r.Apply(ctx, ev); err != nil {
			t.Fatalf("step %d: Apply() error = %v", i, err)
		}
	}

	got := r.Records(ctx)
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("replica = %+v, want only b", got)
	}
	applied, skipped := r.Stats()
	if applied != 3 || skipped != 3 {
		t.Errorf("Stats() = (%d, %d), want (3, 3)", applied, skipped)
	}
}

func TestReplicaKeepsNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewReplica(memory.New(), "k", log.Discard())
	for _, id := range []string{"1", "2", "3"} {
		if err := r.Apply(ctx, amqp.NewExpenseAddedEvent(expense(id, "X"))); err != nil {
			t.Fatal(err)
		}
	}
	got := r.Records(ctx)
	if len(got) != 3 || got[0].ID != "3" || got[2].ID != "1" {
		t.Fatalf("order = %+v", got)
	}
}

func TestReplicaRejectsBadEvents(t *testing.T) {
	ctx := context.Background()
	r := NewReplica(memory.New(), "", log.Discard())

	tests := []struct {
		name string
		ev   *amqp.ExpenseEvent
	}{
		{"nil", nil},
		{"added without expense", &amqp.ExpenseEvent{Type: amqp.EventExpenseAdded, ID: "x"}},
		{"unknown type", &amqp.ExpenseEvent{Type: "expense.renamed", ID: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Apply(ctx, tt.ev); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if len(r.Records(ctx)) != 0 {
		t.Error("rejected events must not change the replica")
	}
}

func TestReplicaIgnoresAddAfterRemove(t *testing.T) {
	ctx := context.Background()
	r := NewReplica(memory.New(), "", log.Discard())

	// The remove is handled before its add, as after a requeued add.
	if err := r.Apply(ctx, amqp.NewExpenseRemovedEvent("a")); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(ctx, amqp.NewExpenseAddedEvent(expense("a", "Food"))); err != nil {
		t.Fatal(err)
	}
	if got := r.Records(ctx); len(got) != 0 {
		t.Fatalf("removed record came back: %+v", got)
	}

	// Tombstones survive a new Replica over the same blob.
	blob := memory.New()
	first := NewReplica(blob, "k", log.Discard())
	if err := first.Apply(ctx, amqp.NewExpenseRemovedEvent("b")); err != nil {
		t.Fatal(err)
	}
	second := NewReplica(blob, "k", log.Discard())
	if err := second.Apply(ctx, amqp.NewExpenseAddedEvent(expense("b", "Food"))); err != nil {
		t.Fatal(err)
	}
	if got := second.Records(ctx); len(got) != 0 {
		t.Fatalf("tombstone lost across restarts: %+v", got)
	}
}

func TestReplicaBoundsTombstones(t *testing.T) {
	ctx := context.Background()
	r := NewReplica(memory.New(), "", log.Discard())
	for i := 0; i < MaxTombstones+5; i++ {
		if err := r.Apply(ctx, amqp.NewExpenseRemovedEvent(strconv.Itoa(i))); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(r.loadTombstones(ctx)); got != MaxTombstones {
		t.Fatalf("tombstones = %d, want %d", got, MaxTombstones)
	}
	// The oldest ids were forgotten, so they can be added again.
	if err := r.Apply(ctx, amqp.NewExpenseAddedEvent(expense("0", "Food"))); err != nil {
		t.Fatal(err)
	}
	if len(r.Records(ctx)) != 1 {
		t.Fatal("expired tombstone should not block an add")
	}
}

type failingBlob struct{ *memory.Store }

func (failingBlob) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func TestReplicaPersistFailure(t *testing.T) {
	r := NewReplica(failingBlob{memory.New()}, "", log.Discard())
	if err := r.Apply(context.Background(), amqp.NewExpenseAddedEvent(expense("a", "Food"))); err == nil {
		t.Fatal("expected persist error so the event is requeued")
	}
	if applied, _ := r.Stats(); applied != 0 {
		t.Errorf("applied = %d, want 0", applied)
	}
}

func TestReplicaRun(t *testing.T) {
	src := &fakeSource{events: []*amqp.ExpenseEvent{
		amqp.NewExpenseAddedEvent(expense("a", "Food")),
		{Type: amqp.EventExpenseAdded, ID: "broken"},
	}}
	r := NewReplica(memory.New(), "", log.Discard())

	if err := r.Run(context.Background(), src); err != nil {
		t.Fatalf("Run() error = %v, cancellation should be swallowed", err)
	}
	if len(src.errs) != 2 || src.errs[0] != nil || src.errs[1] == nil {
		t.Fatalf("handler results = %v", src.errs)
	}
	if got := r.Records(context.Background()); len(got) != 1 {
		t.Fatalf("replica = %+v", got)
	}
}
