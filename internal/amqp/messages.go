package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"spendsmart/internal/core"
)

// EventType names a change to the expense collection.
type EventType string

const (
	EventExpenseAdded   EventType = "expense.added"
	EventExpenseRemoved EventType = "expense.removed"
)

// ExpenseEvent is published after a mutation has been persisted. Removed
// events carry only the id.
type ExpenseEvent struct {
	Type      EventType     `json:"type"`
	ID        string        `json:"id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewExpenseAddedEvent creates an added event carrying the full record
func NewExpenseAddedEvent(e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      EventExpenseAdded,
		ID:        e.ID,
		Expense:   &e,
		Timestamp: time.Now(),
	}
}

// NewExpenseRemovedEvent creates a removed event for id
func NewExpenseRemovedEvent(id string) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      EventExpenseRemoved,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes an event and checks its type.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventExpenseAdded, EventExpenseRemoved:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
