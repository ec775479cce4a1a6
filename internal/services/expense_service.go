package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"spendsmart/internal/aggregate"
	"spendsmart/internal/amqp"
	"spendsmart/internal/cache"
	"spendsmart/internal/core"
	"spendsmart/internal/filter"
	"spendsmart/internal/log"
	"spendsmart/internal/records"
)

// Notifier is told about every persisted mutation.
type Notifier interface {
	PublishExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error
	Close() error
}

// View is everything a presentation surface needs for one set of criteria.
type View struct {
	Records  []core.Expense
	Filtered []core.Expense
	Summary  core.Summary
	Label    string
}

// ExpenseService orchestrates the record store, change notifications and
// the memoised filter and aggregate views.
type ExpenseService struct {
	store    *records.Store
	notifier Notifier
	views    *cache.LRUCache[string, View]
	aggOpts  aggregate.Options
	logger   *log.Logger
	closers  []func() error
}

// Option configures an ExpenseService.
type Option func(*ExpenseService)

// WithNotifier publishes mutation events through n.
func WithNotifier(n Notifier) Option {
	return func(s *ExpenseService) { s.notifier = n }
}

// WithViewCache memoises views in c.
func WithViewCache(c *cache.LRUCache[string, View]) Option {
	return func(s *ExpenseService) { s.views = c }
}

// WithAggregateOptions sets how summaries are computed.
func WithAggregateOptions(opts aggregate.Options) Option {
	return func(s *ExpenseService) { s.aggOpts = opts }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *ExpenseService) { s.logger = logger.WithComponent(log.ComponentExpense) }
}

// WithCloser registers a cleanup run by Close, after the notifier.
func WithCloser(fn func() error) Option {
	return func(s *ExpenseService) {
		if fn != nil {
			s.closers = append(s.closers, fn)
		}
	}
}

func NewExpenseService(store *records.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:  store,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying record store.
func (s *ExpenseService) Store() *records.Store {
	return s.store
}

// AddExpense persists a new record and announces it.
func (s *ExpenseService) AddExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.store.Add(ctx, in)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to add expense",
			log.FieldOperation, log.OpAdd, log.FieldError, err)
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense added", log.NewFields().
		WithOperation(log.OpAdd).
		WithExpense(e.ID, e.Amount.String(), e.Category, e.Date).
		ToSlice()...)

	s.publish(ctx, amqp.NewExpenseAddedEvent(e))
	return e, nil
}

// RemoveExpense deletes a record. removed is false when id was unknown, in
// which case nothing is written or announced.
func (s *ExpenseService) RemoveExpense(ctx context.Context, id string) (bool, error) {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to remove expense",
			log.FieldOperation, log.OpRemove, log.FieldExpenseID, id, log.FieldError, err)
		return false, fmt.Errorf("remove expense %s: %w", id, err)
	}
	if !removed {
		s.logger.DebugContext(ctx, "Remove ignored unknown expense",
			log.FieldOperation, log.OpRemove, log.FieldExpenseID, id)
		return false, nil
	}

	s.logger.InfoContext(ctx, "Expense removed",
		log.FieldOperation, log.OpRemove, log.FieldExpenseID, id)
	s.publish(ctx, amqp.NewExpenseRemovedEvent(id))
	return true, nil
}

// View filters the current records by criteria and summarises the result.
func (s *ExpenseService) View(ctx context.Context, criteria filter.Criteria) View {
	items, version := s.store.Snapshot()
	key := strconv.FormatUint(version, 10) + "|" + criteria.Key()

	if s.views != nil {
		if v, ok := s.views.Get(key); ok {
			return v.clone()
		}
	}

	filtered := filter.Apply(items, criteria)
	v := View{
		Records:  items,
		Filtered: filtered,
		Summary:  aggregate.Summarize(filtered, s.aggOpts),
		Label:    criteria.Label(),
	}
	s.logger.DebugContext(ctx, "View computed",
		log.FieldOperation, log.OpView,
		log.FieldCriteria, criteria.Key(),
		log.FieldCount, len(filtered))

	if s.views != nil {
		s.views.Set(key, v)
	}
	return v.clone()
}

func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishExpenseEvent(ctx, event); err != nil {
		// The record is already persisted.
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			log.FieldOperation, log.OpPublish,
			log.FieldExpenseID, event.ID,
			log.FieldError, err)
	}
}

// Close shuts the notifier and then every registered closer.
func (s *ExpenseService) Close() error {
	var errs []error
	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notifier: %w", err))
		}
	}
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.views != nil {
		s.views.Purge()
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}

// clone copies every slice so cached views cannot be altered by callers.
func (v View) clone() View {
	v.Records = slices.Clone(v.Records)
	v.Filtered = slices.Clone(v.Filtered)
	v.Summary.TimeSeries = slices.Clone(v.Summary.TimeSeries)
	v.Summary.CategorySeries = slices.Clone(v.Summary.CategorySeries)
	return v
}
