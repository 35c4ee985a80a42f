package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"chronos/internal/clock"
	appLog "chronos/internal/log"
	"chronos/internal/model"
)

// Book owns the in-memory event list and writes it through to a Store
// after every mutation. Newest events come first.
type Book struct {
	store Store
	clock clock.Clock
	newID func() string

	mu         sync.RWMutex
	events     []model.Event
	diagnostic string
}

// BookOption configures a Book.
type BookOption func(*Book)

// WithIDGenerator replaces the UUID v4 generator.
func WithIDGenerator(fn func() string) BookOption {
	return func(b *Book) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// OpenBook loads the stored list once. A load failure never propagates:
// the book starts empty and keeps a diagnostic describing what happened.
func OpenBook(ctx context.Context, st Store, clk clock.Clock, opts ...BookOption) *Book {
	if clk == nil {
		clk = clock.System{}
	}
	b := &Book{
		store: st,
		clock: clk,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	events, err := st.Load(ctx)
	switch {
	case err == nil:
		b.events = events
		appLog.Info("events loaded", "count", len(events))
	case errors.Is(err, ErrPersistenceCorrupt):
		b.diagnostic = "stored events could not be read and were discarded"
		appLog.Error("stored events are corrupt; starting empty", err)
	default:
		b.diagnostic = "stored events could not be loaded"
		appLog.Error("event load failed; starting empty", err)
	}
	if b.events == nil {
		b.events = []model.Event{}
	}
	return b
}

// Diagnostic is a user-facing note about a failed load, or "".
func (b *Book) Diagnostic() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.diagnostic
}

// List returns a copy of the events, newest first.
func (b *Book) List() []model.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.Event{}, b.events...)
}

// Get looks up an event by id.
func (b *Book) Get(id string) (model.Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ev := range b.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

// Add records a new event and saves the list. On save failure the list is
// left unchanged.
func (b *Book) Add(ctx context.Context, d model.Draft) (model.Event, error) {
	added, err := b.AddAll(ctx, []model.Draft{d})
	if err != nil {
		return model.Event{}, err
	}
	return added[0], nil
}

// AddAll records every draft with a single save. The new events keep the
// order of drafts and go ahead of the existing ones. Either all of them
// are stored or none are.
func (b *Book) AddAll(ctx context.Context, drafts []model.Draft) ([]model.Event, error) {
	if len(drafts) == 0 {
		return []model.Event{}, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	used := make(map[string]struct{}, len(b.events)+len(drafts))
	for _, existing := range b.events {
		used[existing.ID] = struct{}{}
	}

	now := b.clock.Now().UTC()
	added := make([]model.Event, 0, len(drafts))
	for _, d := range drafts {
		ev := model.Event{
			ID:         b.newID(),
			Name:       d.Name,
			SourceDate: d.Date,
			SourceTime: d.Time,
			SourceZone: d.Zone,
			CreatedAt:  now,
		}
		if _, dup := used[ev.ID]; dup {
			return nil, fmt.Errorf("store: generated id %q already in use", ev.ID)
		}
		used[ev.ID] = struct{}{}
		added = append(added, ev)
	}

	next := make([]model.Event, 0, len(b.events)+len(added))
	next = append(next, added...)
	next = append(next, b.events...)

	if err := b.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("store: save after add: %w", err)
	}
	b.events = next
	b.diagnostic = ""
	for _, ev := range added {
		appLog.Info("event added", "id", ev.ID, "zone", ev.SourceZone)
	}
	return added, nil
}

// Delete removes the event with id and saves the list.
func (b *Book) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make([]model.Event, 0, len(b.events))
	found := false
	for _, ev := range b.events {
		if ev.ID == id {
			found = true
			continue
		}
		next = append(next, ev)
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	if err := b.store.Save(ctx, next); err != nil {
		return fmt.Errorf("store: save after delete: %w", err)
	}
	b.events = next
	appLog.Info("event deleted", "id", id)
	return nil
}
