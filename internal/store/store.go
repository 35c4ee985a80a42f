// Package store persists the event list and owns event identity.
package store

import (
	"context"
	"errors"

	"chronos/internal/model"
)

var (
	// ErrPersistenceCorrupt marks stored data that cannot be decoded.
	ErrPersistenceCorrupt = errors.New("persisted events are corrupt")
	// ErrNotFound is returned when deleting an unknown event id.
	ErrNotFound = errors.New("event not found")
)

// Store loads and saves the whole event list. Load returns an empty list on
// first run.
type Store interface {
	Load(ctx context.Context) ([]model.Event, error)
	Save(ctx context.Context, events []model.Event) error
}

// Memory is an in-process Store, used in tests and as a last resort.
type Memory struct {
	events []model.Event
	saves  int
}

func (m *Memory) Load(context.Context) ([]model.Event, error) {
	return append([]model.Event{}, m.events...), nil
}

func (m *Memory) Save(_ context.Context, events []model.Event) error {
	m.events = append([]model.Event{}, events...)
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *Memory) Saves() int { return m.saves }
