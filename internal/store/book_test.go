package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"chronos/internal/clock"
	"chronos/internal/model"
)

type failingStore struct {
	loadErr error
	saveErr error
}

func (f failingStore) Load(context.Context) ([]model.Event, error) { return nil, f.loadErr }

func (f failingStore) Save(context.Context, []model.Event) error { return f.saveErr }

func sequentialIDs() BookOption {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return "ev-" + strconv.Itoa(n)
	})
}

func TestBook_AddPrependsAndSaves(t *testing.T) {
	mem := &Memory{}
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	b := OpenBook(context.Background(), mem, clock.NewFixed(now), sequentialIDs())

	first, err := b.Add(context.Background(), model.Draft{Name: "One", Date: "2024-03-10", Time: "09:00", Zone: "UTC"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	second, err := b.Add(context.Background(), model.Draft{Date: "2024-03-11", Time: "10:00", Zone: "Asia/Tokyo"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if first.ID != "ev-1" || second.ID != "ev-2" {
		t.Fatalf("unexpected ids %q %q", first.ID, second.ID)
	}
	if !first.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v, want %v", first.CreatedAt, now)
	}
	if second.DisplayName() != model.UntitledEvent {
		t.Fatalf("DisplayName() = %q", second.DisplayName())
	}

	list := b.List()
	if len(list) != 2 || list[0].ID != "ev-2" || list[1].ID != "ev-1" {
		t.Fatalf("expected newest first, got %#v", list)
	}
	if mem.Saves() != 2 {
		t.Fatalf("expected a save per mutation, got %d", mem.Saves())
	}
}

func TestBook_DefaultIDsAreUUIDs(t *testing.T) {
	b := OpenBook(context.Background(), &Memory{}, nil)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ev, err := b.Add(context.Background(), model.Draft{Date: "2024-01-01", Time: "00:00", Zone: "UTC"})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if len(ev.ID) != 36 || seen[ev.ID] {
			t.Fatalf("bad or repeated id %q", ev.ID)
		}
		seen[ev.ID] = true
	}
}

func TestBook_Delete(t *testing.T) {
	mem := &Memory{}
	b := OpenBook(context.Background(), mem, nil, sequentialIDs())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.Add(ctx, model.Draft{Date: "2024-01-01", Time: "00:00", Zone: "UTC"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Delete(ctx, "ev-2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := b.Get("ev-2"); ok {
		t.Fatal("deleted event still present")
	}
	if len(b.List()) != 2 || mem.Saves() != 4 {
		t.Fatalf("unexpected state: %d events, %d saves", len(b.List()), mem.Saves())
	}

	if err := b.Delete(ctx, "ev-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestBook_SaveFailureLeavesListUnchanged(t *testing.T) {
	b := OpenBook(context.Background(), failingStore{saveErr: errors.New("disk full")}, nil)

	if _, err := b.Add(context.Background(), model.Draft{Date: "2024-01-01", Time: "00:00", Zone: "UTC"}); err == nil {
		t.Fatal("expected save error")
	}
	if len(b.List()) != 0 {
		t.Fatalf("list changed despite failed save: %#v", b.List())
	}
}

func TestBook_CorruptStoreStartsEmptyWithDiagnostic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	b := OpenBook(context.Background(), NewFileStore(path), nil)
	if len(b.List()) != 0 {
		t.Fatalf("expected empty list, got %d", len(b.List()))
	}
	if b.Diagnostic() == "" {
		t.Fatal("expected a diagnostic after corrupt load")
	}

	// The next successful write replaces the corrupt file.
	if _, err := b.Add(context.Background(), model.Draft{Date: "2024-01-01", Time: "00:00", Zone: "UTC"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if b.Diagnostic() != "" {
		t.Fatalf("diagnostic not cleared: %q", b.Diagnostic())
	}
	events, err := NewFileStore(path).Load(context.Background())
	if err != nil || len(events) != 1 {
		t.Fatalf("reload = %d events, err %v", len(events), err)
	}
}

func TestBook_OtherLoadErrorsAlsoDegrade(t *testing.T) {
	b := OpenBook(context.Background(), failingStore{loadErr: errors.New("permission denied")}, nil)
	if len(b.List()) != 0 || b.Diagnostic() == "" {
		t.Fatalf("expected empty book with diagnostic, got %d events, %q", len(b.List()), b.Diagnostic())
	}
}

func TestBook_AddAllSavesOnce(t *testing.T) {
	mem := &Memory{}
	b := OpenBook(context.Background(), mem, nil, sequentialIDs())
	ctx := context.Background()

	if _, err := b.Add(ctx, model.Draft{Name: "old", Date: "2024-01-01", Time: "00:00", Zone: "UTC"}); err != nil {
		t.Fatal(err)
	}
	added, err := b.AddAll(ctx, []model.Draft{
		{Name: "first", Date: "2024-01-02", Time: "09:00", Zone: "UTC"},
		{Name: "second", Date: "2024-01-03", Time: "10:00", Zone: "Asia/Tokyo"},
	})
	if err != nil {
		t.Fatalf("AddAll() error = %v", err)
	}
	if len(added) != 2 || mem.Saves() != 2 {
		t.Fatalf("added %d events with %d saves", len(added), mem.Saves())
	}

	var names []string
	for _, ev := range b.List() {
		names = append(names, ev.Name)
	}
	if got := strings.Join(names, ","); got != "first,second,old" {
		t.Fatalf("order = %s", got)
	}
}

func TestBook_AddAllFailureStoresNothing(t *testing.T) {
	b := OpenBook(context.Background(), failingStore{saveErr: errors.New("disk full")}, nil)

	_, err := b.AddAll(context.Background(), []model.Draft{
		{Date: "2024-01-01", Time: "00:00", Zone: "UTC"},
		{Date: "2024-01-02", Time: "00:00", Zone: "UTC"},
	})
	if err == nil {
		t.Fatal("expected save error")
	}
	if len(b.List()) != 0 {
		t.Fatalf("partial batch kept: %#v", b.List())
	}
}
