package history

import (
	"context"
	"testing"
)

func testStoreRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	turns, err := store.Load(ctx, "U1")
	if err != nil {
		t.Fatalf("Load(unknown) error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("Load(unknown) = %d turns, want 0", len(turns))
	}

	want := []Turn{
		{Role: RoleUser, Text: "hello"},
		{Role: RoleAssistant, Text: "Hi! How can I help?"},
	}
	if err := store.Save(ctx, "U1", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "U1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Load() = %d turns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Load()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	// Save replaces, never appends.
	replacement := []Turn{{Role: RoleUser, Text: "start over"}}
	if err := store.Save(ctx, "U1", replacement); err != nil {
		t.Fatalf("Save(replacement) error = %v", err)
	}
	got, err = store.Load(ctx, "U1")
	if err != nil {
		t.Fatalf("Load(after replace) error = %v", err)
	}
	if len(got) != 1 || got[0].Text != "start over" {
		t.Fatalf("Load(after replace) = %+v", got)
	}

	// Other users are untouched.
	other, err := store.Load(ctx, "U2")
	if err != nil {
		t.Fatalf("Load(other) error = %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("Load(other) = %d turns, want 0", len(other))
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	testStoreRoundTrip(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	testStoreRoundTrip(t, store)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	first, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	if err := first.Save(ctx, "U1", []Turn{{Role: RoleUser, Text: "hi"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore(second) error = %v", err)
	}
	turns, err := second.Load(ctx, "U1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(turns) != 1 || turns[0].Text != "hi" {
		t.Fatalf("Load() = %+v", turns)
	}
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Save(ctx, "U1", []Turn{{Role: RoleUser, Text: "hi"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, _ := store.Load(ctx, "U1")
	loaded[0].Text = "mutated"

	again, _ := store.Load(ctx, "U1")
	if again[0].Text != "hi" {
		t.Fatalf("stored turn mutated through loaded slice")
	}
}
