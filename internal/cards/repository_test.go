package cards

import (
	"errors"
	"testing"
)

func TestInMemoryRepository_AddSession(t *testing.T) {
	repo := NewInMemoryRepository()

	t.Run("add_and_get", func(t *testing.T) {
		if err := repo.AddSession(&Session{ID: "s1"}); err != nil {
			t.Fatalf("AddSession: %v", err)
		}
		sess, ok := repo.GetSession("s1")
		if !ok || sess.ID != "s1" {
			t.Errorf("GetSession: got %v ok=%v", sess, ok)
		}
	})

	t.Run("duplicate_id_rejected", func(t *testing.T) {
		err := repo.AddSession(&Session{ID: "s1"})
		if !errors.Is(err, ErrSessionExists) {
			t.Errorf("expected ErrSessionExists, got %v", err)
		}
	})
}

func TestInMemoryRepository_RemoveSession(t *testing.T) {
	repo := NewInMemoryRepository()
	_ = repo.AddSession(&Session{ID: "s1"})

	removed, ok := repo.RemoveSession("s1")
	if !ok || removed.ID != "s1" {
		t.Fatalf("RemoveSession: got %v ok=%v", removed, ok)
	}
	if _, ok := repo.GetSession("s1"); ok {
		t.Error("session still present after removal")
	}

	// Removing again reports ok false, not an error.
	if _, ok := repo.RemoveSession("s1"); ok {
		t.Error("second removal should report ok false")
	}
}

func TestInMemoryRepository_ActiveSessionCount(t *testing.T) {
	repo := NewInMemoryRepository()
	if got := repo.ActiveSessionCount(); got != 0 {
		t.Errorf("empty repo count = %d", got)
	}

	_ = repo.AddSession(&Session{ID: "s1"})
	_ = repo.AddSession(&Session{ID: "s2"})
	if got := repo.ActiveSessionCount(); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}

	repo.RemoveSession("s1")
	if got := repo.ActiveSessionCount(); got != 1 {
		t.Errorf("count after removal = %d, want 1", got)
	}
}

func TestInMemoryRepository_custom_store(t *testing.T) {
	store := NewInMemoryStore()
	repo := NewInMemoryRepositoryWithStore(store)

	_ = repo.AddSession(&Session{ID: "s1"})
	if _, ok := store.GetSession("s1"); !ok {
		t.Error("repository should write through to the provided store")
	}
}
