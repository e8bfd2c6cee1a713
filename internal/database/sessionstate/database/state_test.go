package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	storage "github.com/SpiritWalker84/trivia-web/internal/database"
	"github.com/SpiritWalker84/trivia-web/internal/database/sessionstate/model"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	sDB, err := storage.NewFromEnv(ctx, &storage.Config{FilePath: filepath.Join(t.TempDir(), "trivia.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = sDB.Close(ctx)
	})

	return New(sDB)
}

func TestAddFetch(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	state := model.State{
		GameID:      42,
		UserID:      7,
		PlayerName:  "Alex",
		Phase:       3,
		RoundNumber: 2,
		TotalRounds: 9,
		Private:     true,
		InviteCode:  "XK4P",
		CreatedAt:   time.Now().UTC(),
	}

	if err := db.Add(state); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := db.Fetch(7)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if got.GameID != state.GameID || got.RoundNumber != state.RoundNumber || got.InviteCode != state.InviteCode {
		t.Errorf("expected %+v got %+v", state, got)
	}
}

func TestFetchNotFound(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	if _, err := db.Fetch(404); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	if err := db.Add(model.State{GameID: 1, UserID: 9}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := db.Remove(9); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := db.Fetch(9); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound after remove, got %v", err)
	}
}

func TestFetchAllAndClean(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	for i := int64(1); i <= 3; i++ {
		if err := db.Add(model.State{GameID: 100 + i, UserID: i}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	list, err := db.FetchAll()
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 states, got %d", len(list))
	}

	if err := db.Clean(); err != nil {
		t.Fatalf("clean: %v", err)
	}

	if _, err := db.FetchAll(); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound after clean, got %v", err)
	}
}
