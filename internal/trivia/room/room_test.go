package room

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SpiritWalker84/trivia-web/internal/trivia/api"
)

func newManager(t *testing.T, handler http.Handler) *Manager {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := api.New(api.Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
	return New(Config{API: client, Interval: 5 * time.Millisecond})
}

func TestCreateReturnsInviteCode(t *testing.T) {
	t.Parallel()

	m := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/games" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Name    string `json:"name"`
			Private bool   `json:"private"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !req.Private {
			t.Errorf("room creation must request a private game")
		}
		_ = json.NewEncoder(w).Encode(api.Game{GameID: 3, UserID: 8, TotalRounds: 9, InviteCode: "K4F2"})
	}))

	game, err := m.Create(context.Background(), "Алиса", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if game.InviteCode != "K4F2" || game.GameID != 3 {
		t.Fatalf("unexpected game: %+v", game)
	}
}

func TestCreateWithoutInviteCodeFails(t *testing.T) {
	t.Parallel()

	m := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.Game{GameID: 3, UserID: 8})
	}))

	_, err := m.Create(context.Background(), "Алиса", 0)
	if !errors.Is(err, ErrNoInviteCode) {
		t.Fatalf("expected ErrNoInviteCode, got %v", err)
	}
}

func TestWaitObservesRosterUntilStart(t *testing.T) {
	t.Parallel()

	var mtx sync.Mutex
	polls := 0
	m := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mtx.Lock()
		polls++
		n := polls
		mtx.Unlock()

		room := api.Room{
			Status:     api.RoomStatusWaiting,
			HostUserID: 1,
			Players:    []api.RoomPlayer{{UserID: 1, Name: "Алиса"}},
		}
		if n >= 3 {
			room.Status = api.RoomStatusInProgress
			room.Players = append(room.Players, api.RoomPlayer{UserID: 2, Name: "Борис"})
		}
		_ = json.NewEncoder(w).Encode(room)
	}))

	var rosters []int
	status, err := m.Wait(context.Background(), 3, func(snapshot api.Room) {
		rosters = append(rosters, len(snapshot.Players))
	})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if status != api.RoomStatusInProgress {
		t.Fatalf("expected inProgress, got %s", status)
	}
	if len(rosters) != 3 || rosters[2] != 2 {
		t.Fatalf("unexpected roster observations: %v", rosters)
	}
}

func TestWaitReturnsFinishedRoom(t *testing.T) {
	t.Parallel()

	m := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.Room{Status: api.RoomStatusFinished})
	}))

	status, err := m.Wait(context.Background(), 3, nil)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if status != api.RoomStatusFinished {
		t.Fatalf("expected finished, got %s", status)
	}
}

func TestWaitStopsOnCancel(t *testing.T) {
	t.Parallel()

	m := newManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.Room{Status: api.RoomStatusWaiting})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := m.Wait(ctx, 3, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
