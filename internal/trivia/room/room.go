// Package room handles private, invite-code-gated games: creation, joining
// and the waiting-room roster poll. The host's start action is only ever
// observed through the server status, never pushed.
package room

import (
	"context"
	"fmt"
	"time"

	"github.com/SpiritWalker84/trivia-web/internal/logging"
	"github.com/SpiritWalker84/trivia-web/internal/poll"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/api"
	"github.com/jonboulle/clockwork"
)

var ErrNoInviteCode = fmt.Errorf("server created a room without an invite code")

type Config struct {
	API      *api.Client
	Clock    clockwork.Clock
	Interval time.Duration
}

func New(config Config) *Manager {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	return &Manager{config: config}
}

type Manager struct {
	config Config
}

// Create opens a fresh private room; the caller becomes its host.
func (m *Manager) Create(ctx context.Context, name string, telegramID int64) (api.Game, error) {
	game, err := m.config.API.CreateGame(ctx, name, telegramID, true)
	if err != nil {
		return game, fmt.Errorf("create room: %w", err)
	}

	if game.InviteCode == "" {
		return game, ErrNoInviteCode
	}

	logging.FromContext(ctx).Named("room").Infof("Room created, game: %d, code: %s", game.GameID, game.InviteCode)

	return game, nil
}

// Join enters an existing room by invite code.
func (m *Manager) Join(ctx context.Context, name, code string) (api.Game, error) {
	game, err := m.config.API.JoinRoom(ctx, code, name)
	if err != nil {
		return game, fmt.Errorf("join room: %w", err)
	}

	logging.FromContext(ctx).Named("room").Infof("Room joined, game: %d, player: %s", game.GameID, name)

	return game, nil
}

// Wait polls the roster until the room leaves the waiting status. onRoster
// observes every successful poll; transport errors only burn the interval.
func (m *Manager) Wait(ctx context.Context, gameID int64, onRoster func(api.Room)) (api.RoomStatus, error) {
	logger := logging.FromContext(ctx).Named("room.wait")

	var status api.RoomStatus
	p := poll.Poller{Interval: m.config.Interval, Clock: m.config.Clock}
	if err := p.Run(ctx, func(ctx context.Context) (bool, error) {
		state, err := m.config.API.RoomState(ctx, gameID)
		if err != nil {
			logger.Warnf("room state, game %d: %v", gameID, err)
			return false, nil
		}

		if onRoster != nil {
			onRoster(state)
		}

		if state.Status != api.RoomStatusWaiting {
			status = state.Status
			return true, nil
		}
		return false, nil
	}); err != nil {
		return status, err
	}

	return status, nil
}
