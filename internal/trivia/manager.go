// Package trivia wires the engine together: one manager owns the API client,
// the local caches, the persisted session registry and every live session.
package trivia

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SpiritWalker84/trivia-web/internal/cache"
	stateDb "github.com/SpiritWalker84/trivia-web/internal/database/sessionstate/database"
	stateModel "github.com/SpiritWalker84/trivia-web/internal/database/sessionstate/model"
	"github.com/SpiritWalker84/trivia-web/internal/logging"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/api"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/notify"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/room"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/session"
	"github.com/jonboulle/clockwork"
)

var ErrSessionNotFound = fmt.Errorf("session not found")

func NewManager(config *Config, stateDB *stateDb.DB, notifier notify.Notifier) (*Manager, error) {
	client := api.New(api.Config{BaseURL: config.APIBaseURL, Timeout: config.HTTPTimeout})

	questions, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("can not create lru cache: %w", err)
	}

	displayed, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("can not create lru cache: %w", err)
	}

	clock := clockwork.NewRealClock()

	// sessions outlive any single Run context; they are cancelled as a group
	// when the manager winds down
	ctxSess, cancelSess := context.WithCancel(
		logging.WithLogger(context.Background(), logging.NewLogger(config.Debug)))

	return &Manager{
		config:     config,
		api:        client,
		clock:      clock,
		rooms:      room.New(room.Config{API: client, Clock: clock, Interval: config.RosterInterval}),
		questions:  questions,
		displayed:  displayed,
		sessions:   map[int64]*session.Session{},
		stateDb:    stateDB,
		notifier:   notifier,
		ctxSess:    ctxSess,
		cancelSess: cancelSess,
		stopCh:     make(chan struct{}),
	}, nil
}

type Manager struct {
	mtx sync.RWMutex

	config    *Config
	api       *api.Client
	clock     clockwork.Clock
	rooms     *room.Manager
	questions cache.Cache
	displayed cache.Cache
	// key: userId of the live session
	sessions map[int64]*session.Session
	stateDb  *stateDb.DB
	notifier notify.Notifier

	ctxSess    context.Context
	cancelSess func()
	stopOnce   sync.Once
	stopCh     chan struct{}
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// Run restores persisted sessions and blocks until the context is cancelled
// or Stop is called, then persists every session still alive.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.restore(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-m.stopCh:
	}

	m.persistAll(ctx)
	m.cancelSess()
	return nil
}

// QuickGame creates a public game and launches its first round immediately.
func (m *Manager) QuickGame(ctx context.Context, name string, telegramID int64) (*session.Session, error) {
	game, err := m.api.CreateGame(ctx, name, telegramID, false)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	s := m.buildSession(game, name, telegramID, true, false)
	m.register(s)
	s.Run(m.ctxSess)
	s.Start()
	m.persist(s)

	return s, nil
}

// CreateRoom opens a private room; the returned session waits in the lobby
// until its Start intent fires.
func (m *Manager) CreateRoom(ctx context.Context, name string, telegramID int64) (*session.Session, error) {
	game, err := m.rooms.Create(ctx, name, telegramID)
	if err != nil {
		return nil, err
	}

	s := m.buildSession(game, name, telegramID, true, true)
	m.register(s)
	s.Run(m.ctxSess)
	s.EnterWaitingRoom()
	m.persist(s)

	return s, nil
}

// JoinRoom enters an existing room by invite code; the session leaves the
// lobby when the host starts the game.
func (m *Manager) JoinRoom(ctx context.Context, name, code string, telegramID int64) (*session.Session, error) {
	game, err := m.rooms.Join(ctx, name, code)
	if err != nil {
		return nil, err
	}

	s := m.buildSession(game, name, telegramID, false, true)
	m.register(s)
	s.Run(m.ctxSess)
	s.EnterWaitingRoom()
	m.persist(s)

	return s, nil
}

func (m *Manager) Session(userID int64) (*session.Session, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Leave(ctx context.Context, userID int64) error {
	s, err := m.Session(userID)
	if err != nil {
		return err
	}

	s.Leave(ctx)
	return nil
}

func (m *Manager) buildSession(game api.Game, name string, telegramID int64, host, private bool) *session.Session {
	if game.TotalRounds == 0 {
		game.TotalRounds = m.config.RoundsPerGame
	}

	return session.New(session.Config{
		API:                 m.api,
		Clock:               m.clock,
		Room:                m.rooms,
		Notifier:            m.notifier,
		Questions:           m.questions,
		Displayed:           m.displayed,
		PlayerName:          name,
		TelegramID:          telegramID,
		Host:                host,
		Private:             private,
		QuestionsPerRound:   m.config.QuestionsPerRound,
		LeaderboardInterval: m.config.LeaderboardInterval,
		LeaderboardJitter:   m.config.LeaderboardJitter,
		PendingInterval:     m.config.PendingInterval,
		RaceInterval:        m.config.RaceInterval,
		PostResultDelay:     m.config.PostResultDelay,
		PendingBudget:       m.config.PendingBudget,
		RaceBudget:          m.config.RaceBudget,
		DoneFn:              m.sessionDone,
	}, game)
}

func (m *Manager) register(s *session.Session) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.sessions[s.UserID] = s
}

// sessionDone drops a closed session from the registry and from the local
// state file.
func (m *Manager) sessionDone(s *session.Session) error {
	m.mtx.Lock()
	delete(m.sessions, s.UserID)
	m.mtx.Unlock()

	if err := m.stateDb.Remove(s.UserID); err != nil && !errors.Is(err, stateDb.ErrBucketNotFound) {
		return fmt.Errorf("state db remove: %w", err)
	}

	return nil
}

func (m *Manager) persist(s *session.Session) {
	logger := logging.FromContext(m.ctxSess).Named("manager")

	state := stateModel.State{
		GameID:      s.GameID,
		UserID:      s.UserID,
		TelegramID:  s.Config.TelegramID,
		PlayerName:  s.Config.PlayerName,
		Phase:       uint8(s.Phase()),
		RoundNumber: s.RoundNumber(),
		TotalRounds: s.TotalRounds,
		InviteCode:  s.InviteCode,
		Private:     s.Config.Private,
		Host:        s.Config.Host,
		CreatedAt:   s.CreatedAt,
	}

	if err := m.stateDb.Add(state); err != nil {
		logger.Errorf("state db add, game %d: %v", s.GameID, err)
	}
}

func (m *Manager) persistAll(ctx context.Context) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	for _, s := range m.sessions {
		m.persist(s)
	}
	logging.FromContext(ctx).Named("manager").Infof("%d sessions persisted", len(m.sessions))
}

// restore relaunches every persisted session. A session that already reached
// a terminal phase is dropped instead.
func (m *Manager) restore() error {
	logger := logging.FromContext(m.ctxSess).Named("manager")

	states, err := m.stateDb.FetchAll()
	if err != nil {
		if errors.Is(err, stateDb.ErrEntryNotFound) {
			return nil
		}
		return fmt.Errorf("state db fetch all: %w", err)
	}

	for _, state := range states {
		phase := session.Phase(state.Phase)
		if phase == session.PhaseSetup || phase == session.PhaseFinished {
			if err := m.stateDb.Remove(state.UserID); err != nil && !errors.Is(err, stateDb.ErrBucketNotFound) {
				logger.Warnf("state db remove, user %d: %v", state.UserID, err)
			}
			continue
		}

		game := api.Game{
			GameID:      state.GameID,
			UserID:      state.UserID,
			TotalRounds: state.TotalRounds,
			InviteCode:  state.InviteCode,
		}

		s := m.buildSession(game, state.PlayerName, state.TelegramID, state.Host, state.Private)
		m.register(s)
		s.Run(m.ctxSess)
		s.Resume(phase, state.RoundNumber)
		logger.Infof("Session restored, game: %d, player: %s, phase: %s", state.GameID, state.PlayerName, phase)
	}

	return nil
}
