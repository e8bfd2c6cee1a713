// Package session implements the round orchestration engine for one player in
// one game. The server owns all shared state; the session reconstructs a
// coherent view of it through polling and guards every side effect so that
// racing timeout and answer paths never trigger it twice.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SpiritWalker84/trivia-web/internal/cache"
	"github.com/SpiritWalker84/trivia-web/internal/logging"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/api"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/leaderboard"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/notify"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/room"
	"github.com/jonboulle/clockwork"
)

const (
	textWaitingStart  = "Ждём начала раунда…"
	textQuestionError = "Не удалось загрузить вопрос. Попробуйте ещё раз"
	textRoomError     = "Комната недоступна. Попробуйте ещё раз"
)

type Config struct {
	API      *api.Client
	Clock    clockwork.Clock
	Room     *room.Manager
	Notifier notify.Notifier

	// Questions caches question payloads by question id, Displayed dedupes
	// the idempotent displayed-marks by round question id.
	Questions cache.Cache
	Displayed cache.Cache

	PlayerName string
	TelegramID int64

	// Host creates and starts rounds; members only observe them through the
	// question endpoint.
	Host    bool
	Private bool

	QuestionsPerRound int

	LeaderboardInterval time.Duration
	LeaderboardJitter   time.Duration
	PendingInterval     time.Duration
	RaceInterval        time.Duration
	PostResultDelay     time.Duration
	PendingBudget       int
	RaceBudget          int

	DoneFn func(s *Session) error
}

func New(config Config, game api.Game) *Session {
	clock := config.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Session{
		Config:      config,
		GameID:      game.GameID,
		UserID:      game.UserID,
		InviteCode:  game.InviteCode,
		TotalRounds: game.TotalRounds,
		CreatedAt:   clock.Now(),
		clock:       clock,
		phase:       PhaseSetup,
		phaseCh:     make(chan Phase, 1),
		timer:       NewTimer(clock),
	}
}

type activeQuestion struct {
	question        api.Question
	roundQuestionID int64
	loadedAt        time.Time

	selectedAnswer int64
	resolved       bool
	timedOut       bool
}

type progress struct {
	Current int
	Total   int
}

type Session struct {
	Config Config

	GameID      int64
	UserID      int64
	InviteCode  string
	TotalRounds int
	CreatedAt   time.Time

	clock clockwork.Clock

	mtx         sync.RWMutex
	phase       Phase
	roundNumber int
	roundID     int64
	current     *activeQuestion
	rows        []leaderboard.Row
	progress    progress
	roomState   *api.Room
	notice      string
	termErr     string
	gameOver    bool
	winner      string

	phaseCh     chan Phase
	advancing   atomic.Bool
	finishing   atomic.Bool
	stopped     atomic.Bool
	timer       *Timer
	cancel      func()
	phaseCtx    context.Context
	phaseCancel context.CancelFunc
	sema        sync.Once
}

func (r *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	logger := logging.FromContext(ctx)
	r.sema.Do(func() {
		go r.loop(ctx)
	})
	logger.Infof("The game session created, game: %d, player: %s", r.GameID, r.Config.PlayerName)
}

// Stop ends the session for good. A stop is final: the done hook fires and
// the session is forgotten, unlike a process shutdown which keeps it
// persisted for the next start.
func (r *Session) Stop() {
	r.stopped.Store(true)
	r.cancel()
}

// MoveState hands a transition to the session loop.
func (r *Session) MoveState(phase Phase) {
	r.phaseCh <- phase
}

func (r *Session) Phase() Phase {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.phase
}

func (r *Session) RoundNumber() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.roundNumber
}

// Start is the host intent: for a public game it launches round one, for a
// private room it is the host-gated start every member is waiting on.
func (r *Session) Start() {
	r.mtx.RLock()
	ok := r.Config.Host && (r.phase == PhaseSetup || r.phase == PhaseWaitingRoom)
	r.mtx.RUnlock()
	if !ok {
		return
	}
	r.MoveState(PhaseLoading)
}

// EnterWaitingRoom moves a private session into the lobby.
func (r *Session) EnterWaitingRoom() {
	if !r.Config.Private || r.Config.Room == nil {
		return
	}
	r.MoveState(PhaseWaitingRoom)
}

// AdvanceRound launches the next round from the round summary. It is a no-op
// once the game is over; see completeRound.
func (r *Session) AdvanceRound() {
	r.mtx.RLock()
	ok := r.phase == PhaseRoundSummary && !r.gameOver && r.roundNumber < r.TotalRounds
	r.mtx.RUnlock()
	if !ok {
		return
	}
	r.MoveState(PhaseLoading)
}

// Leave tears the session down. The leave call is best-effort: the server
// also detects abandoned players by their missing answers.
func (r *Session) Leave(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("session.leave")
	if err := r.Config.API.LeaveGame(ctx, r.GameID, r.UserID); err != nil {
		logger.Warnf("leave game %d: %v", r.GameID, err)
	}

	if r.Config.Notifier != nil && r.Config.TelegramID != 0 {
		if err := r.Config.Notifier.PlayerLeft(r.Config.TelegramID, r.Config.PlayerName); err != nil {
			logger.Warnf("notify player left: %v", err)
		}
	}

	r.Stop()
}

// Resume re-enters a previously persisted session. Everything beyond identity
// and the round number is reconstructed from the server by polling.
func (r *Session) Resume(phase Phase, roundNumber int) {
	r.mtx.Lock()
	r.roundNumber = roundNumber
	r.mtx.Unlock()

	switch phase {
	case PhaseWaitingRoom:
		r.MoveState(PhaseWaitingRoom)
	case PhaseLoading, PhasePlaying, PhaseRoundSummary:
		r.MoveState(PhasePlaying)
	}
}

func (r *Session) loop(ctx context.Context) {
	defer r.shutdown(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case phase := <-r.phaseCh:
			r.transition(ctx, phase)
		}
	}
}

func (r *Session) transition(ctx context.Context, phase Phase) {
	logger := logging.FromContext(ctx).Named("session.loop")
	if !r.admissible(phase) {
		logger.Debugf("transition to %s dropped, game %d, phase: %s", phase, r.GameID, r.Phase())
		return
	}
	r.setPhase(phase)
	logger.Infof("The game %d changed its phase to %s, player: %s", r.GameID, phase, r.Config.PlayerName)

	switch phase {
	case PhaseSetup:
		r.resetLocal()
	case PhaseWaitingRoom:
		go r.waitRoom(r.newPhaseCtx(ctx))
	case PhaseLoading:
		if err := r.startRound(ctx); err != nil {
			logger.Errorf("start round: %v", err)
			r.setTerminalError(textQuestionError)
			return
		}
		r.transition(ctx, PhasePlaying)
	case PhasePlaying:
		phaseCtx := r.newPhaseCtx(ctx)
		go r.syncLoop(phaseCtx)
		go r.advanceQuestion(phaseCtx)
	case PhaseRoundSummary:
		// pollers of the playing phase are already cancelled by setPhase;
		// the summary only waits for AdvanceRound
	case PhaseFinished:
		logger.Infof("The game session is complete, game: %d, player: %s", r.GameID, r.Config.PlayerName)
		r.notifyFinished(ctx)
	}
}

// admissible re-checks a queued transition against the live phase. The intent
// methods validate before queueing, but two intents can pass the same check
// before the loop consumes the first one; a stale round launch must not
// execute twice.
func (r *Session) admissible(phase Phase) bool {
	if phase != PhaseLoading {
		return true
	}
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	switch r.phase {
	case PhaseSetup, PhaseWaitingRoom, PhaseRoundSummary:
		return true
	}
	return false
}

// setPhase cancels every poller and retry timer of the phase being exited so
// a stale callback cannot resurrect a finished round.
func (r *Session) setPhase(phase Phase) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.phaseCancel != nil {
		r.phaseCancel()
		r.phaseCancel = nil
	}
	r.phase = phase
}

func (r *Session) newPhaseCtx(ctx context.Context) context.Context {
	phaseCtx, cancel := context.WithCancel(ctx)
	r.mtx.Lock()
	r.phaseCtx = phaseCtx
	r.phaseCancel = cancel
	r.mtx.Unlock()
	return phaseCtx
}

// playingCtx returns the context of the current phase so a goroutine spawned
// from a UI call dies together with the phase that spawned it.
func (r *Session) playingCtx() context.Context {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if r.phaseCtx != nil {
		return r.phaseCtx
	}
	return context.Background()
}

// startRound prepares the local per-round state. Only the host asks the
// server for a new round; members discover it through the question endpoint.
func (r *Session) startRound(ctx context.Context) error {
	r.timer.Stop()

	r.mtx.Lock()
	r.roundNumber++
	num := r.roundNumber
	r.current = nil
	r.progress = progress{Total: r.Config.QuestionsPerRound}
	r.notice = ""
	r.termErr = ""
	r.mtx.Unlock()

	r.advancing.Store(false)
	r.finishing.Store(false)

	if !r.Config.Host {
		return nil
	}

	roundID, err := r.Config.API.CreateRound(ctx, r.GameID, num, r.Config.QuestionsPerRound)
	if err != nil {
		return err
	}

	if err := r.Config.API.StartRound(ctx, r.GameID, roundID); err != nil {
		return err
	}

	r.mtx.Lock()
	r.roundID = roundID
	r.mtx.Unlock()

	logging.FromContext(ctx).Named("session.loop").Infof(
		"Round %d/%d created, game: %d, round id: %d", num, r.TotalRounds, r.GameID, roundID)

	return nil
}

func (r *Session) waitRoom(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("session.room")

	status, err := r.Config.Room.Wait(ctx, r.GameID, func(snapshot api.Room) {
		r.mtx.Lock()
		r.roomState = &snapshot
		r.mtx.Unlock()
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Errorf("room wait: %v", err)
		r.setTerminalError(textRoomError)
		return
	}

	switch status {
	case api.RoomStatusInProgress:
		// the host's start action observed through the server; members move
		// on without calling start themselves
		if !r.Config.Host {
			r.MoveState(PhaseLoading)
		}
	case api.RoomStatusFinished:
		r.MoveState(PhaseSetup)
	}
}

func (r *Session) resetLocal() {
	r.timer.Stop()
	r.mtx.Lock()
	r.current = nil
	r.rows = nil
	r.progress = progress{}
	r.notice = ""
	r.mtx.Unlock()
}

func (r *Session) notifyFinished(ctx context.Context) {
	if r.Config.Notifier == nil || r.Config.TelegramID == 0 {
		return
	}

	r.mtx.RLock()
	winner := r.winner
	r.mtx.RUnlock()

	if err := r.Config.Notifier.GameFinished(r.Config.TelegramID, winner); err != nil {
		logging.FromContext(ctx).Named("session.loop").Warnf("notify game finished: %v", err)
	}
}

func (r *Session) shutdown(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("session.shutdown")
	r.timer.Stop()

	if r.stopped.Load() && r.Config.DoneFn != nil {
		if err := r.Config.DoneFn(r); err != nil {
			logger.Errorf("done function: %v", err)
		}
	}

	logger.Infof("The game session closed, game: %d, player: %s", r.GameID, r.Config.PlayerName)
}

func (r *Session) setNotice(text string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.notice = text
}

func (r *Session) setTerminalError(text string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.termErr = text
}
