package session

import (
	"context"
	"errors"

	"github.com/SpiritWalker84/trivia-web/internal/logging"
	"github.com/SpiritWalker84/trivia-web/internal/poll"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/leaderboard"
)

// syncLoop refreshes the ranking on a fixed cadence for as long as the
// session stays in the playing phase. It never advances the progress counter
// and never surfaces its errors: background polls are advisory.
func (r *Session) syncLoop(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("session.sync")

	p := poll.Poller{
		Interval: r.Config.LeaderboardInterval,
		Jitter:   r.Config.LeaderboardJitter,
		Clock:    r.clock,
	}
	err := p.Run(ctx, func(ctx context.Context) (bool, error) {
		if r.Phase() != PhasePlaying {
			return true, nil
		}
		r.refreshLeaderboard(ctx, false)
		return false, nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Debugf("sync loop stopped, game %d: %v", r.GameID, err)
	}
}

// refreshLeaderboard pulls the aggregate round state. Only authoritative
// refreshes, issued right after a successful question load, may advance the
// question counter: a background poll could race ahead of the question that
// is actually on screen.
func (r *Session) refreshLeaderboard(ctx context.Context, authoritative bool) {
	board, err := r.Config.API.Leaderboard(ctx, r.GameID, r.UserID)
	if err != nil {
		if ctx.Err() == nil {
			logging.FromContext(ctx).Named("session.sync").Debugf("leaderboard, game %d: %v", r.GameID, err)
		}
		return
	}

	rows := leaderboard.Project(board.Participants)

	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.rows = rows
	if board.TotalQuestions > 0 {
		r.progress.Total = board.TotalQuestions
	}
	if authoritative && board.CurrentQuestionNumber > r.progress.Current {
		r.progress.Current = board.CurrentQuestionNumber
	}
}

// completeRound persists the elimination exactly once per round, no matter
// how many racing pollers observed the terminal signal, then promotes the
// phase. Completion is never inferred from the counter: the terminal signal
// from question delivery is the only edge trigger.
func (r *Session) completeRound(ctx context.Context) {
	if !r.finishing.CompareAndSwap(false, true) {
		return
	}

	logger := logging.FromContext(ctx).Named("session.sync")
	r.timer.Stop()

	result, err := r.Config.API.FinishRound(ctx, r.GameID)
	if err != nil {
		// elimination state is recomputed by the server on the next round;
		// the transition must still happen
		logger.Errorf("finish round, game %d: %v", r.GameID, err)
	}

	r.mtx.Lock()
	r.current = nil
	r.notice = ""
	if result.AllEliminated || result.GameStatus == "finished" {
		r.gameOver = true
	}
	if len(r.rows) > 0 {
		r.winner = r.rows[0].Name
	}
	over := r.gameOver || r.roundNumber >= r.TotalRounds
	round := r.roundNumber
	r.mtx.Unlock()

	logger.Infof("Round %d complete, game: %d, game over: %v", round, r.GameID, over)

	if over {
		r.MoveState(PhaseFinished)
		return
	}

	r.MoveState(PhaseRoundSummary)
}
