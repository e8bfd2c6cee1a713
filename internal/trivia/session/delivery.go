package session

import (
	"context"
	"fmt"

	"github.com/SpiritWalker84/trivia-web/internal/logging"
	"github.com/SpiritWalker84/trivia-web/internal/poll"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/api"
	"go.uber.org/zap"
)

// advanceQuestion loads the next question slot. Both the timeout path and the
// answer path can request it concurrently; the advancing flag is a non-
// blocking try-lock keeping at most one request in flight per session.
func (r *Session) advanceQuestion(ctx context.Context) {
	if !r.advancing.CompareAndSwap(false, true) {
		return
	}
	defer r.advancing.Store(false)

	logger := logging.FromContext(ctx).Named("session.delivery")

	if r.Phase() != PhasePlaying {
		return
	}

	result, err := r.fetchQuestion(ctx, logger)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Errorf("load next question, game %d: %v", r.GameID, err)
		r.setTerminalError(textQuestionError)
		return
	}

	if result.Outcome == api.OutcomeRoundComplete {
		// the only legitimate trigger for a round transition
		r.completeRound(ctx)
		return
	}

	r.installQuestion(ctx, result, logger)
}

// fetchQuestion polls until a new question or the terminal round-complete
// signal arrives. Stage one tolerates long "not started yet" stretches: room
// start and round creation are asynchronous server operations this poll may
// race with. Stage two burns a much smaller budget on mid-round races.
func (r *Session) fetchQuestion(ctx context.Context, logger *zap.SugaredLogger) (api.QuestionResult, error) {
	var result api.QuestionResult

	step := func(ctx context.Context) (api.QuestionResult, bool) {
		res, err := r.Config.API.NextQuestion(ctx, r.GameID, r.UserID)
		if err != nil {
			// transport faults and malformed payloads burn a poll attempt
			logger.Warnf("next question, game %d: %v", r.GameID, err)
			return res, false
		}
		return res, true
	}

	var first api.QuestionResult
	waiting := poll.Poller{Interval: r.Config.PendingInterval, MaxAttempts: r.Config.PendingBudget, Clock: r.clock}
	if err := waiting.Run(ctx, func(ctx context.Context) (bool, error) {
		res, ok := step(ctx)
		if !ok {
			return false, nil
		}
		if res.Outcome == api.OutcomePending {
			r.setNotice(textWaitingStart)
			return false, nil
		}
		first = res
		return true, nil
	}); err != nil {
		return result, fmt.Errorf("waiting for round start: %w", err)
	}

	fresh := first.Outcome != api.OutcomeRoundRace &&
		!(first.Outcome == api.OutcomeReady && r.isRefresh(first.RoundQuestionID))
	if fresh {
		return first, nil
	}

	racing := poll.Poller{Interval: r.Config.RaceInterval, MaxAttempts: r.Config.RaceBudget, Clock: r.clock}
	if err := racing.Run(ctx, func(ctx context.Context) (bool, error) {
		res, ok := step(ctx)
		if !ok {
			return false, nil
		}
		switch res.Outcome {
		case api.OutcomePending, api.OutcomeRoundRace:
			return false, nil
		case api.OutcomeReady:
			if r.isRefresh(res.RoundQuestionID) {
				// same slot raced a state change, nothing new to render
				return false, nil
			}
		}
		result = res
		return true, nil
	}); err != nil {
		return result, fmt.Errorf("waiting out round race: %w", err)
	}

	return result, nil
}

// isRefresh reports whether the slot is already on screen. A duplicate poll
// result is a no-op refresh, not a new question: no timer reset, no re-render.
func (r *Session) isRefresh(roundQuestionID int64) bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.current != nil && r.current.roundQuestionID == roundQuestionID
}

func (r *Session) installQuestion(ctx context.Context, result api.QuestionResult, logger *zap.SugaredLogger) {
	question := *result.Question

	// repeats of a question in later slots keep their first payload, so
	// option labels stay stable no matter how the server orders the answers
	if r.Config.Questions != nil {
		if cached, ok := r.Config.Questions.Get(question.ID); ok {
			if q, ok := cached.(api.Question); ok {
				question = q
			}
		} else {
			r.Config.Questions.Add(question.ID, question)
		}
	}

	r.mtx.Lock()
	if ctx.Err() != nil || r.phase != PhasePlaying {
		// a fetch that raced the round completion must not resurrect it
		r.mtx.Unlock()
		return
	}
	r.current = &activeQuestion{
		question:        question,
		roundQuestionID: result.RoundQuestionID,
		loadedAt:        r.clock.Now(),
	}
	r.notice = ""
	r.mtx.Unlock()

	r.markDisplayed(ctx, result.RoundQuestionID, logger)

	r.timer.Start(question.TimeLimit, func() {
		r.handleTimeout(ctx)
	})

	// the poll right after a load is the only one allowed to advance the
	// question-progress counter
	go r.refreshLeaderboard(ctx, true)

	logger.Infof("Question %d loaded, slot %d, game: %d", question.ID, result.RoundQuestionID, r.GameID)
}

// markDisplayed tells the server the question reached the screen. Idempotent
// and best-effort: a failure must never block the round.
func (r *Session) markDisplayed(ctx context.Context, roundQuestionID int64, logger *zap.SugaredLogger) {
	if r.Config.Displayed != nil {
		if _, ok := r.Config.Displayed.Get(roundQuestionID); ok {
			return
		}
		r.Config.Displayed.Add(roundQuestionID, struct{}{})
	}

	go func() {
		if err := r.Config.API.MarkDisplayed(ctx, roundQuestionID); err != nil {
			logger.Warnf("mark displayed %d: %v", roundQuestionID, err)
		}
	}()
}
