package session

import (
	"context"

	"github.com/SpiritWalker84/trivia-web/internal/logging"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/api"
	"github.com/google/uuid"
)

// Stable labels for answer ordinals; the server stores the label.
var optionLabels = [...]string{"A", "B", "C", "D"}

// SubmitAnswer resolves the active question with the player's choice. At most
// one submission leaves the session per question slot.
func (r *Session) SubmitAnswer(ctx context.Context, answerID int64) {
	r.resolve(ctx, answerID, false)
}

func (r *Session) handleTimeout(ctx context.Context) {
	r.resolve(ctx, 0, true)
}

func (r *Session) resolve(ctx context.Context, answerID int64, timedOut bool) {
	logger := logging.FromContext(ctx).Named("session.answer")

	r.mtx.Lock()
	cur := r.current
	if cur == nil || cur.resolved {
		r.mtx.Unlock()
		return
	}

	question := cur.question
	if timedOut {
		// the server counts a player as having responded only when an answer
		// arrives; without the placeholder round completion would stall
		answerID = placeholderAnswer(question)
	}

	idx, answer, ok := findAnswer(question, answerID)
	if !ok {
		r.mtx.Unlock()
		logger.Warnf("answer %d does not belong to question %d", answerID, question.ID)
		return
	}

	cur.resolved = true
	cur.selectedAnswer = answer.ID
	cur.timedOut = timedOut

	elapsed := r.clock.Since(cur.loadedAt).Seconds()
	if limit := float64(question.TimeLimit); elapsed > limit {
		elapsed = limit
	}

	sub := api.AnswerSubmission{
		SubmissionID:    uuid.NewString(),
		GameID:          r.GameID,
		UserID:          r.UserID,
		QuestionID:      question.ID,
		AnswerID:        answer.ID,
		RoundQuestionID: cur.roundQuestionID,
		ChosenOption:    optionLabel(idx),
		IsCorrect:       answer.IsCorrect && !timedOut,
		ElapsedSeconds:  elapsed,
	}
	r.mtx.Unlock()

	r.timer.Stop()

	// fire-and-forget: the authoritative score lives server-side, a dropped
	// submission only risks a wrong score for this player
	go func() {
		if err := r.Config.API.SubmitAnswer(ctx, sub); err != nil {
			logger.Warnf("submit answer %s: %v", sub.SubmissionID, err)
		}
	}()

	// let the player see the result before the next slot loads
	go r.scheduleAdvance(r.playingCtx())
}

func (r *Session) scheduleAdvance(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-r.clock.After(r.Config.PostResultDelay):
	}

	r.advanceQuestion(ctx)
}

// placeholderAnswer picks the deterministic incorrect stand-in submitted when
// the timer runs out with no user action.
func placeholderAnswer(q api.Question) int64 {
	for _, a := range q.Answers {
		if !a.IsCorrect {
			return a.ID
		}
	}
	if len(q.Answers) > 0 {
		return q.Answers[0].ID
	}
	return 0
}

func findAnswer(q api.Question, answerID int64) (int, api.Answer, bool) {
	for i, a := range q.Answers {
		if a.ID == answerID {
			return i, a, true
		}
	}
	return 0, api.Answer{}, false
}

func optionLabel(idx int) string {
	if idx < 0 || idx >= len(optionLabels) {
		return ""
	}
	return optionLabels[idx]
}
