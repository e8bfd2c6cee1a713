package session

import (
	"github.com/SpiritWalker84/trivia-web/internal/trivia/api"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/leaderboard"
)

// The view model is the only engine surface the hosting UI reads. Internal
// guards and timers never leak through it.

type AnswerView struct {
	ID    int64
	Label string
	Text  string
}

type QuestionView struct {
	ID              int64
	RoundQuestionID int64
	Text            string
	Category        string
	Difficulty      string
	Answers         []AnswerView
	TimeLimit       int
	Remaining       int

	Resolved       bool
	TimedOut       bool
	SelectedAnswer int64
	// Revealed only after the question is resolved.
	CorrectAnswerID int64
	Explanation     string
}

type RoomView struct {
	Players    []string
	HostUserID int64
	IsHost     bool
	Status     api.RoomStatus
}

type Progress struct {
	Current int
	Total   int
}

type Snapshot struct {
	Phase       Phase
	GameID      int64
	UserID      int64
	InviteCode  string
	RoundNumber int
	TotalRounds int
	Progress    Progress
	Question    *QuestionView
	Leaderboard []leaderboard.Row
	Room        *RoomView
	Notice      string
	Err         string
	GameOver    bool
	Winner      string
}

func (r *Session) Snapshot() Snapshot {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	snapshot := Snapshot{
		Phase:       r.phase,
		GameID:      r.GameID,
		UserID:      r.UserID,
		InviteCode:  r.InviteCode,
		RoundNumber: r.roundNumber,
		TotalRounds: r.TotalRounds,
		Progress:    Progress(r.progress),
		Leaderboard: append([]leaderboard.Row(nil), r.rows...),
		Notice:      r.notice,
		Err:         r.termErr,
		GameOver:    r.gameOver,
		Winner:      r.winner,
	}

	if r.current != nil {
		snapshot.Question = r.questionView()
	}

	if r.roomState != nil {
		view := RoomView{
			HostUserID: r.roomState.HostUserID,
			IsHost:     r.Config.Host,
			Status:     r.roomState.Status,
		}
		for _, p := range r.roomState.Players {
			view.Players = append(view.Players, p.Name)
		}
		snapshot.Room = &view
	}

	return snapshot
}

func (r *Session) questionView() *QuestionView {
	cur := r.current
	view := &QuestionView{
		ID:              cur.question.ID,
		RoundQuestionID: cur.roundQuestionID,
		Text:            cur.question.Text,
		Category:        cur.question.Category,
		Difficulty:      cur.question.Difficulty,
		TimeLimit:       cur.question.TimeLimit,
		Remaining:       r.timer.Remaining(),
		Resolved:        cur.resolved,
		TimedOut:        cur.timedOut,
		SelectedAnswer:  cur.selectedAnswer,
	}

	for i, a := range cur.question.Answers {
		view.Answers = append(view.Answers, AnswerView{ID: a.ID, Label: optionLabel(i), Text: a.Text})
	}

	// correctness stays hidden until the slot is resolved
	if cur.resolved {
		if correct, ok := cur.question.CorrectAnswer(); ok {
			view.CorrectAnswerID = correct.ID
		}
		view.Explanation = cur.question.Explanation
	}

	return view
}
