package api

// Wire types mirror the trivia-web REST API (snake_case payloads).

type Answer struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	ID          int64    `json:"id"`
	Text        string   `json:"text"`
	Answers     []Answer `json:"answers"`
	Category    string   `json:"category,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	TimeLimit   int      `json:"time_limit"`
}

// CorrectAnswer returns the answer flagged correct by the server. The flag is
// informational, revealed only after the question is resolved.
func (q Question) CorrectAnswer() (Answer, bool) {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a, true
		}
	}
	return Answer{}, false
}

type Participant struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	CorrectAnswers int    `json:"correct_answers"`
	Avatar         string `json:"avatar,omitempty"`
	IsEliminated   bool   `json:"is_eliminated"`
	IsCurrentUser  bool   `json:"is_current_user"`
}

type Leaderboard struct {
	Participants          []Participant `json:"participants"`
	CurrentQuestionNumber int           `json:"current_question_number"`
	TotalQuestions        int           `json:"total_questions"`
}

type Game struct {
	GameID      int64  `json:"game_id"`
	UserID      int64  `json:"user_id"`
	TotalRounds int    `json:"total_rounds"`
	InviteCode  string `json:"invite_code,omitempty"`
}

type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "waiting"
	RoomStatusInProgress RoomStatus = "inProgress"
	RoomStatusFinished   RoomStatus = "finished"
)

type RoomPlayer struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type Room struct {
	Players    []RoomPlayer `json:"players"`
	HostUserID int64        `json:"host_user_id"`
	Status     RoomStatus   `json:"status"`
}

type FinishResult struct {
	AllEliminated bool   `json:"all_eliminated"`
	GameStatus    string `json:"game_status,omitempty"`
}

// AnswerSubmission carries one resolved question slot. SubmissionID is a
// client-generated idempotency key, ChosenOption the stable A..D label of the
// picked answer.
type AnswerSubmission struct {
	SubmissionID    string  `json:"submission_id"`
	GameID          int64   `json:"game_id"`
	UserID          int64   `json:"user_id"`
	QuestionID      int64   `json:"question_id"`
	AnswerID        int64   `json:"answer_id"`
	RoundQuestionID int64   `json:"round_question_id"`
	ChosenOption    string  `json:"chosen_option"`
	IsCorrect       bool    `json:"is_correct"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
}

// QuestionOutcome tags one poll of the current-question endpoint. The wire
// status is decoded exactly once, the engine branches on the tag only.
type QuestionOutcome uint8

const (
	// OutcomeReady carries a question payload.
	OutcomeReady QuestionOutcome = iota + 1
	// OutcomePending: round or game not started yet, retry generously.
	OutcomePending
	// OutcomeRoundRace: round creation raced the poll, retry briefly.
	OutcomeRoundRace
	// OutcomeRoundComplete: terminal signal, the round is over.
	OutcomeRoundComplete
)

type QuestionResult struct {
	Outcome         QuestionOutcome
	Question        *Question
	RoundQuestionID int64
}
