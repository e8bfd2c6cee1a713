package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestNextQuestionReady(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/questions/random" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("game_id") != "42" || r.URL.Query().Get("user_id") != "7" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"round_question_id": 910,
			"question": map[string]interface{}{
				"id":         3,
				"text":       "Какая самая длинная река в мире?",
				"time_limit": 10,
				"answers": []map[string]interface{}{
					{"id": 9, "text": "Амазонка", "is_correct": false},
					{"id": 10, "text": "Нил", "is_correct": true},
				},
			},
		})
	})

	result, err := client.NextQuestion(context.Background(), 42, 7)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if result.Outcome != OutcomeReady {
		t.Fatalf("expected OutcomeReady, got %d", result.Outcome)
	}
	if result.RoundQuestionID != 910 || result.Question.ID != 3 || result.Question.TimeLimit != 10 {
		t.Errorf("unexpected result %+v", result)
	}
	if correct, ok := result.Question.CorrectAnswer(); !ok || correct.ID != 10 {
		t.Errorf("expected correct answer 10, got %+v ok=%v", correct, ok)
	}
}

func TestNextQuestionPending(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	result, err := client.NextQuestion(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if result.Outcome != OutcomePending {
		t.Fatalf("expected OutcomePending, got %d", result.Outcome)
	}
}

func TestNextQuestionSignalBearing400(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		detail  string
		outcome QuestionOutcome
	}{
		{"race no active round", "No active round for this game", OutcomeRoundRace},
		{"race not in progress", "Game is not in progress", OutcomeRoundRace},
		{"terminal round complete", "Round completed. Please start a new round.", OutcomeRoundComplete},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": tc.detail})
			})

			result, err := client.NextQuestion(context.Background(), 1, 1)
			if err != nil {
				t.Fatalf("next question: %v", err)
			}
			if result.Outcome != tc.outcome {
				t.Fatalf("expected outcome %d, got %d", tc.outcome, result.Outcome)
			}
		})
	}
}

func TestNextQuestionMissingIdentity(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"question": map[string]interface{}{"id": 1, "text": "?", "time_limit": 10},
		})
	})

	if _, err := client.NextQuestion(context.Background(), 1, 1); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestCreateGameValidation(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	if _, err := client.CreateGame(context.Background(), "", 0, false); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestJoinRoomUnknownCode(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := client.JoinRoom(context.Background(), "NOPE", "Маша"); !errors.Is(err, ErrUnknownRoomCode) {
		t.Fatalf("expected ErrUnknownRoomCode, got %v", err)
	}
}

func TestSubmitAnswerPayload(t *testing.T) {
	t.Parallel()

	var got AnswerSubmission
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode submission: %v", err)
		}
	})

	sub := AnswerSubmission{
		SubmissionID:    "b8e4",
		GameID:          42,
		UserID:          7,
		QuestionID:      3,
		AnswerID:        2,
		RoundQuestionID: 910,
		ChosenOption:    "B",
		ElapsedSeconds:  4.2,
	}
	if err := client.SubmitAnswer(context.Background(), sub); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if got != sub {
		t.Errorf("expected %+v got %+v", sub, got)
	}
}

func TestFinishRound(t *testing.T) {
	t.Parallel()

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"all_eliminated": true, "game_status": "finished"})
	})

	result, err := client.FinishRound(context.Background(), 42)
	if err != nil {
		t.Fatalf("finish round: %v", err)
	}
	if !result.AllEliminated || result.GameStatus != "finished" {
		t.Errorf("unexpected result %+v", result)
	}
}
