// Package api is the client of the trivia-web REST collaborator. Status codes
// double as protocol signals on the question endpoint: 202 means "not started
// yet", 400 either a round-creation race or the terminal round-complete
// signal, depending on the reason text.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrValidation       = fmt.Errorf("validation rejected by server")
	ErrUnknownRoomCode  = fmt.Errorf("unknown room code")
	ErrMalformedPayload = fmt.Errorf("malformed payload")
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func New(config Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		http:    &http.Client{Timeout: config.Timeout},
	}
}

type Client struct {
	baseURL string
	http    *http.Client
}

type createGameRequest struct {
	Name       string `json:"name"`
	TelegramID int64  `json:"telegram_id,omitempty"`
	Private    bool   `json:"private,omitempty"`
}

func (c *Client) CreateGame(ctx context.Context, name string, telegramID int64, private bool) (Game, error) {
	var game Game
	status, err := c.post(ctx, "/api/games", createGameRequest{Name: name, TelegramID: telegramID, Private: private}, &game)
	if err != nil {
		return game, err
	}
	if status == http.StatusBadRequest {
		return game, ErrValidation
	}
	if status != http.StatusOK {
		return game, fmt.Errorf("create game: unexpected status %d", status)
	}

	return game, nil
}

type joinRoomRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (c *Client) JoinRoom(ctx context.Context, code, name string) (Game, error) {
	var game Game
	status, err := c.post(ctx, "/api/rooms/join", joinRoomRequest{Code: code, Name: name}, &game)
	if err != nil {
		return game, err
	}
	if status == http.StatusNotFound || status == http.StatusBadRequest {
		return game, ErrUnknownRoomCode
	}
	if status != http.StatusOK {
		return game, fmt.Errorf("join room: unexpected status %d", status)
	}

	return game, nil
}

type createRoundRequest struct {
	GameID         int64 `json:"game_id"`
	RoundNumber    int   `json:"round_number"`
	QuestionsCount int   `json:"questions_count"`
}

func (c *Client) CreateRound(ctx context.Context, gameID int64, roundNumber, questionsCount int) (int64, error) {
	var resp struct {
		RoundID int64 `json:"round_id"`
	}
	status, err := c.post(ctx, "/api/rounds", createRoundRequest{
		GameID:         gameID,
		RoundNumber:    roundNumber,
		QuestionsCount: questionsCount,
	}, &resp)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("create round: unexpected status %d", status)
	}

	return resp.RoundID, nil
}

type startRoundRequest struct {
	GameID  int64 `json:"game_id"`
	RoundID int64 `json:"round_id"`
}

func (c *Client) StartRound(ctx context.Context, gameID, roundID int64) error {
	status, err := c.post(ctx, "/api/rounds/start", startRoundRequest{GameID: gameID, RoundID: roundID}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("start round: unexpected status %d", status)
	}

	return nil
}

// NextQuestion polls the current/random question for this session and decodes
// the status code into a tagged outcome. A transport failure or an undecodable
// success body is an error, not an outcome.
func (c *Client) NextQuestion(ctx context.Context, gameID, userID int64) (QuestionResult, error) {
	var result QuestionResult

	query := url.Values{}
	query.Set("game_id", strconv.FormatInt(gameID, 10))
	query.Set("user_id", strconv.FormatInt(userID, 10))

	status, body, err := c.get(ctx, "/api/questions/random?"+query.Encode())
	if err != nil {
		return result, err
	}

	switch status {
	case http.StatusOK:
		var resp struct {
			Question        *Question `json:"question"`
			RoundQuestionID int64     `json:"round_question_id"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return result, fmt.Errorf("decode question: %w", err)
		}
		if resp.Question == nil || resp.RoundQuestionID == 0 {
			return result, fmt.Errorf("question without identity: %w", ErrMalformedPayload)
		}
		result.Outcome = OutcomeReady
		result.Question = resp.Question
		result.RoundQuestionID = resp.RoundQuestionID
		return result, nil
	case http.StatusAccepted:
		result.Outcome = OutcomePending
		return result, nil
	case http.StatusBadRequest:
		if isRoundRace(decodeDetail(body)) {
			result.Outcome = OutcomeRoundRace
		} else {
			result.Outcome = OutcomeRoundComplete
		}
		return result, nil
	default:
		return result, fmt.Errorf("next question: unexpected status %d", status)
	}
}

func isRoundRace(detail string) bool {
	detail = strings.ToLower(detail)
	return strings.Contains(detail, "no active round") || strings.Contains(detail, "not in progress")
}

type markDisplayedRequest struct {
	RoundQuestionID int64 `json:"round_question_id"`
}

func (c *Client) MarkDisplayed(ctx context.Context, roundQuestionID int64) error {
	status, err := c.post(ctx, "/api/questions/displayed", markDisplayedRequest{RoundQuestionID: roundQuestionID}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("mark displayed: unexpected status %d", status)
	}

	return nil
}

func (c *Client) SubmitAnswer(ctx context.Context, sub AnswerSubmission) error {
	status, err := c.post(ctx, "/api/answer", sub, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("submit answer: unexpected status %d", status)
	}

	return nil
}

func (c *Client) Leaderboard(ctx context.Context, gameID, userID int64) (Leaderboard, error) {
	var board Leaderboard

	query := url.Values{}
	query.Set("game_id", strconv.FormatInt(gameID, 10))
	query.Set("user_id", strconv.FormatInt(userID, 10))

	status, body, err := c.get(ctx, "/api/leaderboard?"+query.Encode())
	if err != nil {
		return board, err
	}
	if status != http.StatusOK {
		return board, fmt.Errorf("leaderboard: unexpected status %d", status)
	}

	if err := json.Unmarshal(body, &board); err != nil {
		return board, fmt.Errorf("decode leaderboard: %w", err)
	}

	return board, nil
}

type finishRoundRequest struct {
	GameID int64 `json:"game_id"`
}

func (c *Client) FinishRound(ctx context.Context, gameID int64) (FinishResult, error) {
	var result FinishResult
	status, err := c.post(ctx, "/api/rounds/finish", finishRoundRequest{GameID: gameID}, &result)
	if err != nil {
		return result, err
	}
	if status != http.StatusOK {
		return result, fmt.Errorf("finish round: unexpected status %d", status)
	}

	return result, nil
}

func (c *Client) RoomState(ctx context.Context, gameID int64) (Room, error) {
	var room Room

	status, body, err := c.get(ctx, "/api/rooms/"+strconv.FormatInt(gameID, 10))
	if err != nil {
		return room, err
	}
	if status != http.StatusOK {
		return room, fmt.Errorf("room state: unexpected status %d", status)
	}

	if err := json.Unmarshal(body, &room); err != nil {
		return room, fmt.Errorf("decode room: %w", err)
	}

	return room, nil
}

type leaveGameRequest struct {
	GameID int64 `json:"game_id"`
	UserID int64 `json:"user_id"`
}

func (c *Client) LeaveGame(ctx context.Context, gameID, userID int64) error {
	status, err := c.post(ctx, "/api/game/leave", leaveGameRequest{GameID: gameID, UserID: userID}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("leave game: unexpected status %d", status)
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// post sends payload and decodes the body into out when out is non-nil and
// the server answered 200. The status is always returned so callers can map
// signal-bearing failures.
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

func decodeDetail(body []byte) string {
	var resp struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Detail
}
