package model

import "time"

// State is the minimal identity a client needs to rejoin its game after a
// restart. Everything else (scores, round progress) is reconstructed from the
// server by polling.
type State struct {
	GameID      int64  `json:"gameId"`
	UserID      int64  `json:"userId"`
	TelegramID  int64  `json:"telegramId,omitempty"`
	PlayerName  string `json:"playerName"`
	Phase       uint8  `json:"phase"`
	RoundNumber int    `json:"roundNumber"`
	TotalRounds int    `json:"totalRounds"`
	InviteCode  string `json:"inviteCode,omitempty"`
	Private     bool   `json:"private"`
	Host        bool   `json:"host"`

	CreatedAt time.Time `json:"createdAt"`
}
