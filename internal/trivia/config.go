package trivia

import (
	"time"

	"github.com/SpiritWalker84/trivia-web/internal/database"
)

type Config struct {
	// Base URL of the trivia-web REST API
	APIBaseURL string `envconfig:"TRIVIA_API_URL" default:"http://localhost:8000"`

	HTTPTimeout time.Duration `envconfig:"TRIVIA_HTTP_TIMEOUT" default:"10s"`

	// Verbose engine logging
	Debug bool `envconfig:"TRIVIA_DEBUG" default:"false"`

	// Number of items in the question and displayed-mark caches
	CacheSize int `envconfig:"TRIVIA_CACHE_SIZE" default:"1024"`

	QuestionsPerRound int `envconfig:"TRIVIA_QUESTIONS_PER_ROUND" default:"10"`

	// Used when the server does not report total rounds on game creation
	RoundsPerGame int `envconfig:"TRIVIA_ROUNDS_PER_GAME" default:"9"`

	// Leaderboard poll cadence while a round is being played
	LeaderboardInterval time.Duration `envconfig:"TRIVIA_LEADERBOARD_INTERVAL" default:"2s"`
	LeaderboardJitter   time.Duration `envconfig:"TRIVIA_LEADERBOARD_JITTER" default:"250ms"`

	// Waiting-room roster poll cadence
	RosterInterval time.Duration `envconfig:"TRIVIA_ROSTER_INTERVAL" default:"2s"`

	// Question retry cadences: pending covers "round not started yet",
	// race covers mid-round creation races
	PendingInterval time.Duration `envconfig:"TRIVIA_PENDING_INTERVAL" default:"2s"`
	PendingBudget   int           `envconfig:"TRIVIA_PENDING_BUDGET" default:"45"`
	RaceInterval    time.Duration `envconfig:"TRIVIA_RACE_INTERVAL" default:"1s"`
	RaceBudget      int           `envconfig:"TRIVIA_RACE_BUDGET" default:"5"`

	// How long the answer result stays on screen before the next question
	PostResultDelay time.Duration `envconfig:"TRIVIA_POST_RESULT_DELAY" default:"2500ms"`

	// Telegram bot token for lifecycle notifications, optional
	BotToken string `envconfig:"TRIVIA_BOT_TOKEN"`

	Db database.Config
}
