package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SpiritWalker84/trivia-web/internal/database"
	stateDb "github.com/SpiritWalker84/trivia-web/internal/database/sessionstate/database"
	"github.com/SpiritWalker84/trivia-web/internal/logging"
	"github.com/SpiritWalker84/trivia-web/internal/shutdown"
	"github.com/SpiritWalker84/trivia-web/internal/trivia"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/notify"
	"github.com/SpiritWalker84/trivia-web/internal/trivia/session"
	"github.com/SpiritWalker84/trivia-web/internal/util"
	"github.com/enescakir/emoji"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"
)

const greeting = `Trivia Web CLI
Раунды на выбывание: отвечайте быстрее всех, последний оставшийся побеждает.
Команды: 1-4 ответить, start начать игру, next следующий раунд, quit выйти
`

func main() {
	_, _ = fmt.Fprint(os.Stdout, greeting)

	ctx, done := shutdown.New()
	defer done()
	logger := logging.FromContext(ctx)
	if err := realMain(ctx); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context) error {
	name := flag.String("name", "", "player name")
	code := flag.String("join", "", "invite code of a private room to join")
	private := flag.Bool("room", false, "create a private room instead of a quick game")
	telegramID := flag.Int64("telegram-id", 0, "optional telegram id for notifications")
	flag.Parse()

	if *name == "" {
		return fmt.Errorf("player name is required, pass -name")
	}

	config := trivia.Config{}
	if err := envconfig.Process("", &config); err != nil {
		return fmt.Errorf("processing the config: %w", err)
	}

	ctx = logging.WithLogger(ctx, logging.NewLogger(config.Debug))
	logger := logging.FromContext(ctx)

	db, err := database.NewFromEnv(ctx, &config.Db)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}
	defer db.Close(ctx)

	var notifier notify.Notifier
	if config.BotToken != "" {
		tg, err := notify.NewTelegram(config.BotToken)
		if err != nil {
			return fmt.Errorf("telegram notifier: %w", err)
		}
		notifier = tg
	}

	manager, err := trivia.NewManager(&config, stateDb.New(db), notifier)
	if err != nil {
		return fmt.Errorf("new manager: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return manager.Run(ctx)
	})

	var s *session.Session
	switch {
	case *code != "":
		s, err = manager.JoinRoom(ctx, *name, *code, *telegramID)
	case *private:
		s, err = manager.CreateRoom(ctx, *name, *telegramID)
	default:
		s, err = manager.QuickGame(ctx, *name, *telegramID)
	}
	if err != nil {
		manager.Stop()
		_ = group.Wait()
		return err
	}

	group.Go(func() error {
		render(ctx, s)
		return nil
	})
	group.Go(func() error {
		repl(ctx, s)
		manager.Stop()
		return nil
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Infof("bye")
	return nil
}

func repl(ctx context.Context, s *session.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "quit":
			s.Leave(ctx)
			return
		case line == "start":
			s.Start()
		case line == "next":
			s.AdvanceRound()
		default:
			if n, err := strconv.Atoi(line); err == nil {
				answerByOrdinal(ctx, s, n)
			}
		}
	}
}

func answerByOrdinal(ctx context.Context, s *session.Session, n int) {
	snapshot := s.Snapshot()
	if snapshot.Question == nil || n < 1 || n > len(snapshot.Question.Answers) {
		return
	}
	s.SubmitAnswer(ctx, snapshot.Question.Answers[n-1].ID)
}

func render(ctx context.Context, s *session.Session) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			printSnapshot(s.Snapshot())
		}
	}
}

func printSnapshot(snapshot session.Snapshot) {
	switch snapshot.Phase {
	case session.PhaseWaitingRoom:
		players := 0
		if snapshot.Room != nil {
			players = len(snapshot.Room.Players)
		}
		fmt.Printf("%v Комната %s: %d %s\n",
			emoji.HourglassNotDone, snapshot.InviteCode, players,
			util.Noun(players, "игрок", "игрока", "игроков"))
	case session.PhaseLoading:
		fmt.Printf("%v Раунд %d/%d готовится…\n", emoji.HourglassNotDone, snapshot.RoundNumber, snapshot.TotalRounds)
	case session.PhasePlaying:
		printQuestion(snapshot)
	case session.PhaseRoundSummary:
		fmt.Printf("%v Раунд %d завершён. Введите next для следующего раунда\n", emoji.ChequeredFlag, snapshot.RoundNumber)
		printLeaderboard(snapshot)
	case session.PhaseFinished:
		fmt.Printf("%v Игра окончена! Победитель: %s\n", emoji.Trophy, snapshot.Winner)
		printLeaderboard(snapshot)
	}

	if snapshot.Err != "" {
		fmt.Printf("%v %s\n", emoji.Warning, snapshot.Err)
	}
}

func printQuestion(snapshot session.Snapshot) {
	if snapshot.Notice != "" {
		fmt.Printf("%v %s\n", emoji.HourglassNotDone, snapshot.Notice)
		return
	}

	q := snapshot.Question
	if q == nil {
		return
	}

	fmt.Printf("%v %2dс [%d/%d] %s\n", emoji.Stopwatch, q.Remaining, snapshot.Progress.Current, snapshot.Progress.Total, q.Text)
	for i, a := range q.Answers {
		marker := "  "
		if q.Resolved && a.ID == q.CorrectAnswerID {
			marker = emoji.CheckMarkButton.String()
		} else if q.Resolved && a.ID == q.SelectedAnswer {
			marker = emoji.CrossMark.String()
		}
		fmt.Printf("  %d) %s %s %s\n", i+1, a.Label, a.Text, marker)
	}
}

func printLeaderboard(snapshot session.Snapshot) {
	for _, row := range snapshot.Leaderboard {
		marker := "  "
		switch {
		case row.Eliminated:
			marker = emoji.Skull.String()
		case row.Position == 1:
			marker = emoji.Crown.String()
		}
		you := ""
		if row.CurrentUser {
			you = " (вы)"
		}
		fmt.Printf("  %2d. %s %s%s — %d\n", row.Position, marker, row.Name, you, row.Score)
	}
}
