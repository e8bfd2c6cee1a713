package leaderboard

import (
	"testing"

	"github.com/SpiritWalker84/trivia-web/internal/trivia/api"
)

func TestProjectActiveBeforeEliminated(t *testing.T) {
	t.Parallel()

	rows := Project([]api.Participant{
		{Name: "Мария", CorrectAnswers: 4, IsEliminated: true},
		{Name: "Алексей", CorrectAnswers: 2, IsCurrentUser: true},
		{Name: "Дмитрий", CorrectAnswers: 7},
		{Name: "Анна", CorrectAnswers: 1, IsEliminated: true},
		{Name: "Иван", CorrectAnswers: 5},
	})

	want := []string{"Дмитрий", "Иван", "Алексей", "Мария", "Анна"}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, name := range want {
		if rows[i].Name != name {
			t.Errorf("row %d: expected %s, got %s", i, name, rows[i].Name)
		}
		if rows[i].Position != i+1 {
			t.Errorf("row %d: expected position %d, got %d", i, i+1, rows[i].Position)
		}
	}

	for _, row := range rows[:3] {
		if row.Eliminated {
			t.Errorf("active row %s flagged eliminated", row.Name)
		}
	}
	for _, row := range rows[3:] {
		if !row.Eliminated {
			t.Errorf("eliminated row %s flagged active", row.Name)
		}
	}
	if !rows[2].CurrentUser {
		t.Errorf("current user flag lost for %s", rows[2].Name)
	}
}

func TestProjectStableOnTies(t *testing.T) {
	t.Parallel()

	rows := Project([]api.Participant{
		{Name: "София", CorrectAnswers: 3},
		{Name: "Максим", CorrectAnswers: 3},
		{Name: "Елена", CorrectAnswers: 3},
	})

	want := []string{"София", "Максим", "Елена"}
	for i, name := range want {
		if rows[i].Name != name {
			t.Errorf("tie order changed: row %d expected %s, got %s", i, name, rows[i].Name)
		}
	}
}

func TestProjectEmpty(t *testing.T) {
	t.Parallel()

	if rows := Project(nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}
