// Package leaderboard turns the flat participant list from the server into a
// display ranking. It performs no scoring: elimination flags and tie-breaks
// (time on round loses) are decided server-side and only rendered here.
package leaderboard

import (
	"sort"

	"github.com/SpiritWalker84/trivia-web/internal/trivia/api"
)

type Row struct {
	Position    int
	Name        string
	Score       int
	Eliminated  bool
	CurrentUser bool
}

// Project partitions participants into active and eliminated, sorts each
// group by descending score and concatenates active first. Sorting is stable
// so equal scores keep the server's order.
func Project(participants []api.Participant) []Row {
	var active, eliminated []api.Participant
	for _, p := range participants {
		if p.IsEliminated {
			eliminated = append(eliminated, p)
		} else {
			active = append(active, p)
		}
	}

	byScoreDesc := func(list []api.Participant) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CorrectAnswers > list[j].CorrectAnswers
		})
	}
	byScoreDesc(active)
	byScoreDesc(eliminated)

	rows := make([]Row, 0, len(participants))
	for _, p := range append(active, eliminated...) {
		rows = append(rows, Row{
			Position:    len(rows) + 1,
			Name:        p.Name,
			Score:       p.CorrectAnswers,
			Eliminated:  p.IsEliminated,
			CurrentUser: p.IsCurrentUser,
		})
	}

	return rows
}
