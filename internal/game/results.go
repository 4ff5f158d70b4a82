package game

import (
	"context"
	"math"
	"sort"

	"github.com/sujalbistaa/anchorword/internal/models"
)

// AnswerStat is one distinct answer in the results screen.
type AnswerStat struct {
	Text       string `json:"text"`
	Count      int    `json:"count"`
	IsCorrect  bool   `json:"isCorrect"`
	Percentage int    `json:"percentageOfTotal"`
}

type ResultsSummary struct {
	TotalAttempts int64        `json:"totalAttempts"`
	TotalSolvers  int64        `json:"totalSolvers"`
	Answers       []AnswerStat `json:"answers"`
	Anchor        string       `json:"anchor"`
}

// Results summarises every guess on a challenge. Only solvers and the
// creator may see it.
func (s *Service) Results(ctx context.Context, postID, username string) (ResultsSummary, error) {
	c, found, err := s.store.LoadChallenge(ctx, postID)
	if err != nil {
		return ResultsSummary{}, upstream("load challenge", err)
	}
	if !found {
		return ResultsSummary{}, ErrNoChallenge
	}
	if username != c.Creator {
		state, err := s.store.LoadUserState(ctx, postID, username)
		if err != nil {
			return ResultsSummary{}, upstream("load progress", err)
		}
		if !state.Solved {
			return ResultsSummary{}, ErrNotYetSolved
		}
	}

	total, err := s.store.TotalAttempts(ctx, postID)
	if err != nil {
		return ResultsSummary{}, upstream("load total attempts", err)
	}
	solvers, err := s.store.SolverCount(ctx, postID)
	if err != nil {
		return ResultsSummary{}, upstream("count solvers", err)
	}
	log, err := s.store.AnswerLog(ctx, postID)
	if err != nil {
		return ResultsSummary{}, upstream("load answers", err)
	}

	return ResultsSummary{
		TotalAttempts: total,
		TotalSolvers:  solvers,
		Answers:       Aggregate(c.Anchor, log),
		Anchor:        c.Anchor,
	}, nil
}

// Aggregate groups log entries by text, most frequent first. Equal counts
// keep the order in which each text first appeared.
func Aggregate(anchorWord string, log []models.AnswerLogEntry) []AnswerStat {
	index := make(map[string]int)
	stats := make([]AnswerStat, 0)
	for _, e := range log {
		if i, ok := index[e.Text]; ok {
			stats[i].Count++
			continue
		}
		index[e.Text] = len(stats)
		stats = append(stats, AnswerStat{Text: e.Text, Count: 1, IsCorrect: e.Text == anchorWord})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })

	for i := range stats {
		stats[i].Percentage = int(math.Round(float64(stats[i].Count) / float64(len(log)) * 100))
	}
	return stats
}
