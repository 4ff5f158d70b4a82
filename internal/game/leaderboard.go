package game

import (
	"context"
	"sort"

	"github.com/sujalbistaa/anchorword/internal/models"
)

// DefaultLeaderboardSize is used when no positive size is requested.
const DefaultLeaderboardSize = 10

type Leaderboard struct {
	Top []models.LeaderboardEntry `json:"top"`
	Me  models.LeaderboardEntry   `json:"me"`
}

// Leaderboard ranks every scorer by score, ties by username, with 1-based
// ranks and no gaps. Me has rank -1 when username never scored.
func (s *Service) Leaderboard(ctx context.Context, username string, size int) (Leaderboard, error) {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	scores, err := s.store.Scores(ctx)
	if err != nil {
		return Leaderboard{}, upstream("load leaderboard", err)
	}

	ranked := make([]models.LeaderboardEntry, len(scores))
	for i, sm := range scores {
		ranked[i] = models.LeaderboardEntry{Username: sm.Member, Score: int64(sm.Score)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Username < ranked[j].Username
	})

	lb := Leaderboard{Me: models.LeaderboardEntry{Username: username, Rank: -1}}
	for i := range ranked {
		ranked[i].Rank = i + 1
		if ranked[i].Username == username {
			lb.Me = ranked[i]
		}
	}
	if len(ranked) > size {
		ranked = ranked[:size]
	}
	lb.Top = ranked
	return lb, nil
}

// MyChallenges lists the challenges username created, newest first.
func (s *Service) MyChallenges(ctx context.Context, username string) ([]models.ChallengeIndexEntry, error) {
	entries, err := s.store.CreatorChallenges(ctx, username)
	return entries, upstream("load my challenges", err)
}

// Challenges lists every indexed challenge, newest first.
func (s *Service) Challenges(ctx context.Context) ([]models.ChallengeIndexEntry, error) {
	entries, err := s.store.ChallengeIndex(ctx)
	return entries, upstream("load challenges", err)
}

// Ping reports whether the challenge store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return upstream("ping", s.store.Ping(ctx))
}
