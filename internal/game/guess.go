package game

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sujalbistaa/anchorword/internal/anchor"
	"github.com/sujalbistaa/anchorword/internal/models"
)

// Standing is a player's position on a challenge: Unsolved or Solved.
type Standing interface {
	AttemptCount() int
	isStanding()
}

// Unsolved carries no reveal.
type Unsolved struct {
	Attempts int
}

// Solved reveals the anchor and the words together with the award.
type Solved struct {
	Attempts int
	Award    int
	Anchor   string
	Words    []string
}

func (u Unsolved) AttemptCount() int { return u.Attempts }
func (s Solved) AttemptCount() int   { return s.Attempts }

func (Unsolved) isStanding() {}
func (Solved) isStanding()   {}

// Award is the score for solving on the given attempt.
func Award(attempt int) int {
	switch {
	case attempt <= 1:
		return 20
	case attempt == 2:
		return 15
	case attempt == 3:
		return 10
	default:
		return 5
	}
}

func standing(c models.Challenge, state models.UserChallengeState) Standing {
	if !state.Solved {
		return Unsolved{Attempts: state.Attempts}
	}
	return Solved{
		Attempts: state.Attempts,
		Award:    state.LastAward,
		Anchor:   c.Anchor,
		Words:    c.Words,
	}
}

// SubmitGuess evaluates one guess. A correct guess returns Solved, a wrong
// one Unsolved. Once solved, further calls return the recorded result and
// change nothing.
func (s *Service) SubmitGuess(ctx context.Context, postID, username, rawGuess string) (Standing, error) {
	guess := strings.ToLower(strings.TrimSpace(rawGuess))
	if guess == "" {
		return nil, ErrEmptyGuess
	}

	c, found, err := s.store.LoadChallenge(ctx, postID)
	if err != nil {
		return nil, upstream("load challenge", err)
	}
	if !found {
		return nil, ErrNoChallenge
	}

	state, err := s.store.LoadUserState(ctx, postID, username)
	if err != nil {
		return nil, upstream("load progress", err)
	}
	if state.Solved {
		return standing(c, state), nil
	}
	if username == c.Creator {
		return nil, ErrCreatorCannotGuess
	}

	attempts, err := s.store.IncrementAttempts(ctx, postID, username)
	if err != nil {
		return nil, upstream("count attempt", err)
	}
	seq, err := s.store.IncrementTotalAttempts(ctx, postID)
	if err != nil {
		return nil, upstream("count attempt", err)
	}
	entry := models.AnswerLogEntry{
		Username:  username,
		Attempt:   attempts,
		Text:      guess,
		Seq:       seq,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.AppendAnswerLog(ctx, postID, entry); err != nil {
		return nil, upstream("log answer", err)
	}

	if guess != strings.ToLower(c.Anchor) {
		s.metrics.ObserveGuess(false, attempts)
		return Unsolved{Attempts: attempts}, nil
	}

	award := Award(attempts)
	if err := s.store.MarkSolved(ctx, postID, username, award); err != nil {
		return nil, upstream("record solve", err)
	}

	s.log.Info("challenge solved",
		zap.String("postId", postID),
		zap.String("username", username),
		zap.Int("attempts", attempts),
		zap.Int("award", award))
	s.metrics.ObserveGuess(true, attempts)
	s.publish(EventChallengeSolved, map[string]interface{}{
		"postId":   postID,
		"username": username,
		"attempts": attempts,
		"score":    award,
	})

	return Solved{Attempts: attempts, Award: award, Anchor: c.Anchor, Words: c.Words}, nil
}

// InitView is what a player sees when opening a challenge.
type InitView struct {
	PostID    string
	Clues     []string
	IsCreator bool
	Standing  Standing
}

// Init builds the opening view. Missing challenges return ErrNoChallenge.
func (s *Service) Init(ctx context.Context, postID, username string) (InitView, error) {
	c, found, err := s.store.LoadChallenge(ctx, postID)
	if err != nil {
		return InitView{}, upstream("load challenge", err)
	}
	if !found {
		return InitView{}, ErrNoChallenge
	}
	state, err := s.store.LoadUserState(ctx, postID, username)
	if err != nil {
		return InitView{}, upstream("load progress", err)
	}
	return InitView{
		PostID:    postID,
		Clues:     anchor.Clues(c.Anchor, c.Words),
		IsCreator: username == c.Creator,
		Standing:  standing(c, state),
	}, nil
}
