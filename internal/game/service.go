// Package game runs Anchor Word: challenge creation, guess evaluation,
// results and the leaderboard.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sujalbistaa/anchorword/internal/anchor"
	"github.com/sujalbistaa/anchorword/internal/metrics"
	"github.com/sujalbistaa/anchorword/internal/models"
	"github.com/sujalbistaa/anchorword/internal/platform"
	"github.com/sujalbistaa/anchorword/internal/store"
)

// Event types published to the notifier.
const (
	EventChallengeCreated = "challenge_created"
	EventChallengeSolved  = "challenge_solved"
)

// TitlePrefix starts the title of every challenge post.
const TitlePrefix = "Anchor Word Challenge #"

// Notifier receives game events. *ws.Hub satisfies it.
type Notifier interface {
	Publish(eventType string, data interface{})
}

// Deps wires a Service. Notifier, Metrics and Log may be nil.
type Deps struct {
	Store     *store.ChallengeStore
	Oracle    anchor.Oracle
	Poster    platform.Poster
	Notifier  Notifier
	Metrics   *metrics.Metrics
	Log       *zap.Logger
	Subreddit string
	BaseURL   string
}

type Service struct {
	store     *store.ChallengeStore
	oracle    anchor.Oracle
	poster    platform.Poster
	notifier  Notifier
	metrics   *metrics.Metrics
	log       *zap.Logger
	subreddit string
	baseURL   string
	now       func() time.Time
}

func New(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     d.Store,
		oracle:    d.Oracle,
		poster:    d.Poster,
		notifier:  d.Notifier,
		metrics:   d.Metrics,
		log:       log,
		subreddit: d.Subreddit,
		baseURL:   d.BaseURL,
		now:       time.Now,
	}
}

func (s *Service) publish(eventType string, data interface{}) {
	if s.notifier != nil {
		s.notifier.Publish(eventType, data)
	}
}

// Created is returned by CreateChallenge.
type Created struct {
	PostID     string `json:"postId"`
	Title      string `json:"title"`
	NavigateTo string `json:"navigateTo"`
}

// CreateChallenge validates the definition, opens a post for it and indexes
// it for discovery. Rule violations come back as *anchor.ValidationError.
func (s *Service) CreateChallenge(ctx context.Context, username, rawAnchor string, rawWords []string) (Created, error) {
	a, words := anchor.Normalize(rawAnchor, rawWords)
	if err := anchor.Validate(s.oracle, a, words); err != nil {
		var ve *anchor.ValidationError
		if errors.As(err, &ve) {
			s.metrics.ObserveValidationFailure(string(ve.Kind))
		}
		return Created{}, err
	}

	n, err := s.store.NextChallengeNumber(ctx, s.subreddit)
	if err != nil {
		return Created{}, upstream("number challenge", err)
	}
	title := fmt.Sprintf("%s%d", TitlePrefix, n)

	post, err := s.poster.SubmitPost(ctx, s.subreddit, username, title)
	if err != nil {
		return Created{}, upstream("submit post", err)
	}

	created := post.CreatedAt
	if created.IsZero() {
		created = s.now().UTC()
	}
	c := models.Challenge{
		PostID:    post.ID,
		Anchor:    a,
		Words:     words,
		Creator:   username,
		Subreddit: s.subreddit,
		CreatedAt: created,
	}
	if err := s.store.SaveChallenge(ctx, c); err != nil {
		return Created{}, upstream("save challenge", err)
	}
	entry := models.ChallengeIndexEntry{
		PostID:  post.ID,
		Title:   title,
		Created: created,
		Anchor:  a,
		Words:   words,
		Creator: username,
	}
	if err := s.store.IndexChallenge(ctx, entry); err != nil {
		return Created{}, upstream("index challenge", err)
	}

	s.log.Info("challenge created",
		zap.String("postId", post.ID),
		zap.String("creator", username),
		zap.Int("words", len(words)))
	s.metrics.ObserveCreated()
	s.publish(EventChallengeCreated, map[string]interface{}{
		"postId":  post.ID,
		"title":   title,
		"creator": username,
	})

	return Created{
		PostID:     post.ID,
		Title:      title,
		NavigateTo: platform.PostURL(s.baseURL, s.subreddit, post.ID),
	}, nil
}
