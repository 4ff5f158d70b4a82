// Package discovery picks the next challenge a player has not seen yet.
package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sujalbistaa/anchorword/internal/game"
	"github.com/sujalbistaa/anchorword/internal/platform"
	"github.com/sujalbistaa/anchorword/internal/store"
)

// feedLimit is how many recent platform posts the last strategy inspects.
const feedLimit = 50

// Query describes who is looking and which post they are leaving.
type Query struct {
	Username      string
	ExcludePostID string
}

// Strategy looks for a playable post. ok is false when it found nothing.
type Strategy struct {
	Name string
	Find func(ctx context.Context, q Query) (postID string, ok bool, err error)
}

// Finder tries its strategies in order and stops at the first hit.
type Finder struct {
	strategies []Strategy
	subreddit  string
	baseURL    string
	log        *zap.Logger
}

// New builds a Finder over the global index, the flat set of known posts and
// the platform feed, in that order. feed may be nil.
func New(st *store.ChallengeStore, feed platform.Feed, subreddit, baseURL string, log *zap.Logger) *Finder {
	if log == nil {
		log = zap.NewNop()
	}
	strategies := []Strategy{
		{Name: "index", Find: indexStrategy(st)},
		{Name: "known-posts", Find: knownPostsStrategy(st)},
	}
	if feed != nil {
		strategies = append(strategies, Strategy{Name: "feed", Find: feedStrategy(st, feed, subreddit)})
	}
	return NewWithStrategies(strategies, subreddit, baseURL, log)
}

func NewWithStrategies(strategies []Strategy, subreddit, baseURL string, log *zap.Logger) *Finder {
	return &Finder{strategies: strategies, subreddit: subreddit, baseURL: baseURL, log: log}
}

// FindNext returns the first unsolved challenge the player did not create.
// A strategy error is logged and the next strategy runs; the error is only
// returned when every strategy failed.
func (f *Finder) FindNext(ctx context.Context, username, excludePostID string) (string, bool, error) {
	q := Query{Username: username, ExcludePostID: excludePostID}
	var firstErr error
	failed := 0
	for _, s := range f.strategies {
		postID, ok, err := s.Find(ctx, q)
		if err != nil {
			f.log.Warn("discovery strategy failed",
				zap.String("strategy", s.Name),
				zap.String("username", username),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			failed++
			continue
		}
		if ok {
			f.log.Debug("discovery hit", zap.String("strategy", s.Name), zap.String("postId", postID))
			return postID, true, nil
		}
	}
	if failed > 0 && failed == len(f.strategies) {
		return "", false, firstErr
	}
	return "", false, nil
}

// FindAnother is FindNext returned as a link to the post.
func (f *Finder) FindAnother(ctx context.Context, username, excludePostID string) (string, bool, error) {
	postID, ok, err := f.FindNext(ctx, username, excludePostID)
	if err != nil || !ok {
		return "", false, err
	}
	return platform.PostURL(f.baseURL, f.subreddit, postID), true, nil
}

func indexStrategy(st *store.ChallengeStore) func(context.Context, Query) (string, bool, error) {
	return func(ctx context.Context, q Query) (string, bool, error) {
		entries, err := st.ChallengeIndex(ctx)
		if err != nil {
			return "", false, err
		}
		for _, e := range entries {
			if e.PostID == q.ExcludePostID || e.Creator == q.Username {
				continue
			}
			solved, err := st.IsSolver(ctx, e.PostID, q.Username)
			if err != nil {
				return "", false, err
			}
			if !solved {
				return e.PostID, true, nil
			}
		}
		return "", false, nil
	}
}

// knownPostsStrategy covers posts that never made it into the index. It has
// no authorship metadata, so the player's own posts come from their creator
// index.
func knownPostsStrategy(st *store.ChallengeStore) func(context.Context, Query) (string, bool, error) {
	return func(ctx context.Context, q Query) (string, bool, error) {
		posts, err := st.KnownPosts(ctx)
		if err != nil {
			return "", false, err
		}
		mine, err := st.CreatorChallenges(ctx, q.Username)
		if err != nil {
			return "", false, err
		}
		own := make(map[string]bool, len(mine))
		for _, e := range mine {
			own[e.PostID] = true
		}
		for _, postID := range posts {
			if postID == q.ExcludePostID || own[postID] {
				continue
			}
			solved, err := st.IsSolver(ctx, postID, q.Username)
			if err != nil {
				return "", false, err
			}
			if !solved {
				return postID, true, nil
			}
		}
		return "", false, nil
	}
}

func feedStrategy(st *store.ChallengeStore, feed platform.Feed, subreddit string) func(context.Context, Query) (string, bool, error) {
	return func(ctx context.Context, q Query) (string, bool, error) {
		posts, err := feed.RecentPosts(ctx, subreddit, feedLimit)
		if err != nil {
			return "", false, err
		}
		for _, p := range posts {
			if !strings.HasPrefix(p.Title, game.TitlePrefix) {
				continue
			}
			if p.ID == q.ExcludePostID || p.Author == q.Username {
				continue
			}
			// the post is submitted before its challenge is saved
			_, found, err := st.LoadChallenge(ctx, p.ID)
			if err != nil {
				return "", false, err
			}
			if !found {
				continue
			}
			solved, err := st.IsSolver(ctx, p.ID, q.Username)
			if err != nil {
				return "", false, err
			}
			if !solved {
				return p.ID, true, nil
			}
		}
		return "", false, nil
	}
}
