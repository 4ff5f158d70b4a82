package platform

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sujalbistaa/anchorword/internal/kv"
)

// Local is a self-hosted platform that keeps posts in the key-value store.
type Local struct {
	kv  kv.Store
	now func() time.Time
}

func NewLocal(store kv.Store) *Local {
	return &Local{kv: store, now: time.Now}
}

func feedKey(subreddit string) string { return "platform:posts:" + subreddit }

func postKey(postID string) string { return "platform:post:" + postID }

// SubmitPost stores the post and adds it to the subreddit feed.
func (l *Local) SubmitPost(ctx context.Context, subreddit, author, title string) (Post, error) {
	p := Post{
		ID:        "t3_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Title:     title,
		Author:    author,
		Subreddit: subreddit,
		CreatedAt: l.now().UTC(),
	}
	fields := map[string]string{
		"title":     p.Title,
		"author":    p.Author,
		"subreddit": p.Subreddit,
		"created":   strconv.FormatInt(p.CreatedAt.UnixMilli(), 10),
	}
	for f, v := range fields {
		if err := l.kv.HSet(ctx, postKey(p.ID), f, v); err != nil {
			return Post{}, fmt.Errorf("store post %s: %w", p.ID, err)
		}
	}
	if err := l.kv.ZAdd(ctx, feedKey(subreddit), p.ID, float64(p.CreatedAt.UnixMilli())); err != nil {
		return Post{}, fmt.Errorf("publish post %s: %w", p.ID, err)
	}
	return p, nil
}

// RecentPosts returns up to limit posts, newest first.
func (l *Local) RecentPosts(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	if limit <= 0 {
		return []Post{}, nil
	}
	ids, err := l.kv.ZRevRangeWithScores(ctx, feedKey(subreddit), 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("load feed %s: %w", subreddit, err)
	}
	posts := make([]Post, 0, len(ids))
	for _, id := range ids {
		fields, err := l.kv.HGetAll(ctx, postKey(id.Member))
		if err != nil {
			return nil, fmt.Errorf("load post %s: %w", id.Member, err)
		}
		posts = append(posts, Post{
			ID:        id.Member,
			Title:     fields["title"],
			Author:    fields["author"],
			Subreddit: subreddit,
			CreatedAt: time.UnixMilli(int64(id.Score)).UTC(),
		})
	}
	return posts, nil
}
