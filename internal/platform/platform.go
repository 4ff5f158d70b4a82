// Package platform is the game's view of the hosting platform: who is
// playing, how challenge posts are created and which posts are recent.
package platform

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Anonymous is used when a request carries no identity.
const Anonymous = "anonymous"

// ErrInvalidUsername is returned for identities that cannot be used as keys.
var ErrInvalidUsername = errors.New("invalid username")

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// UserDirectory maps a session to a username.
type UserDirectory interface {
	Username(ctx context.Context, session string) (string, error)
}

// Post is a post on the hosting platform.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Subreddit string    `json:"subreddit"`
	CreatedAt time.Time `json:"createdAt"`
}

// Poster submits a post on behalf of a user.
type Poster interface {
	SubmitPost(ctx context.Context, subreddit, author, title string) (Post, error)
}

// Feed lists the newest posts of a subreddit.
type Feed interface {
	RecentPosts(ctx context.Context, subreddit string, limit int) ([]Post, error)
}

// SessionDirectory trusts the session value as the username, as set by a
// fronting proxy. An empty session is the anonymous player.
type SessionDirectory struct{}

func (SessionDirectory) Username(_ context.Context, session string) (string, error) {
	session = strings.TrimSpace(session)
	if session == "" {
		return Anonymous, nil
	}
	if !usernamePattern.MatchString(session) {
		return "", ErrInvalidUsername
	}
	return session, nil
}

// PostURL is the public link to a post.
func PostURL(baseURL, subreddit, postID string) string {
	return fmt.Sprintf("%s/r/%s/comments/%s", strings.TrimRight(baseURL, "/"), subreddit, postID)
}
