// Package client talks to the Anchor Word HTTP API. Transient failures
// (network errors, 5xx, 429) are retried with exponential backoff; 4xx
// responses are returned at once as *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultAttempts    = 3
	DefaultBaseBackoff = 500 * time.Millisecond
)

// APIError is a non-retryable rejection from the server.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// transientError marks a failure worth retrying.
type transientError struct {
	status int
	err    error
}

func (e *transientError) Error() string {
	if e.status != 0 {
		return fmt.Sprintf("status %d: %v", e.status, e.err)
	}
	return e.err.Error()
}

func (e *transientError) Unwrap() error { return e.err }

type Client struct {
	baseURL     string
	user        string
	http        *http.Client
	attempts    int
	baseBackoff time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

func WithAttempts(n int) Option { return func(c *Client) { c.attempts = n } }

// New returns a client acting as user. An empty user plays anonymously.
func New(baseURL, user string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		user:        user,
		http:        &http.Client{Timeout: 10 * time.Second},
		attempts:    DefaultAttempts,
		baseBackoff: DefaultBaseBackoff,
		sleep:       sleepContext,
	}
	for _, o := range opts {
		o(c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// do sends the request, retrying transient failures, and decodes a 2xx body
// into out.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return errors.Wrap(err, "encode request")
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			if err := c.sleep(ctx, backoff); err != nil {
				return err
			}
		}

		lastErr = c.once(ctx, method, path, payload, out)
		if lastErr == nil {
			return nil
		}
		var te *transientError
		if !errors.As(lastErr, &te) {
			return lastErr
		}
	}
	return errors.Wrapf(lastErr, "%s %s failed after %d attempts", method, path, c.attempts)
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.Header.Set("X-Anchor-User", c.user)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &transientError{err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transientError{err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		return errors.Wrap(json.Unmarshal(raw, out), "decode response")
	}

	var e struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &e)
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	apiErr := &APIError{Status: resp.StatusCode, Kind: e.Kind, Message: e.Message}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return &transientError{status: resp.StatusCode, err: apiErr}
	}
	return apiErr
}

// --- API ---

type Created struct {
	PostID     string `json:"postId"`
	Title      string `json:"title"`
	NavigateTo string `json:"navigateTo"`
}

// GuessResult mirrors both guess and init responses. Anchor, Words and Score
// are only set once the player has solved the challenge.
type GuessResult struct {
	Result    string   `json:"result,omitempty"`
	Attempts  int      `json:"attempts"`
	HasSolved bool     `json:"hasSolved"`
	Score     int      `json:"score,omitempty"`
	Anchor    string   `json:"anchor,omitempty"`
	Words     []string `json:"words,omitempty"`
}

type InitView struct {
	GuessResult
	HasChallenge bool     `json:"hasChallenge"`
	Clues        []string `json:"clues"`
	IsCreator    bool     `json:"isCreator"`
}

type AnswerStat struct {
	Text       string `json:"text"`
	Count      int    `json:"count"`
	IsCorrect  bool   `json:"isCorrect"`
	Percentage int    `json:"percentageOfTotal"`
}

type Results struct {
	TotalAttempts int64        `json:"totalAttempts"`
	TotalSolvers  int64        `json:"totalSolvers"`
	Answers       []AnswerStat `json:"answers"`
	Anchor        string       `json:"anchor"`
}

type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int64  `json:"score"`
	Rank     int    `json:"rank"`
}

type Leaderboard struct {
	Top []LeaderboardEntry `json:"top"`
	Me  LeaderboardEntry   `json:"me"`
}

func challengePath(postID, action string) string {
	return "/api/challenges/" + url.PathEscape(postID) + "/" + action
}

func (c *Client) CreateChallenge(ctx context.Context, anchor string, words []string) (Created, error) {
	var out Created
	err := c.do(ctx, http.MethodPost, "/api/challenges", map[string]interface{}{"anchor": anchor, "words": words}, &out)
	return out, err
}

func (c *Client) Guess(ctx context.Context, postID, guess string) (GuessResult, error) {
	var out GuessResult
	err := c.do(ctx, http.MethodPost, challengePath(postID, "guess"), map[string]string{"guess": guess}, &out)
	return out, err
}

func (c *Client) Init(ctx context.Context, postID string) (InitView, error) {
	var out InitView
	err := c.do(ctx, http.MethodGet, challengePath(postID, "init"), nil, &out)
	return out, err
}

func (c *Client) Results(ctx context.Context, postID string) (Results, error) {
	var out Results
	err := c.do(ctx, http.MethodGet, challengePath(postID, "results"), nil, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context) (Leaderboard, error) {
	var out Leaderboard
	err := c.do(ctx, http.MethodGet, "/api/leaderboard", nil, &out)
	return out, err
}

// Next returns the next playable post id; ok is false when there is none.
func (c *Client) Next(ctx context.Context, postID string) (string, bool, error) {
	var out struct {
		PostID *string `json:"postId"`
	}
	if err := c.do(ctx, http.MethodGet, challengePath(postID, "next"), nil, &out); err != nil {
		return "", false, err
	}
	if out.PostID == nil {
		return "", false, nil
	}
	return *out.PostID, true, nil
}

// Another is Next as a link to the post.
func (c *Client) Another(ctx context.Context, postID string) (string, bool, error) {
	var out struct {
		NavigateTo *string `json:"navigateTo"`
	}
	if err := c.do(ctx, http.MethodGet, challengePath(postID, "another"), nil, &out); err != nil {
		return "", false, err
	}
	if out.NavigateTo == nil {
		return "", false, nil
	}
	return *out.NavigateTo, true, nil
}
