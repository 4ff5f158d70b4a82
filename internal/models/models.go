package models

import (
	"time"
)

// Challenge is an Anchor Word challenge attached to a post.
// It is written once at creation time and never changes afterwards.
type Challenge struct {
	PostID    string    `json:"postId"`
	Anchor    string    `json:"anchor"`
	Words     []string  `json:"words"`
	Creator   string    `json:"creator"`
	Subreddit string    `json:"subreddit,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserChallengeState is one player's progress on one challenge.
type UserChallengeState struct {
	Attempts  int  `json:"attempts"`
	Solved    bool `json:"solved"`
	LastAward int  `json:"lastAward,omitempty"`
}

// AnswerLogEntry is a single recorded guess. Seq orders entries across
// users in submission order.
type AnswerLogEntry struct {
	Username  string    `json:"username"`
	Attempt   int       `json:"attempt"`
	Text      string    `json:"text"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"at"`
}

// ChallengeIndexEntry is the listing snapshot stored when a challenge is created.
type ChallengeIndexEntry struct {
	PostID  string    `json:"postId"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
	Anchor  string    `json:"anchor"`
	Words   []string  `json:"words"`
	Creator string    `json:"creator"`
}

// LeaderboardEntry is a ranked cumulative score.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int64  `json:"score"`
	Rank     int    `json:"rank"` // 1-based, -1 when the user has no score
}
