// Package store maps challenges, per-player progress, answer logs and the
// discovery indices onto the key-value store. It performs no rule checks.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sujalbistaa/anchorword/internal/kv"
	"github.com/sujalbistaa/anchorword/internal/models"
)

// ErrChallengeExists is returned when a post already carries a challenge.
var ErrChallengeExists = errors.New("challenge already exists for post")

// ChallengeStore is the typed view over kv.Store.
type ChallengeStore struct {
	kv kv.Store
}

func New(store kv.Store) *ChallengeStore {
	return &ChallengeStore{kv: store}
}

// Ping checks the underlying store answers.
func (s *ChallengeStore) Ping(ctx context.Context) error {
	return errors.Wrap(s.kv.Ping(ctx), "ping store")
}

// LoadChallenge returns the challenge for postID; ok is false when the post has none.
func (s *ChallengeStore) LoadChallenge(ctx context.Context, postID string) (models.Challenge, bool, error) {
	raw, found, err := s.kv.Get(ctx, challengeKey(postID))
	if err != nil {
		return models.Challenge{}, false, errors.Wrapf(err, "load challenge %s", postID)
	}
	if !found {
		return models.Challenge{}, false, nil
	}
	var c models.Challenge
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return models.Challenge{}, false, errors.Wrapf(err, "decode challenge %s", postID)
	}
	if c.PostID == "" {
		c.PostID = postID
	}
	return c, true, nil
}

// SaveChallenge writes the challenge once. A second call for the same post
// returns ErrChallengeExists and leaves the original untouched.
func (s *ChallengeStore) SaveChallenge(ctx context.Context, c models.Challenge) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode challenge")
	}
	written, err := s.kv.SetNX(ctx, challengeKey(c.PostID), string(raw))
	if err != nil {
		return errors.Wrapf(err, "save challenge %s", c.PostID)
	}
	if !written {
		return ErrChallengeExists
	}
	return nil
}

// NextChallengeNumber hands out the per-subreddit sequence used in post titles.
func (s *ChallengeStore) NextChallengeNumber(ctx context.Context, subreddit string) (int64, error) {
	n, err := s.kv.IncrBy(ctx, challengeCountKey(subreddit), 1)
	return n, errors.Wrapf(err, "next challenge number for %s", subreddit)
}

// LoadUserState defaults to zero attempts and unsolved when nothing is stored.
func (s *ChallengeStore) LoadUserState(ctx context.Context, postID, username string) (models.UserChallengeState, error) {
	var state models.UserChallengeState

	attempts, err := s.getInt(ctx, attemptsKey(postID, username))
	if err != nil {
		return state, errors.Wrapf(err, "load attempts %s/%s", postID, username)
	}
	solved, _, err := s.kv.Get(ctx, solvedKey(postID, username))
	if err != nil {
		return state, errors.Wrapf(err, "load solved flag %s/%s", postID, username)
	}
	award, err := s.getInt(ctx, awardKey(postID, username))
	if err != nil {
		return state, errors.Wrapf(err, "load award %s/%s", postID, username)
	}

	state.Attempts = int(attempts)
	state.Solved = solved == "1"
	state.LastAward = int(award)
	return state, nil
}

// IncrementAttempts atomically bumps the player's attempt counter.
func (s *ChallengeStore) IncrementAttempts(ctx context.Context, postID, username string) (int, error) {
	n, err := s.kv.IncrBy(ctx, attemptsKey(postID, username), 1)
	if err != nil {
		return 0, errors.Wrapf(err, "increment attempts %s/%s", postID, username)
	}
	return int(n), nil
}

// IncrementTotalAttempts bumps the challenge-wide guess counter. The returned
// value doubles as the answer log sequence number.
func (s *ChallengeStore) IncrementTotalAttempts(ctx context.Context, postID string) (int64, error) {
	n, err := s.kv.IncrBy(ctx, totalAttemptsKey(postID), 1)
	return n, errors.Wrapf(err, "increment total attempts %s", postID)
}

// MarkSolved records the award, flips the solved flag, joins the solver set
// and adds the award to the player's cumulative score.
func (s *ChallengeStore) MarkSolved(ctx context.Context, postID, username string, award int) error {
	if err := s.kv.Set(ctx, awardKey(postID, username), strconv.Itoa(award)); err != nil {
		return errors.Wrapf(err, "record award %s/%s", postID, username)
	}
	if err := s.kv.Set(ctx, solvedKey(postID, username), "1"); err != nil {
		return errors.Wrapf(err, "mark solved %s/%s", postID, username)
	}
	if err := s.kv.SAdd(ctx, solversKey(postID), username); err != nil {
		return errors.Wrapf(err, "add solver %s/%s", postID, username)
	}
	if _, err := s.kv.ZIncrBy(ctx, leaderboardKey, username, float64(award)); err != nil {
		return errors.Wrapf(err, "add score for %s", username)
	}
	return nil
}

// AppendAnswerLog stores one guess under (username, attempt). Rewriting the
// same key overwrites the entry instead of duplicating it.
func (s *ChallengeStore) AppendAnswerLog(ctx context.Context, postID string, entry models.AnswerLogEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encode answer")
	}
	err = s.kv.HSet(ctx, answersKey(postID), answerField(entry.Username, entry.Attempt), string(raw))
	return errors.Wrapf(err, "append answer %s/%s", postID, entry.Username)
}

// AnswerLog returns every guess for the post in submission order.
func (s *ChallengeStore) AnswerLog(ctx context.Context, postID string) ([]models.AnswerLogEntry, error) {
	raw, err := s.kv.HGetAll(ctx, answersKey(postID))
	if err != nil {
		return nil, errors.Wrapf(err, "load answers %s", postID)
	}
	entries := make([]models.AnswerLogEntry, 0, len(raw))
	for field, v := range raw {
		var e models.AnswerLogEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, errors.Wrapf(err, "decode answer %s/%s", postID, field)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Seq != entries[j].Seq {
			return entries[i].Seq < entries[j].Seq
		}
		if entries[i].Username != entries[j].Username {
			return entries[i].Username < entries[j].Username
		}
		return entries[i].Attempt < entries[j].Attempt
	})
	return entries, nil
}

func (s *ChallengeStore) TotalAttempts(ctx context.Context, postID string) (int64, error) {
	n, err := s.getInt(ctx, totalAttemptsKey(postID))
	return n, errors.Wrapf(err, "load total attempts %s", postID)
}

func (s *ChallengeStore) SolverCount(ctx context.Context, postID string) (int64, error) {
	n, err := s.kv.SCard(ctx, solversKey(postID))
	return n, errors.Wrapf(err, "count solvers %s", postID)
}

func (s *ChallengeStore) IsSolver(ctx context.Context, postID, username string) (bool, error) {
	ok, err := s.kv.SIsMember(ctx, solversKey(postID), username)
	return ok, errors.Wrapf(err, "check solver %s/%s", postID, username)
}

// Scores returns every leaderboard entry, highest first.
func (s *ChallengeStore) Scores(ctx context.Context) ([]kv.ScoredMember, error) {
	all, err := s.kv.ZRevRangeWithScores(ctx, leaderboardKey, 0, -1)
	return all, errors.Wrap(err, "load leaderboard")
}

// IndexChallenge records the listing snapshot in the global index, the
// creator's index and the flat set of known posts.
func (s *ChallengeStore) IndexChallenge(ctx context.Context, entry models.ChallengeIndexEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encode index entry")
	}
	if err := s.kv.HSet(ctx, challengeMetaKey, entry.PostID, string(raw)); err != nil {
		return errors.Wrapf(err, "index challenge %s", entry.PostID)
	}
	if err := s.kv.ZAdd(ctx, challengeIndexKey, entry.PostID, float64(entry.Created.UnixMilli())); err != nil {
		return errors.Wrapf(err, "index challenge %s", entry.PostID)
	}
	if err := s.kv.HSet(ctx, creatorChallengesKey(entry.Creator), entry.PostID, string(raw)); err != nil {
		return errors.Wrapf(err, "index challenge %s for %s", entry.PostID, entry.Creator)
	}
	if err := s.kv.SAdd(ctx, knownPostsKey, entry.PostID); err != nil {
		return errors.Wrapf(err, "record known post %s", entry.PostID)
	}
	return nil
}

// ChallengeIndex lists indexed challenges newest first. Posts in the order
// index without a stored snapshot are skipped.
func (s *ChallengeStore) ChallengeIndex(ctx context.Context) ([]models.ChallengeIndexEntry, error) {
	order, err := s.kv.ZRevRangeWithScores(ctx, challengeIndexKey, 0, -1)
	if err != nil {
		return nil, errors.Wrap(err, "load challenge index")
	}
	meta, err := s.kv.HGetAll(ctx, challengeMetaKey)
	if err != nil {
		return nil, errors.Wrap(err, "load challenge index metadata")
	}
	entries := make([]models.ChallengeIndexEntry, 0, len(order))
	for _, m := range order {
		raw, ok := meta[m.Member]
		if !ok {
			continue
		}
		var e models.ChallengeIndexEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, errors.Wrapf(err, "decode index entry %s", m.Member)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// CreatorChallenges lists the challenges username authored, newest first.
func (s *ChallengeStore) CreatorChallenges(ctx context.Context, username string) ([]models.ChallengeIndexEntry, error) {
	raw, err := s.kv.HGetAll(ctx, creatorChallengesKey(username))
	if err != nil {
		return nil, errors.Wrapf(err, "load challenges of %s", username)
	}
	entries := make([]models.ChallengeIndexEntry, 0, len(raw))
	for postID, v := range raw {
		var e models.ChallengeIndexEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, errors.Wrapf(err, "decode index entry %s", postID)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Created.Equal(entries[j].Created) {
			return entries[i].Created.After(entries[j].Created)
		}
		return entries[i].PostID > entries[j].PostID
	})
	return entries, nil
}

// KnownPosts returns the flat set of challenge post ids, sorted for
// deterministic scans.
func (s *ChallengeStore) KnownPosts(ctx context.Context) ([]string, error) {
	posts, err := s.kv.SMembers(ctx, knownPostsKey)
	if err != nil {
		return nil, errors.Wrap(err, "load known posts")
	}
	sort.Sort(sort.Reverse(sort.StringSlice(posts)))
	return posts, nil
}

// AddKnownPost records a challenge post id without indexing metadata.
func (s *ChallengeStore) AddKnownPost(ctx context.Context, postID string) error {
	return errors.Wrapf(s.kv.SAdd(ctx, knownPostsKey, postID), "record known post %s", postID)
}

func (s *ChallengeStore) getInt(ctx context.Context, key string) (int64, error) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil || !found {
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, kv.ErrNotInteger
	}
	return n, nil
}
