package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/anchorword/internal/anchor"
	"github.com/sujalbistaa/anchorword/internal/dictionary"
	"github.com/sujalbistaa/anchorword/internal/kv"
	"github.com/sujalbistaa/anchorword/internal/metrics"
	"github.com/sujalbistaa/anchorword/internal/models"
	"github.com/sujalbistaa/anchorword/internal/platform"
	"github.com/sujalbistaa/anchorword/internal/store"
)

var bedWords = []string{"bedroom", "seabed", "bedrock", "bedsheet"}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(eventType string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}

type fixture struct {
	svc      *Service
	store    *store.ChallengeStore
	notifier *recordingNotifier
	metrics  *metrics.Metrics
}

func setup(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	kvStore := kv.NewRedisStore(client)
	st := store.New(kvStore)
	n := &recordingNotifier{}
	m := metrics.New(prometheus.NewRegistry())
	svc := New(Deps{
		Store:     st,
		Oracle:    dictionary.Default(),
		Poster:    platform.NewLocal(kvStore),
		Notifier:  n,
		Metrics:   m,
		Subreddit: "anchorword",
		BaseURL:   "https://reddit.com",
	})
	return fixture{svc: svc, store: st, notifier: n, metrics: m}
}

func (f fixture) createBed(t *testing.T) string {
	t.Helper()
	created, err := f.svc.CreateChallenge(context.Background(), "alice", " BED ", bedWords)
	require.NoError(t, err)
	return created.PostID
}

func TestAward(t *testing.T) {
	cases := map[int]int{1: 20, 2: 15, 3: 10, 4: 5, 5: 5, 12: 5, 1000: 5}
	for attempt, want := range cases {
		assert.Equal(t, want, Award(attempt), "attempt %d", attempt)
	}
}

func TestCreateChallenge(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateChallenge(ctx, "alice", "Bed", []string{"Bedroom ", "seabed", "", "bedrock", "BEDSHEET"})
	require.NoError(t, err)
	assert.Equal(t, "Anchor Word Challenge #1", created.Title)
	assert.Equal(t, "https://reddit.com/r/anchorword/comments/"+created.PostID, created.NavigateTo)

	c, found, err := f.store.LoadChallenge(ctx, created.PostID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "bed", c.Anchor)
	assert.Equal(t, bedWords, c.Words)
	assert.Equal(t, "alice", c.Creator)

	mine, err := f.svc.MyChallenges(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, created.PostID, mine[0].PostID)

	all, err := f.svc.Challenges(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	second, err := f.svc.CreateChallenge(ctx, "bob", "sun", []string{"sunset", "sunlight", "sunflower", "sunrise"})
	require.NoError(t, err)
	assert.Equal(t, "Anchor Word Challenge #2", second.Title)

	assert.Equal(t, []string{EventChallengeCreated, EventChallengeCreated}, f.notifier.events)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ChallengesCreated))
}

func TestCreateChallenge_RejectsInvalid(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateChallenge(context.Background(), "alice", "bed", []string{"bedroom", "seabed", "bedrock"})
	var ve *anchor.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, anchor.WordCountOutOfRange, ve.Kind)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValidationFailures.WithLabelValues("WordCountOutOfRange")))

	all, err := f.svc.Challenges(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.notifier.events)
}

func TestSubmitGuess_WrongThenRight(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	postID := f.createBed(t)

	first, err := f.svc.SubmitGuess(ctx, postID, "bob", "xyz")
	require.NoError(t, err)
	assert.Equal(t, Unsolved{Attempts: 1}, first)

	second, err := f.svc.SubmitGuess(ctx, postID, "bob", "  BED ")
	require.NoError(t, err)
	assert.Equal(t, Solved{Attempts: 2, Award: 15, Anchor: "bed", Words: bedWords}, second)

	lb, err := f.svc.Leaderboard(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(15), lb.Me.Score)
	assert.Equal(t, 1, lb.Me.Rank)
	assert.Contains(t, f.notifier.events, EventChallengeSolved)
}

func TestSubmitGuess_SolvedIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	postID := f.createBed(t)

	first, err := f.svc.SubmitGuess(ctx, postID, "bob", "bed")
	require.NoError(t, err)
	again, err := f.svc.SubmitGuess(ctx, postID, "bob", "bed")
	require.NoError(t, err)
	wrongAfter, err := f.svc.SubmitGuess(ctx, postID, "bob", "nope")
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, first, wrongAfter)
	assert.Equal(t, 20, first.(Solved).Award)

	total, err := f.store.TotalAttempts(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	entries, err := f.store.AnswerLog(ctx, postID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	lb, err := f.svc.Leaderboard(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(20), lb.Me.Score)
}

func TestSubmitGuess_AttemptsNeverDecrease(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	postID := f.createBed(t)

	prev := 0
	for _, g := range []string{"room", "sea", "room", "rock", "bed"} {
		st, err := f.svc.SubmitGuess(ctx, postID, "carol", g)
		require.NoError(t, err)
		assert.Greater(t, st.AttemptCount(), prev)
		prev = st.AttemptCount()
	}
	solved, ok := mustStanding(t, f, postID, "carol").(Solved)
	require.True(t, ok)
	assert.Equal(t, 5, solved.Attempts)
	assert.Equal(t, 5, solved.Award)
}

func mustStanding(t *testing.T, f fixture, postID, username string) Standing {
	t.Helper()
	view, err := f.svc.Init(context.Background(), postID, username)
	require.NoError(t, err)
	return view.Standing
}

func TestSubmitGuess_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	postID := f.createBed(t)

	_, err := f.svc.SubmitGuess(ctx, postID, "alice", "bed")
	assert.ErrorIs(t, err, ErrCreatorCannotGuess)
	assert.True(t, IsForbidden(err))

	_, err = f.svc.SubmitGuess(ctx, postID, "bob", "   ")
	assert.ErrorIs(t, err, ErrEmptyGuess)

	_, err = f.svc.SubmitGuess(ctx, "t3_missing", "bob", "bed")
	assert.ErrorIs(t, err, ErrNoChallenge)

	state, err := f.store.LoadUserState(ctx, postID, "bob")
	require.NoError(t, err)
	assert.Zero(t, state.Attempts)
	total, err := f.store.TotalAttempts(ctx, postID)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestInit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	postID := f.createBed(t)

	view, err := f.svc.Init(ctx, postID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"room", "sea", "rock", "sheet"}, view.Clues)
	assert.False(t, view.IsCreator)
	assert.Equal(t, Unsolved{Attempts: 0}, view.Standing)

	_, err = f.svc.SubmitGuess(ctx, postID, "bob", "sea")
	require.NoError(t, err)
	_, err = f.svc.SubmitGuess(ctx, postID, "bob", "bed")
	require.NoError(t, err)

	view, err = f.svc.Init(ctx, postID, "bob")
	require.NoError(t, err)
	assert.Equal(t, Solved{Attempts: 2, Award: 15, Anchor: "bed", Words: bedWords}, view.Standing)

	view, err = f.svc.Init(ctx, postID, "alice")
	require.NoError(t, err)
	assert.True(t, view.IsCreator)

	_, err = f.svc.Init(ctx, "t3_missing", "bob")
	assert.ErrorIs(t, err, ErrNoChallenge)
}

func TestResults(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	postID := f.createBed(t)

	_, err := f.svc.SubmitGuess(ctx, postID, "bob", "sea")
	require.NoError(t, err)

	_, err = f.svc.Results(ctx, postID, "bob")
	assert.ErrorIs(t, err, ErrNotYetSolved)
	assert.True(t, IsForbidden(err))

	for _, g := range []struct{ user, text string }{
		{"carol", "bed"},
		{"bob", "rock"},
		{"dave", "sea"},
		{"bob", "bed"},
	} {
		_, err := f.svc.SubmitGuess(ctx, postID, g.user, g.text)
		require.NoError(t, err)
	}

	res, err := f.svc.Results(ctx, postID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.TotalAttempts)
	assert.Equal(t, int64(2), res.TotalSolvers)
	assert.Equal(t, "bed", res.Anchor)
	assert.Equal(t, []AnswerStat{
		{Text: "sea", Count: 2, Percentage: 40},
		{Text: "bed", Count: 2, IsCorrect: true, Percentage: 40},
		{Text: "rock", Count: 1, Percentage: 20},
	}, res.Answers)

	// the creator never guesses but may still look
	_, err = f.svc.Results(ctx, postID, "alice")
	assert.NoError(t, err)
}

func TestAggregate(t *testing.T) {
	var log []models.AnswerLogEntry
	for i, text := range []string{"xyz", "bed", "abc", "bed", "xyz", "qq"} {
		log = append(log, models.AnswerLogEntry{Text: text, Seq: int64(i + 1)})
	}
	stats := Aggregate("bed", log)
	require.Len(t, stats, 4)
	assert.Equal(t, []string{"xyz", "bed", "abc", "qq"}, []string{stats[0].Text, stats[1].Text, stats[2].Text, stats[3].Text})
	assert.Equal(t, 33, stats[0].Percentage)
	assert.Equal(t, 17, stats[3].Percentage)
	assert.True(t, stats[1].IsCorrect)

	assert.Empty(t, Aggregate("bed", nil))
}

func TestLeaderboard(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.store.MarkSolved(ctx, "t3_a", "bob", 20))
	require.NoError(t, f.store.MarkSolved(ctx, "t3_b", "bob", 10))
	require.NoError(t, f.store.MarkSolved(ctx, "t3_a", "alice", 30))
	require.NoError(t, f.store.MarkSolved(ctx, "t3_a", "carol", 10))

	lb, err := f.svc.Leaderboard(ctx, "dave", 0)
	require.NoError(t, err)
	assert.Equal(t, []models.LeaderboardEntry{
		{Username: "alice", Score: 30, Rank: 1},
		{Username: "bob", Score: 30, Rank: 2},
		{Username: "carol", Score: 10, Rank: 3},
	}, lb.Top)
	assert.Equal(t, models.LeaderboardEntry{Username: "dave", Rank: -1}, lb.Me)

	lb, err = f.svc.Leaderboard(ctx, "carol", 2)
	require.NoError(t, err)
	assert.Len(t, lb.Top, 2)
	assert.Equal(t, models.LeaderboardEntry{Username: "carol", Score: 10, Rank: 3}, lb.Me)
}

func TestUpstreamFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	svc := New(Deps{Store: store.New(kv.NewRedisStore(client)), Oracle: dictionary.Default()})

	_, err := svc.SubmitGuess(context.Background(), "t3_abc", "bob", "bed")
	var up *UpstreamError
	require.True(t, errors.As(err, &up))
	assert.Equal(t, "load challenge", up.Op)

	err = svc.Ping(context.Background())
	require.True(t, errors.As(err, &up))
	assert.Equal(t, "ping", up.Op)
}
