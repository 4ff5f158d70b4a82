package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sujalbistaa/anchorword/internal/config"
	"github.com/sujalbistaa/anchorword/internal/dictionary"
	"github.com/sujalbistaa/anchorword/internal/discovery"
	"github.com/sujalbistaa/anchorword/internal/game"
	"github.com/sujalbistaa/anchorword/internal/kv"
	"github.com/sujalbistaa/anchorword/internal/metrics"
	"github.com/sujalbistaa/anchorword/internal/platform"
	"github.com/sujalbistaa/anchorword/internal/store"
	"github.com/sujalbistaa/anchorword/internal/ws"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Server.CORSOrigin = "*"
	cfg.Server.AdminToken = "s3cret"
	cfg.Platform.Subreddit = "anchorword"
	cfg.Platform.BaseURL = "https://reddit.com"
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000
	cfg.Leaderboard.Size = 10
	return cfg
}

func newRouter(t *testing.T, kvStore kv.Store, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	st := store.New(kvStore)
	local := platform.NewLocal(kvStore)
	hub := ws.NewHub(log)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	env := &Env{
		Game: game.New(game.Deps{
			Store:     st,
			Oracle:    dictionary.Default(),
			Poster:    local,
			Notifier:  hub,
			Metrics:   m,
			Log:       log,
			Subreddit: cfg.Platform.Subreddit,
			BaseURL:   cfg.Platform.BaseURL,
		}),
		Finder: discovery.New(st, local, cfg.Platform.Subreddit, cfg.Platform.BaseURL, log),
		Hub:    hub,
		Users:  platform.SessionDirectory{},
		Config: func() config.Config { return cfg },
		Log:    log,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router := gin.New()
	SetupRoutes(ctx, router, env, m, reg)
	return router
}

func setupRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return newRouter(t, kv.NewRedisStore(client), cfg)
}

func do(t *testing.T, router *gin.Engine, method, path, user string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func createBed(t *testing.T, router *gin.Engine) string {
	t.Helper()
	code, body := do(t, router, http.MethodPost, "/api/challenges", "alice", gin.H{
		"anchor": "bed",
		"words":  []string{"bedroom", "seabed", "bedrock", "bedsheet"},
	})
	require.Equal(t, http.StatusCreated, code, body)
	return body["postId"].(string)
}

func unreachableStore(t *testing.T) kv.Store {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return kv.NewRedisStore(client)
}

func TestHealth(t *testing.T) {
	router := setupRouter(t, testConfig())
	code, body := do(t, router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealth_StoreDown(t *testing.T) {
	router := newRouter(t, unreachableStore(t), testConfig())
	code, body := do(t, router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestGuessFlow(t *testing.T) {
	router := setupRouter(t, testConfig())
	postID := createBed(t, router)
	base := "/api/challenges/" + postID

	code, body := do(t, router, http.MethodGet, base+"/init", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["hasChallenge"])
	assert.Equal(t, []interface{}{"room", "sea", "rock", "sheet"}, body["clues"])
	assert.Equal(t, false, body["hasSolved"])
	assert.NotContains(t, body, "anchor")
	assert.NotContains(t, body, "words")

	code, body = do(t, router, http.MethodPost, base+"/guess", "bob", gin.H{"guess": "xyz"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "incorrect", body["result"])
	assert.Equal(t, 1.0, body["attempts"])
	assert.NotContains(t, body, "score")

	code, body = do(t, router, http.MethodPost, base+"/guess", "bob", gin.H{"guess": "Bed"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "correct", body["result"])
	assert.Equal(t, 2.0, body["attempts"])
	assert.Equal(t, 15.0, body["score"])
	assert.Equal(t, true, body["hasSolved"])
	assert.Equal(t, "bed", body["anchor"])

	code, body = do(t, router, http.MethodGet, base+"/init", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["hasSolved"])
	assert.Equal(t, 15.0, body["score"])

	code, body = do(t, router, http.MethodGet, base+"/results", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2.0, body["totalAttempts"])
	assert.Equal(t, 1.0, body["totalSolvers"])
	assert.Len(t, body["answers"], 2)

	code, body = do(t, router, http.MethodGet, "/api/leaderboard", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	me := body["me"].(map[string]interface{})
	assert.Equal(t, 1.0, me["rank"])
	assert.Equal(t, 15.0, me["score"])
}

func TestErrorMapping(t *testing.T) {
	router := setupRouter(t, testConfig())
	postID := createBed(t, router)
	base := "/api/challenges/" + postID

	code, body := do(t, router, http.MethodPost, base+"/guess", "alice", gin.H{"guess": "bed"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "CreatorCannotGuess", body["kind"])

	code, body = do(t, router, http.MethodGet, base+"/results", "bob", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NotYetSolved", body["kind"])

	code, body = do(t, router, http.MethodPost, base+"/guess", "bob", gin.H{"guess": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "EmptyGuess", body["kind"])

	code, body = do(t, router, http.MethodPost, "/api/challenges/t3_missing/guess", "bob", gin.H{"guess": "bed"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NotFound", body["kind"])

	code, body = do(t, router, http.MethodPost, "/api/challenges", "alice", gin.H{
		"anchor": "bed",
		"words":  []string{"bedroom", "seabed", "bedrock", "bedroom"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "DuplicateWord", body["kind"])
	assert.Contains(t, body["message"], "bedroom")

	code, body = do(t, router, http.MethodGet, "/api/leaderboard", "bad:user", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidUser", body["kind"])
}

func TestUpstreamFailure(t *testing.T) {
	router := newRouter(t, unreachableStore(t), testConfig())

	code, body := do(t, router, http.MethodPost, "/api/challenges/t3_abc/guess", "bob", gin.H{"guess": "bed"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "UpstreamFailure", body["kind"])
	assert.Equal(t, retryableMessage, body["message"])
}

func TestInitWithoutChallenge(t *testing.T) {
	router := setupRouter(t, testConfig())

	code, body := do(t, router, http.MethodGet, "/api/challenges/t3_missing/init", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["hasChallenge"])
	assert.Equal(t, []interface{}{}, body["clues"])
	assert.Equal(t, 0.0, body["attempts"])
	assert.Equal(t, false, body["hasSolved"])
	assert.Equal(t, false, body["isCreator"])
	assert.NotContains(t, body, "kind")
}

func TestInputLimits(t *testing.T) {
	router := setupRouter(t, testConfig())
	postID := createBed(t, router)
	long := strings.Repeat("a", 65)

	code, body := do(t, router, http.MethodPost, "/api/challenges/"+postID+"/guess", "bob", gin.H{"guess": long})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidInput", body["kind"])

	code, body = do(t, router, http.MethodPost, "/api/challenges", "alice", gin.H{
		"anchor": long,
		"words":  []string{"bedroom", "seabed", "bedrock", "bedsheet"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidInput", body["kind"])

	code, body = do(t, router, http.MethodPost, "/api/challenges", "alice", gin.H{
		"anchor": "bed",
		"words":  []string{"bedroom", "seabed", "bedrock", "bed" + long},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidInput", body["kind"])

	code, body = do(t, router, http.MethodPost, "/api/challenges", "alice", gin.H{
		"anchor": "bed",
		"words":  strings.Split(strings.Repeat("bedroom,", 13), ",")[:13],
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidInput", body["kind"])

	// within the raw cap the game rules still decide
	code, body = do(t, router, http.MethodPost, "/api/challenges", "alice", gin.H{
		"anchor": "bed",
		"words":  []string{"bedroom", "seabed", "bedrock", "bedsheet", "bedroom", "seabed", "bedrock"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "WordCountOutOfRange", body["kind"])

	// the guess counter is untouched by rejected input
	code, body = do(t, router, http.MethodGet, "/api/challenges/"+postID+"/init", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, body["attempts"])
}

func TestDiscoveryRoutes(t *testing.T) {
	router := setupRouter(t, testConfig())
	postID := createBed(t, router)

	code, body := do(t, router, http.MethodGet, "/api/challenges/t3_other/next", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, postID, body["postId"])

	code, body = do(t, router, http.MethodGet, "/api/challenges/t3_other/another", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "https://reddit.com/r/anchorword/comments/"+postID, body["navigateTo"])

	code, body = do(t, router, http.MethodGet, "/api/challenges/"+postID+"/another", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["navigateTo"])

	code, body = do(t, router, http.MethodGet, "/api/me/challenges", "alice", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["challenges"], 1)

	code, body = do(t, router, http.MethodGet, "/api/me/challenges", "bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{}, body["challenges"])
}

func TestAdminRoutes(t *testing.T) {
	router := setupRouter(t, testConfig())
	createBed(t, router)

	code, _ := do(t, router, http.MethodGet, "/api/admin/challenges", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	req, _ := http.NewRequest(http.MethodGet, "/api/admin/challenges", nil)
	req.Header.Set(AdminHeader, "wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/api/admin/challenges", nil)
	req.Header.Set(AdminHeader, "s3cret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"anchor":"bed"`)
}

func TestAdminRoutesDisabledWithoutToken(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AdminToken = ""
	router := setupRouter(t, cfg)

	req, _ := http.NewRequest(http.MethodGet, "/api/admin/challenges", nil)
	req.Header.Set(AdminHeader, "anything")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RPS = 0.001
	cfg.RateLimit.Burst = 1
	router := setupRouter(t, cfg)

	code, _ := do(t, router, http.MethodPost, "/api/challenges/t3_x/guess", "bob", gin.H{"guess": "a"})
	assert.Equal(t, http.StatusNotFound, code)
	code, body := do(t, router, http.MethodPost, "/api/challenges/t3_x/guess", "bob", gin.H{"guess": "a"})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RateLimited", body["kind"])

	// another player has their own bucket
	code, _ = do(t, router, http.MethodPost, "/api/challenges/t3_x/guess", "carol", gin.H{"guess": "a"})
	assert.Equal(t, http.StatusNotFound, code)

	// reads are not limited
	code, _ = do(t, router, http.MethodGet, "/api/leaderboard", "bob", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t, testConfig())
	createBed(t, router)

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anchorword_challenges_created_total 1")
}

func TestSecurityHeaders(t *testing.T) {
	router := setupRouter(t, testConfig())
	req, _ := http.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
