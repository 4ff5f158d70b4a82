package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sujalbistaa/anchorword/internal/anchor"
	"github.com/sujalbistaa/anchorword/internal/config"
	"github.com/sujalbistaa/anchorword/internal/discovery"
	"github.com/sujalbistaa/anchorword/internal/game"
	"github.com/sujalbistaa/anchorword/internal/models"
	"github.com/sujalbistaa/anchorword/internal/platform"
	"github.com/sujalbistaa/anchorword/internal/ws"
)

const retryableMessage = "Something went wrong. Please try again."

// --- Request bodies ---

// CreateChallengeInput caps raw sizes only; word count rules belong to
// anchor.Validate, which runs after blank words are dropped.
type CreateChallengeInput struct {
	Anchor string   `json:"anchor" binding:"max=64"`
	Words  []string `json:"words" binding:"max=12,dive,max=64"`
}

type GuessInput struct {
	Guess string `json:"guess" binding:"max=64"`
}

// --- Handlers ---

// Env carries the handler dependencies. Config returns the live settings.
type Env struct {
	Game   *game.Service
	Finder *discovery.Finder
	Hub    *ws.Hub
	Users  platform.UserDirectory
	Config func() config.Config
	Log    *zap.Logger
}

// Health reports whether the store answers.
func (e *Env) Health(c *gin.Context) {
	if err := e.Game.Ping(c.Request.Context()); err != nil {
		e.Log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (e *Env) CreateChallenge(c *gin.Context) {
	var input CreateChallengeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortError(c, http.StatusBadRequest, "InvalidInput", "Invalid input: "+err.Error())
		return
	}
	created, err := e.Game.CreateChallenge(c.Request.Context(), currentUser(c), input.Anchor, input.Words)
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":     "success",
		"postId":     created.PostID,
		"title":      created.Title,
		"navigateTo": created.NavigateTo,
	})
}

func (e *Env) Init(c *gin.Context) {
	view, err := e.Game.Init(c.Request.Context(), c.Param("postId"), currentUser(c))
	if errors.Is(err, game.ErrNoChallenge) {
		// posts without a challenge render the create view
		c.JSON(http.StatusOK, gin.H{
			"hasChallenge": false,
			"postId":       c.Param("postId"),
			"clues":        []string{},
			"attempts":     0,
			"hasSolved":    false,
			"isCreator":    false,
		})
		return
	}
	if err != nil {
		e.respondError(c, err)
		return
	}

	body := gin.H{
		"hasChallenge": true,
		"postId":       view.PostID,
		"clues":        view.Clues,
		"isCreator":    view.IsCreator,
	}
	addStanding(body, view.Standing)
	c.JSON(http.StatusOK, body)
}

func (e *Env) Guess(c *gin.Context) {
	var input GuessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortError(c, http.StatusBadRequest, "InvalidInput", "Invalid input: "+err.Error())
		return
	}
	st, err := e.Game.SubmitGuess(c.Request.Context(), c.Param("postId"), currentUser(c), input.Guess)
	if err != nil {
		e.respondError(c, err)
		return
	}

	body := gin.H{}
	switch st.(type) {
	case game.Solved:
		body["result"] = "correct"
	default:
		body["result"] = "incorrect"
	}
	addStanding(body, st)
	c.JSON(http.StatusOK, body)
}

// addStanding writes attempts and, for solved players only, the reveal.
func addStanding(body gin.H, st game.Standing) {
	body["attempts"] = st.AttemptCount()
	solved, ok := st.(game.Solved)
	body["hasSolved"] = ok
	if !ok {
		return
	}
	body["score"] = solved.Award
	body["anchor"] = solved.Anchor
	body["words"] = solved.Words
}

func (e *Env) Results(c *gin.Context) {
	res, err := e.Game.Results(c.Request.Context(), c.Param("postId"), currentUser(c))
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (e *Env) Next(c *gin.Context) {
	postID, ok, err := e.Finder.FindNext(c.Request.Context(), currentUser(c), c.Param("postId"))
	if err != nil {
		e.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"postId": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"postId": postID})
}

func (e *Env) Another(c *gin.Context) {
	url, ok, err := e.Finder.FindAnother(c.Request.Context(), currentUser(c), c.Param("postId"))
	if err != nil {
		e.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"navigateTo": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"navigateTo": url})
}

func (e *Env) Leaderboard(c *gin.Context) {
	lb, err := e.Game.Leaderboard(c.Request.Context(), currentUser(c), e.Config().Leaderboard.Size)
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lb)
}

func (e *Env) MyChallenges(c *gin.Context) {
	entries, err := e.Game.MyChallenges(c.Request.Context(), currentUser(c))
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": nonNil(entries)})
}

func (e *Env) AdminChallenges(c *gin.Context) {
	entries, err := e.Game.Challenges(c.Request.Context())
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": nonNil(entries)})
}

func nonNil(entries []models.ChallengeIndexEntry) []models.ChallengeIndexEntry {
	if entries == nil {
		return []models.ChallengeIndexEntry{}
	}
	return entries
}

// abortError writes the error body shared by every failing endpoint.
func abortError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "kind": kind, "message": message})
}

// respondError maps game errors onto status codes. Anything unrecognised is
// treated as an upstream failure: logged, and reported as retryable.
func (e *Env) respondError(c *gin.Context, err error) {
	var ve *anchor.ValidationError
	switch {
	case errors.As(err, &ve):
		abortError(c, http.StatusBadRequest, string(ve.Kind), ve.Error())
	case errors.Is(err, game.ErrEmptyGuess):
		abortError(c, http.StatusBadRequest, "EmptyGuess", err.Error())
	case errors.Is(err, game.ErrNoChallenge):
		abortError(c, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, game.ErrCreatorCannotGuess):
		abortError(c, http.StatusForbidden, "CreatorCannotGuess", err.Error())
	case game.IsForbidden(err):
		abortError(c, http.StatusForbidden, "NotYetSolved", err.Error())
	default:
		e.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("postId", c.Param("postId")),
			zap.String("username", currentUser(c)),
			zap.Error(err))
		abortError(c, http.StatusServiceUnavailable, "UpstreamFailure", retryableMessage)
	}
}
