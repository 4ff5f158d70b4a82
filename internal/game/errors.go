package game

import "errors"

var (
	// ErrNoChallenge means the post carries no challenge.
	ErrNoChallenge        = errors.New("no challenge found for this post")
	ErrCreatorCannotGuess = errors.New("creators cannot guess their own challenge")
	ErrNotYetSolved       = errors.New("solve the challenge to see the results")
	ErrEmptyGuess         = errors.New("enter a guess")
)

// UpstreamError wraps a failure of the store or the platform. Callers should
// show a generic retryable message and log Err.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}

// IsForbidden reports whether err is one of the permission denials.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrCreatorCannotGuess) || errors.Is(err, ErrNotYetSolved)
}
