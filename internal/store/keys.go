package store

import "fmt"

const (
	leaderboardKey     = "anchor:leaderboard"
	challengeIndexKey  = "anchor:challenges"
	challengeMetaKey   = "anchor:challenges:meta"
	knownPostsKey      = "anchor:posts"
	challengeKeyPrefix = "anchor:challenge:"
)

func challengeKey(postID string) string { return challengeKeyPrefix + postID }

func challengeCountKey(subreddit string) string {
	return "anchor:challengeCount:" + subreddit
}

func attemptsKey(postID, username string) string {
	return fmt.Sprintf("anchor:user:attempts:%s:%s", postID, username)
}

func solvedKey(postID, username string) string {
	return fmt.Sprintf("anchor:user:solved:%s:%s", postID, username)
}

func awardKey(postID, username string) string {
	return fmt.Sprintf("anchor:user:award:%s:%s", postID, username)
}

func solversKey(postID string) string { return "anchor:solvers:" + postID }

func answersKey(postID string) string { return "anchor:answers:" + postID }

func totalAttemptsKey(postID string) string { return "anchor:attempts:" + postID }

func creatorChallengesKey(username string) string {
	return "anchor:user:challenges:" + username
}

func answerField(username string, attempt int) string {
	return fmt.Sprintf("%s:%d", username, attempt)
}
