package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sujalbistaa/anchorword/internal/anchor"
	"github.com/sujalbistaa/anchorword/internal/client"
	"github.com/sujalbistaa/anchorword/internal/dictionary"
)

func newClient() *client.Client {
	return client.New(strings.TrimRight(serverURL, "/"), username)
}

func runValidate(cmd *cobra.Command, args []string) error {
	dict, err := dictionary.Open(dictionaryPath)
	if err != nil {
		return err
	}
	a, words := anchor.Normalize(args[0], args[1:])
	if err := anchor.Validate(dict, a, words); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Valid challenge for anchor %q\n", a)
	for _, w := range words {
		d, _ := anchor.Classify(a, w)
		fmt.Fprintf(out, "  %-12s %-6s %s\n", w, d.Position, d.Remainder)
	}
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	created, err := newClient().CreateChallenge(cmd.Context(), args[0], args[1:])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\npost: %s\n%s\n", created.Title, created.PostID, created.NavigateTo)
	return nil
}

func runGuess(cmd *cobra.Command, args []string) error {
	res, err := newClient().Guess(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !res.HasSolved {
		fmt.Fprintf(out, "Not quite. Attempts: %d\n", res.Attempts)
		return nil
	}
	fmt.Fprintf(out, "Solved in %d attempt(s) for %d points!\n", res.Attempts, res.Score)
	fmt.Fprintf(out, "Anchor: %s\nWords: %s\n", res.Anchor, strings.Join(res.Words, ", "))
	return nil
}

func runResults(cmd *cobra.Command, args []string) error {
	res, err := newClient().Results(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Anchor: %s  attempts: %d  solvers: %d\n", res.Anchor, res.TotalAttempts, res.TotalSolvers)
	for _, a := range res.Answers {
		mark := " "
		if a.IsCorrect {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-16s %4d %3d%%\n", mark, a.Text, a.Count, a.Percentage)
	}
	return nil
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	lb, err := newClient().Leaderboard(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, e := range lb.Top {
		fmt.Fprintf(out, "%3d. %-20s %d\n", e.Rank, e.Username, e.Score)
	}
	if lb.Me.Rank < 0 {
		fmt.Fprintf(out, "You (%s) are not ranked yet\n", lb.Me.Username)
		return nil
	}
	fmt.Fprintf(out, "You (%s): #%d with %d\n", lb.Me.Username, lb.Me.Rank, lb.Me.Score)
	return nil
}

func runNext(cmd *cobra.Command, args []string) error {
	current := "none"
	if len(args) == 1 {
		current = args[0]
	}
	url, ok, err := newClient().Another(cmd.Context(), current)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "No more challenges right now.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}
