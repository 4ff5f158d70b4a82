package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	serverURL      string
	username       string
	dictionaryPath string

	rootCmd = &cobra.Command{
		Use:           "anchorctl",
		Short:         "Create and play Anchor Word challenges from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	validateCmd = &cobra.Command{
		Use:   "validate <anchor> <word>...",
		Short: "Check a challenge offline and print its clues",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}
	createCmd = &cobra.Command{
		Use:   "create <anchor> <word>...",
		Short: "Create a challenge on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCreate,
	}
	guessCmd = &cobra.Command{
		Use:   "guess <postId> <guess>",
		Short: "Submit a guess",
		Args:  cobra.ExactArgs(2),
		RunE:  runGuess,
	}
	resultsCmd = &cobra.Command{
		Use:   "results <postId>",
		Short: "Show how everyone answered a challenge you solved or created",
		Args:  cobra.ExactArgs(1),
		RunE:  runResults,
	}
	leaderboardCmd = &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top players and your rank",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboard,
	}
	nextCmd = &cobra.Command{
		Use:   "next [postId]",
		Short: "Find a challenge you have not solved yet",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runNext,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Anchor Word server URL")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", "", "Play as this user (empty plays anonymously)")

	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&dictionaryPath, "dictionary", "", "Word list to validate against (defaults to the built-in list)")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(guessCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(nextCmd)
}
