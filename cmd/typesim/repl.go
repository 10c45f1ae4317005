package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"typesim/internal/session"
)

var replCmd = &cobra.Command{
	Use:   "repl [files...]",
	Short: "Read type commands interactively or from stdin",
	Long: `Start a line-oriented session. Prelude files from the config and any
given files (.toml definitions or msgpack snapshots) are loaded first.
The prompt is only shown when stdin is a terminal.`,
	RunE: runRepl,
}

func init() {
	replCmd.Flags().Bool("no-prompt", false, "never print the prompt")
}

func runRepl(cmd *cobra.Command, args []string) error {
	noPrompt, err := cmd.Flags().GetBool("no-prompt")
	if err != nil {
		return fmt.Errorf("failed to get no-prompt flag: %w", err)
	}
	prompt := current.cfg.Repl.Prompt
	if in, ok := cmd.InOrStdin().(*os.File); noPrompt || !ok || !isTerminal(in) {
		prompt = ""
	}

	s, err := newSession(session.Options{
		Prompt:       prompt,
		Color:        current.color,
		ShowOrdering: true,
	}, args...)
	if err != nil {
		return err
	}

	err = current.timer.Measure("session", func() error {
		return s.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	})
	return errors.Join(err, printTimings(cmd.ErrOrStderr()))
}
