package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"typesim/internal/report"
	"typesim/internal/session"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Validate definition files without describing them",
	Long: `Load each file on top of the prelude and report whether every type in it
registers. Files are checked independently; the command fails if any of
them is rejected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		s, err := newSession(session.Options{})
		if err != nil {
			return err
		}
		var n int
		err = current.timer.Measure("check "+path, func() error {
			n, err = s.LoadFile(path)
			return err
		})
		if err != nil {
			failed++
			if werr := report.ErrorLine(out, err, current.color); werr != nil {
				return werr
			}
			continue
		}
		fmt.Fprintf(out, "%s: ok (%d types)\n", path, n)
	}
	timingsErr := printTimings(cmd.ErrOrStderr())
	if failed > 0 {
		return errors.Join(fmt.Errorf("%d of %d files rejected", failed, len(args)), timingsErr)
	}
	return timingsErr
}
