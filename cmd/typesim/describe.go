package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"typesim/internal/layout"
	"typesim/internal/report"
	"typesim/internal/session"
)

var describeCmd = &cobra.Command{
	Use:   "describe [flags] [names...]",
	Short: "Report layouts for registered types",
	Long: `Load the prelude and any --defs files, then report size, alignment and
loss in every mode for the named types, or for all of them when no name
is given.`,
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().StringSlice("defs", nil, "definition files or snapshots to load (repeatable)")
	describeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	describeCmd.Flags().Int("jobs", 0, "max parallel workers when describing every type (0=config or auto)")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "json":
		// supported
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	defs, err := cmd.Flags().GetStringSlice("defs")
	if err != nil {
		return fmt.Errorf("failed to get defs flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs <= 0 {
		jobs = workers()
	}

	s, err := newSession(session.Options{Color: current.color}, defs...)
	if err != nil {
		return err
	}

	var reps []layout.Report
	err = current.timer.Measure("describe", func() error {
		if len(args) == 0 {
			reps, err = s.Engine().DescribeAll(cmd.Context(), jobs)
			return err
		}
		reps = make([]layout.Report, 0, len(args))
		for _, name := range args {
			rep, err := s.Engine().Describe(name)
			if err != nil {
				return err
			}
			reps = append(reps, rep)
		}
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		err = report.JSON(out, reps, report.JSONOpts{Indent: true})
	} else {
		err = report.PrettyAll(out, reps, report.PrettyOpts{Color: current.color, ShowOrdering: true})
	}
	return errors.Join(err, printTimings(cmd.ErrOrStderr()))
}
