package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"typesim/internal/config"
	"typesim/internal/logx"
	"typesim/internal/observ"
	"typesim/internal/prof"
	"typesim/internal/session"
)

// settings is the resolved configuration shared by every subcommand.
type settings struct {
	cfg     config.Config
	color   bool
	timings bool
	timer   *observ.Timer
	// profiler is stopped by main after the command returns.
	profiler *prof.Profiler
}

var current = settings{cfg: config.Default()}

// setup loads the config file, then applies command-line overrides and
// initializes logging.
func setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadNearest(".")
	}
	if err != nil {
		return err
	}

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if colorFlag == "" {
		colorFlag = cfg.Repl.Color
	}
	mode, err := config.ParseColorMode(colorFlag)
	if err != nil {
		return err
	}

	verbosity, err := flags.GetCount("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	if verbosity > 0 {
		level = min(level, logx.VerbosityToLevel(verbosity))
	}
	logJSON, err := flags.GetBool("log-json")
	if err != nil {
		return fmt.Errorf("failed to get log-json flag: %w", err)
	}
	logx.Init(logx.Options{Level: level, JSON: logJSON || cfg.Log.JSON, Output: cmd.ErrOrStderr()})

	timings, err := flags.GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	current = settings{
		cfg:     cfg,
		color:   resolveColor(mode, cmd.OutOrStdout()),
		timings: timings,
	}
	if timings {
		current.timer = observ.NewTimer()
	}
	profiler, err := startProfiling(flags)
	if err != nil {
		return err
	}
	current.profiler = profiler

	if cfg.Path != "" {
		logx.L("cli").Debug("config loaded", zap.String("path", cfg.Path))
	}
	return nil
}

func startProfiling(flags *pflag.FlagSet) (*prof.Profiler, error) {
	var opts prof.Options
	for name, dst := range map[string]*string{
		"cpu-profile":   &opts.CPU,
		"mem-profile":   &opts.Mem,
		"runtime-trace": &opts.Trace,
	} {
		v, err := flags.GetString(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
	}
	if !opts.Enabled() {
		return nil, nil
	}
	logx.L("cli").Debug("profiling enabled",
		zap.String("cpu", opts.CPU), zap.String("mem", opts.Mem), zap.String("trace", opts.Trace))
	return prof.Start(opts)
}

func resolveColor(mode config.ColorMode, out io.Writer) bool {
	switch mode {
	case config.ColorOn:
		return true
	case config.ColorOff:
		return false
	}
	f, ok := out.(*os.File)
	return ok && isTerminal(f)
}

// newSession creates a session and loads the configured prelude files
// followed by extra, in order.
func newSession(opts session.Options, extra ...string) (*session.Session, error) {
	s := session.New(opts)
	files := append(append([]string(nil), current.cfg.Prelude.Files...), extra...)
	for _, path := range files {
		err := current.timer.Measure("load "+filepath.Base(path), func() error {
			_, err := s.LoadFile(path)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func workers() int {
	return current.cfg.Prelude.Workers
}

// printTimings writes the timing summary when --timings is set.
func printTimings(out io.Writer) error {
	if !current.timings {
		return nil
	}
	if err := current.timer.WriteSummary(out); err != nil {
		return fmt.Errorf("write timings: %w", err)
	}
	return nil
}
