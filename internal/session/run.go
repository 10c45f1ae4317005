package session

import (
	"bufio"
	"context"
	"io"
	"strconv"

	"go.uber.org/zap"

	"typesim/internal/report"
)

// Run reads lines from in until EOF, an exit command or ctx is done, and
// writes results and errors to out. Command and type errors are printed
// and the loop continues; only I/O and context errors are returned.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.opts.Prompt != "" {
			if _, err := io.WriteString(out, s.opts.Prompt); err != nil {
				return err
			}
		}
		if !sc.Scan() {
			if s.opts.Prompt != "" {
				_, _ = io.WriteString(out, "\n")
			}
			return sc.Err()
		}

		res, err := s.Exec(sc.Text())
		if err != nil {
			s.log.Debug("command failed", zap.String("line", sc.Text()), zap.Error(err))
			if werr := report.ErrorLine(out, err, s.opts.Color); werr != nil {
				return werr
			}
			continue
		}
		if res.Exit {
			return nil
		}
		if err := s.render(out, res); err != nil {
			return err
		}
	}
}

func (s *Session) render(out io.Writer, res Result) error {
	switch {
	case res.Report != nil:
		return report.Pretty(out, *res.Report, report.PrettyOpts{
			Color:        s.opts.Color,
			ShowOrdering: s.opts.ShowOrdering,
		})
	case res.Defs != nil:
		return report.Table(out, res.Defs)
	case res.Loaded > 0:
		_, err := io.WriteString(out, pluralTypes(res.Loaded)+" loaded\n")
		return err
	}
	return nil
}

func pluralTypes(n int) string {
	if n == 1 {
		return "1 type"
	}
	return strconv.Itoa(n) + " types"
}
