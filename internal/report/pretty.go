package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"typesim/internal/layout"
	"typesim/internal/types"
)

type palette struct {
	heading func(string) string
	kind    func(a ...any) string
	number  func(a ...any) string
	loss    func(a ...any) string
}

func newPalette(enabled bool) palette {
	if !enabled {
		plain := func(a ...any) string { return fmt.Sprint(a...) }
		return palette{
			heading: func(s string) string { return s },
			kind:    plain,
			number:  plain,
			loss:    plain,
		}
	}
	kind := color.New(color.FgMagenta)
	number := color.New(color.FgCyan, color.Bold)
	loss := color.New(color.FgYellow)
	for _, c := range []*color.Color{kind, number, loss} {
		c.EnableColor()
	}
	heading := lipgloss.NewStyle().Bold(true).Underline(true)
	return palette{
		heading: func(s string) string { return heading.Render(s) },
		kind:    kind.Sprint,
		number:  number.Sprint,
		loss:    loss.Sprint,
	}
}

// Pretty writes a human-readable report:
//
//	s2 (struct)
//	  members: char int
//	  unpacked   size 8  align 4  loss 3
//	  packed     size 5  align 4  loss 0
//	  optimized  size 5  align 4  loss 0
//	  optimized order: int char
func Pretty(w io.Writer, rep layout.Report, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s (%s)\n", p.heading(rep.Name), p.kind(rep.Kind.String()))
	switch rep.Kind {
	case types.KindAtomic:
		if rep.Atomic != nil {
			fmt.Fprintf(&sb, "  representation: %s\n", p.number(rep.Atomic.Size))
			fmt.Fprintf(&sb, "  alignment: %s\n", p.number(rep.Atomic.Align))
		}
	case types.KindStruct:
		fmt.Fprintf(&sb, "  members: %s\n", strings.Join(rep.Members, " "))
	case types.KindUnion:
		fmt.Fprintf(&sb, "  variants: %s\n", strings.Join(rep.Members, " "))
	}

	for _, m := range rep.Modes {
		fmt.Fprintf(&sb, "  %-10s size %s  align %s  loss %s\n",
			m.Mode.String(), p.number(m.Size), p.number(m.Align), p.loss(m.Loss))
	}
	if opts.ShowOrdering && len(rep.Ordering) > 0 {
		fmt.Fprintf(&sb, "  optimized order: %s\n", strings.Join(rep.Ordering, " "))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// PrettyAll writes each report separated by a blank line.
func PrettyAll(w io.Writer, reps []layout.Report, opts PrettyOpts) error {
	for i, rep := range reps {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := Pretty(w, rep, opts); err != nil {
			return err
		}
	}
	return nil
}
