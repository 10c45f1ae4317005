package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"typesim/internal/types"
)

// Table writes one line per definition: name, kind and either the atomic
// size/alignment or the referenced names. Names are padded by display
// width so non-ASCII names line up.
func Table(w io.Writer, defs []types.Definition) error {
	if len(defs) == 0 {
		_, err := io.WriteString(w, "no types defined\n")
		return err
	}
	width := 0
	for _, d := range defs {
		width = max(width, runewidth.StringWidth(d.Name))
	}

	var sb strings.Builder
	for _, d := range defs {
		sb.WriteString(runewidth.FillRight(d.Name, width))
		sb.WriteString("  ")
		sb.WriteString(runewidth.FillRight(d.Variant.Kind.String(), len("struct")))
		sb.WriteString("  ")
		switch d.Variant.Kind {
		case types.KindAtomic:
			fmt.Fprintf(&sb, "%d/%d", d.Variant.Atomic.Size, d.Variant.Atomic.Align)
		default:
			sb.WriteString(strings.Join(d.Variant.Refs(), " "))
		}
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
